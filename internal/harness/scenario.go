package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lowering dispositions a scenario can expect.
const (
	DispLowered     = "lowered"
	DispUnconverted = "unconverted"
)

// Scenario defines one conformance test: a module description plus the
// expected outcome of lowering it.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed
	// by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module is the path to the CUE module description, relative to
	// the scenario file.
	Module string `yaml:"module"`

	// Expect is the lowering disposition: "lowered" (default) when
	// every op must convert, "unconverted" when some must survive.
	Expect string `yaml:"expect,omitempty"`

	// Unconverted lists op kinds that must appear among the leftovers
	// of an "unconverted" scenario, e.g. "vex.uconvert".
	Unconverted []string `yaml:"unconverted,omitempty"`

	// Checks evaluate functions of the lowered module on concrete
	// arguments. Only valid when Expect is "lowered".
	Checks []Check `yaml:"checks,omitempty"`

	// Golden pins the printed lowered module against a golden file.
	Golden bool `yaml:"golden,omitempty"`
}

// Check runs one function of the lowered module through the reference
// evaluator and compares its results.
type Check struct {
	// Fn is the function symbol to evaluate.
	Fn string `yaml:"fn"`

	// Args holds one datum per parameter.
	Args []Lanes `yaml:"args"`

	// Want holds one datum per result. Values are masked to the
	// result type's width before comparison, so -1 means all ones.
	Want []Lanes `yaml:"want"`
}

// Lanes is one datum: a single scalar or a per-lane list for vectors.
// YAML accepts either `3` or `[1, 2, 3, 4]`; values may be decimal,
// hex (0x...), or negative (two's complement of the full 64 bits,
// narrowed by masking later).
type Lanes []uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Lanes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := parseLane(node.Value)
		if err != nil {
			return err
		}
		*l = Lanes{v}
		return nil
	case yaml.SequenceNode:
		out := make(Lanes, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := parseLane(c.Value)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: datum must be a scalar or a lane list", node.Line)
	}
}

func parseLane(s string) (uint64, error) {
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid lane value %q: %w", s, err)
		}
		return uint64(v), nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lane value %q: %w", s, err)
	}
	return v, nil
}

// LoadScenario reads and parses a scenario YAML file. The module path
// is resolved relative to the scenario file's directory. Unknown
// fields are rejected so typos fail loudly instead of silently
// skipping assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if s.Module != "" && !filepath.IsAbs(s.Module) {
		s.Module = filepath.Join(filepath.Dir(path), s.Module)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Module == "" {
		return fmt.Errorf("module is required")
	}
	if _, err := os.Stat(s.Module); err != nil {
		return fmt.Errorf("module file not found: %s", s.Module)
	}

	switch s.Expect {
	case "":
		s.Expect = DispLowered
	case DispLowered, DispUnconverted:
	default:
		return fmt.Errorf("expect must be %q or %q, got %q", DispLowered, DispUnconverted, s.Expect)
	}

	if s.Expect != DispUnconverted && len(s.Unconverted) > 0 {
		return fmt.Errorf("unconverted list requires expect: %s", DispUnconverted)
	}
	if s.Expect != DispLowered {
		if len(s.Checks) > 0 {
			return fmt.Errorf("checks require expect: %s", DispLowered)
		}
		if s.Golden {
			return fmt.Errorf("golden requires expect: %s", DispLowered)
		}
	}

	for i, c := range s.Checks {
		if c.Fn == "" {
			return fmt.Errorf("checks[%d]: fn is required", i)
		}
		if len(c.Want) == 0 {
			return fmt.Errorf("checks[%d]: want is required", i)
		}
	}
	return nil
}
