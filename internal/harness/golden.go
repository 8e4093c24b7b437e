package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and pins the printed lowered
// module against testdata/golden/{scenario.Name}.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
//
// The scenario must lower cleanly; golden comparison of a partially
// converted module would pin failure output, which the unconverted
// disposition already covers more directly.
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(s)
	if err != nil {
		return nil, err
	}
	if res.Disposition != DispLowered {
		return res, fmt.Errorf("scenario %q did not lower, nothing to pin", s.Name)
	}

	AssertGolden(t, s.Name, res)
	return res, nil
}

// AssertGolden compares an already-computed result's lowered module
// against the golden file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, res *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, []byte(res.Lowered))
}
