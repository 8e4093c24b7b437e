package harness

import (
	"errors"
	"fmt"

	"github.com/descent-ir/descent/internal/frontend"
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
	"github.com/descent-ir/descent/internal/vexprim"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass reports overall success: disposition, unconverted kinds,
	// and every check matched.
	Pass bool `json:"pass"`

	// Disposition is what lowering actually did.
	Disposition string `json:"disposition"`

	// Source is the printed vex module before lowering.
	Source string `json:"source"`

	// Lowered is the printed prim module. Empty when unconverted.
	Lowered string `json:"lowered,omitempty"`

	// Unconverted lists the op kinds that survived lowering.
	Unconverted []string `json:"unconverted,omitempty"`

	// Checks holds one entry per scenario check, in order.
	Checks []CheckResult `json:"checks,omitempty"`

	// Errors collects everything that made the scenario fail.
	Errors []string `json:"errors,omitempty"`
}

// CheckResult is the outcome of one evaluator check.
type CheckResult struct {
	Fn   string     `json:"fn"`
	Pass bool       `json:"pass"`
	Got  [][]uint64 `json:"got,omitempty"`
	Want [][]uint64 `json:"want,omitempty"`
	Err  string     `json:"error,omitempty"`
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes one scenario: compile the module, lower it, and verify
// the scenario's expectations. A non-nil error means the scenario
// could not be executed at all (unreadable module, ill-formed source);
// expectation mismatches come back in the Result instead.
func Run(s *Scenario) (*Result, error) {
	g, err := frontend.LoadModule(s.Module)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}
	if issues := vex.ValidateModule(g); len(issues) > 0 {
		return nil, fmt.Errorf("ill-formed module: %v", issues)
	}

	res := &Result{Pass: true, Source: ir.Print(g)}

	switch err := vexprim.Lower(g); {
	case err == nil:
		res.Disposition = DispLowered
		res.Lowered = ir.Print(g)
	default:
		var convErr *rewrite.ConversionError
		if !errors.As(err, &convErr) {
			return nil, fmt.Errorf("lowering failed: %w", err)
		}
		res.Disposition = DispUnconverted
		for _, u := range convErr.Unconverted {
			res.Unconverted = append(res.Unconverted, u.Kind.String())
		}
	}

	if res.Disposition != s.Expect {
		res.AddError("expected disposition %q, got %q", s.Expect, res.Disposition)
	}
	for _, kind := range s.Unconverted {
		if !contains(res.Unconverted, kind) {
			res.AddError("expected %s among unconverted kinds %v", kind, res.Unconverted)
		}
	}

	if res.Disposition == DispLowered {
		for _, c := range s.Checks {
			cr := runCheck(g, c)
			res.Checks = append(res.Checks, cr)
			if !cr.Pass {
				res.AddError("check %s failed: %s", c.Fn, cr.describe())
			}
		}
	}
	return res, nil
}

// runCheck evaluates one function of the lowered module and compares
// its results lane by lane.
func runCheck(g *ir.Graph, c Check) CheckResult {
	cr := CheckResult{Fn: c.Fn}

	sig, err := loweredSignature(g, c.Fn)
	if err != nil {
		cr.Err = err.Error()
		return cr
	}
	if len(c.Args) != len(sig.Params) {
		cr.Err = fmt.Sprintf("%d args for %d parameters", len(c.Args), len(sig.Params))
		return cr
	}
	if len(c.Want) != len(sig.Results) {
		cr.Err = fmt.Sprintf("%d want entries for %d results", len(c.Want), len(sig.Results))
		return cr
	}

	args := make([]prim.Datum, len(c.Args))
	for i, lanes := range c.Args {
		t := sig.Params[i]
		if len(lanes) != ir.Lanes(t) {
			cr.Err = fmt.Sprintf("arg %d has %d lanes, parameter type %s has %d", i, len(lanes), t, ir.Lanes(t))
			return cr
		}
		args[i] = prim.DatumOf(t, lanes...)
	}

	out, err := prim.EvalFunc(g, c.Fn, args)
	if err != nil {
		cr.Err = err.Error()
		return cr
	}

	cr.Pass = true
	for i, d := range out {
		want := prim.DatumOf(sig.Results[i], c.Want[i]...)
		cr.Got = append(cr.Got, append([]uint64(nil), d.Lanes...))
		cr.Want = append(cr.Want, append([]uint64(nil), want.Lanes...))
		if !lanesEqual(d.Lanes, want.Lanes) {
			cr.Pass = false
		}
	}
	return cr
}

func (cr CheckResult) describe() string {
	if cr.Err != "" {
		return cr.Err
	}
	return fmt.Sprintf("got %v, want %v", cr.Got, cr.Want)
}

// loweredSignature finds the named function in a lowered module and
// returns its converted signature.
func loweredSignature(g *ir.Graph, name string) (ir.FuncType, error) {
	funcs, err := prim.ModuleFuncs(g)
	if err != nil {
		return ir.FuncType{}, err
	}
	for _, fn := range funcs {
		if g.Op(fn).StringAttrValue(prim.AttrSymName) == name {
			return prim.FuncSignature(g, fn)
		}
	}
	return ir.FuncType{}, fmt.Errorf("no function %q in lowered module", name)
}

func lanesEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
