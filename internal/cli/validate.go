package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/descent-ir/descent/internal/frontend"
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
	"github.com/descent-ir/descent/internal/vexprim"
)

// ValidationReport holds the result of validating a module without
// rewriting it: structural issues plus a convertibility report telling
// the user ahead of time what lowering would choke on.
type ValidationReport struct {
	Valid              bool     `json:"valid"`
	Functions          int      `json:"functions"`
	Ops                int      `json:"ops"`
	Issues             []string `json:"issues,omitempty"`
	UnmatchedKinds     []string `json:"unmatched_kinds,omitempty"`
	InconvertibleTypes []string `json:"inconvertible_types,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <module.cue>",
		Short: "Validate a module without lowering it",
		Long: `Compile a CUE module description, check that the vex module is
well-formed, and report anything lowering could not handle: op kinds
with no registered pattern and types the converter cannot represent.

Exit codes:
  0 - Module is valid and fully convertible
  1 - Structural issues or convertibility gaps
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, modulePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(modulePath); err != nil {
		return WrapExitError(ExitCommandError, "module not found", err)
	}

	g, err := frontend.LoadModule(modulePath)
	if err != nil {
		if ferr := formatter.Error(ErrCodeCompile, err.Error(), nil); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, "module failed to compile")
	}

	report := buildReport(g)
	if !report.Valid {
		if formatter.JSON() {
			if err := formatter.Success(report); err != nil {
				return err
			}
		} else {
			printReportText(formatter, report)
		}
		return NewExitError(ExitFailure, "module is not fully convertible")
	}

	if formatter.JSON() {
		return formatter.Success(report)
	}
	printReportText(formatter, report)
	return nil
}

// buildReport runs the validator and the convertibility walk.
func buildReport(g *ir.Graph) ValidationReport {
	report := ValidationReport{Valid: true}

	for _, issue := range vex.ValidateModule(g) {
		report.Issues = append(report.Issues, issue.String())
	}

	reg := rewrite.NewRegistry()
	if err := vexprim.PopulateAll(reg); err != nil {
		// Duplicate registration is a programming error, not a module
		// problem; surface it as an issue rather than panicking.
		report.Issues = append(report.Issues, fmt.Sprintf("pattern catalog: %v", err))
	}
	conv := vexprim.NewConverter()

	unmatched := map[string]bool{}
	inconvertible := map[string]bool{}
	for _, id := range g.AliveOps() {
		op := g.Op(id)
		if op.Kind.Dialect() != vex.DialectName {
			continue
		}
		report.Ops++
		if op.Kind == vex.Func {
			report.Functions++
		}
		if _, ok := reg.Lookup(op.Kind); !ok {
			unmatched[op.Kind.String()] = true
		}
		for _, r := range op.Results {
			t := g.ValueType(r)
			if _, ok := conv.Convert(t); !ok {
				inconvertible[t.String()] = true
			}
		}
		if sigAttr, ok := op.Attrs[vex.AttrFuncType].(ir.FuncTypeAttr); ok {
			if _, ok := conv.ConvertSignature(sigAttr.Sig); !ok {
				inconvertible[sigAttr.Sig.String()] = true
			}
		}
	}
	report.UnmatchedKinds = sortedKeys(unmatched)
	report.InconvertibleTypes = sortedKeys(inconvertible)

	report.Valid = len(report.Issues) == 0 &&
		len(report.UnmatchedKinds) == 0 &&
		len(report.InconvertibleTypes) == 0
	return report
}

func printReportText(formatter *OutputFormatter, report ValidationReport) {
	w := formatter.Writer
	if report.Valid {
		fmt.Fprintf(w, "✓ valid: %d function(s), %d op(s), all convertible\n", report.Functions, report.Ops)
		return
	}
	fmt.Fprintln(w, "✗ invalid")
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  issue: %s\n", issue)
	}
	for _, kind := range report.UnmatchedKinds {
		fmt.Fprintf(w, "  no pattern for: %s\n", kind)
	}
	for _, t := range report.InconvertibleTypes {
		fmt.Fprintf(w, "  inconvertible type: %s\n", t)
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
