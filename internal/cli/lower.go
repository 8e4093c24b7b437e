package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/descent-ir/descent/internal/frontend"
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/trace"
	"github.com/descent-ir/descent/internal/vex"
	"github.com/descent-ir/descent/internal/vexprim"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Output  string
	Emit    string // "prim" | "vex"
	TraceDB string
}

// LowerResult is the JSON payload of a successful lowering.
type LowerResult struct {
	Module   string `json:"module"`
	RunToken string `json:"run_token,omitempty"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <module.cue>",
		Short: "Lower a vex module to the prim dialect",
		Long: `Compile a CUE module description to the vex dialect and lower it
to prim. The lowered module prints to stdout unless -o is given.

Exit codes:
  0 - Module lowered cleanly
  1 - Ill-formed module or operations left unconverted
  2 - Command error (missing file, unwritable output, ...)

Examples:
  descent lower module.cue
  descent lower module.cue -o lowered.txt
  descent lower module.cue --emit vex
  descent lower module.cue --trace-db rewrites.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the printed module to a file instead of stdout")
	cmd.Flags().StringVar(&opts.Emit, "emit", "prim", "dialect to print (prim|vex)")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "record the rewrite trace into a SQLite database")

	return cmd
}

func runLower(opts *LowerOptions, modulePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Emit != "prim" && opts.Emit != "vex" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --emit %q: must be prim or vex", opts.Emit))
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
	if issues := vex.ValidateModule(g); len(issues) > 0 {
		details := make([]string, len(issues))
		for i, issue := range issues {
			details[i] = issue.String()
		}
		if ferr := formatter.Error(ErrCodeIllFormed, "module is ill-formed", details); ferr != nil {
			return ferr
		}
		if !formatter.JSON() {
			for _, d := range details {
				fmt.Fprintf(formatter.Writer, "  %s\n", d)
			}
		}
		return NewExitError(ExitFailure, "module is ill-formed")
	}
	formatter.VerboseLog("compiled %s", modulePath)

	if opts.Emit == "vex" {
		return emitModule(opts, formatter, LowerResult{Module: ir.Print(g)})
	}

	var lowerOpts []rewrite.Option
	var runToken string
	if opts.TraceDB != "" {
		st, err := trace.Open(opts.TraceDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "open trace database", err)
		}
		defer st.Close()
		rec, err := st.BeginRun(context.Background(), modulePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "begin trace run", err)
		}
		runToken = rec.Token()
		lowerOpts = append(lowerOpts, rewrite.WithListener(rec))
		formatter.VerboseLog("recording rewrites under run %s", runToken)
	}

	if err := vexprim.Lower(g, lowerOpts...); err != nil {
		var convErr *rewrite.ConversionError
		if !errors.As(err, &convErr) {
			return WrapExitError(ExitFailure, "lowering failed", err)
		}
		details := make([]string, len(convErr.Unconverted))
		for i, u := range convErr.Unconverted {
			details[i] = u.String()
		}
		if ferr := formatter.Error(ErrCodeUnconverted, "operations left unconverted", details); ferr != nil {
			return ferr
		}
		if !formatter.JSON() {
			for _, d := range details {
				fmt.Fprintf(formatter.Writer, "  %s\n", d)
			}
		}
		return NewExitError(ExitFailure, "operations left unconverted")
	}

	return emitModule(opts, formatter, LowerResult{Module: ir.Print(g), RunToken: runToken})
}

// emitModule writes the printed module to the output file or the
// formatter's writer.
func emitModule(opts *LowerOptions, formatter *OutputFormatter, res LowerResult) error {
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(res.Module), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
		formatter.VerboseLog("wrote %s", opts.Output)
		if formatter.JSON() {
			return formatter.Success(res)
		}
		return nil
	}
	if formatter.JSON() {
		return formatter.Success(res)
	}
	_, err := fmt.Fprint(formatter.Writer, res.Module)
	return err
}
