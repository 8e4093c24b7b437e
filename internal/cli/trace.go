package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/descent-ir/descent/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Run      string // optional - summarize a single run
	Rewrites bool   // list individual rewrites (requires --run)
}

// TraceRunView is the JSON payload for a single-run summary.
type TraceRunView struct {
	Token    string              `json:"token"`
	Kinds    []trace.KindSummary `json:"kinds"`
	Rewrites []trace.Rewrite     `json:"rewrites,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <db>",
		Short: "Summarize a rewrite trace database",
		Long: `Summarize a trace database recorded by 'descent lower --trace-db'.

Without flags, lists every recorded run. With --run, shows the
per-kind rewrite summary for that run; --rewrites additionally lists
each recorded rewrite in order.

Examples:
  descent trace rewrites.db
  descent trace rewrites.db --run 01920b6e-...
  descent trace rewrites.db --run 01920b6e-... --rewrites`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Run, "run", "", "run token to summarize")
	cmd.Flags().BoolVar(&opts.Rewrites, "rewrites", false, "list individual rewrites (requires --run)")

	return cmd
}

func runTraceCmd(opts *TraceOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Rewrites && opts.Run == "" {
		return NewExitError(ExitCommandError, "--rewrites requires --run")
	}
	// Opening a missing path would create an empty database; refuse it.
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, "trace database not found", err)
	}

	st, err := trace.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open trace database", err)
	}
	defer st.Close()

	ctx := context.Background()
	if opts.Run != "" {
		return traceRun(ctx, st, opts, formatter)
	}
	return traceRuns(ctx, st, formatter)
}

// traceRuns lists every recorded run.
func traceRuns(ctx context.Context, st *trace.Store, formatter *OutputFormatter) error {
	runs, err := st.ReadRunSummaries(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "read runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  rewrites=%d  op_delta=%+d\n",
			r.Token, r.Module, r.Rewrites, r.OpDelta)
	}
	return nil
}

// traceRun summarizes one run by source op kind.
func traceRun(ctx context.Context, st *trace.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	kinds, err := st.ReadKindSummaries(ctx, opts.Run)
	if err != nil {
		return WrapExitError(ExitCommandError, "read kind summaries", err)
	}

	view := TraceRunView{Token: opts.Run, Kinds: kinds}
	if opts.Rewrites {
		rewrites, err := st.ReadRewrites(ctx, opts.Run)
		if err != nil {
			return WrapExitError(ExitCommandError, "read rewrites", err)
		}
		view.Rewrites = rewrites
	}

	if formatter.JSON() {
		return formatter.Success(view)
	}

	w := formatter.Writer
	if len(view.Kinds) == 0 {
		fmt.Fprintf(w, "No rewrites recorded for run %s.\n", opts.Run)
		return nil
	}
	fmt.Fprintf(w, "run %s\n", opts.Run)
	for _, k := range view.Kinds {
		fmt.Fprintf(w, "  %-28s count=%-5d op_delta=%+d\n", k.Kind, k.Count, k.OpDelta)
	}
	for _, r := range view.Rewrites {
		fmt.Fprintf(w, "  #%-4d %-10s %-24s -> %s (%s)\n",
			r.Seq, r.Fn, r.SrcKind, strings.Join(r.ReplKinds, ", "), r.Disposition)
	}
	return nil
}
