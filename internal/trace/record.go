package trace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/rewrite"
)

// TokenSource mints run tokens. Implementations must be safe for
// concurrent use.
type TokenSource interface {
	Token() string
}

// UUIDv7Source mints time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so tokens
// from the default source sort runs by creation time. Uses
// github.com/google/uuid for RFC 4122 compliant UUIDs.
//
// Thread-safety: UUIDv7Source is stateless and safe for concurrent use.
type UUIDv7Source struct{}

// Token creates a new UUIDv7 and returns it as a hyphenated string.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters)
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Source) Token() string {
	return uuid.Must(uuid.NewV7()).String()
}

// BeginRun registers a new run under a fresh token and returns the
// recorder for it. The module name is whatever the caller converts
// under, typically the module's sym_name or its source path.
//
// ctx bounds every write the returned recorder makes.
func (s *Store) BeginRun(ctx context.Context, module string) (*Recorder, error) {
	token := s.tokens.Token()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (token, module) VALUES (?, ?)
	`, token, module)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &Recorder{s: s, ctx: ctx, token: token}, nil
}

// Recorder writes one row per committed rewrite. It implements
// rewrite.Listener: a failed write is logged and counted, never
// propagated, so recording cannot veto or abort a conversion.
//
// Rows are stamped with the recorder's own insertion sequence rather
// than the engine's event clock, so one recorder can span several
// conversions without colliding.
type Recorder struct {
	s       *Store
	ctx     context.Context
	token   string
	seq     atomic.Int64
	dropped atomic.Int64
}

var _ rewrite.Listener = (*Recorder)(nil)

// Token returns the run token rows are recorded under.
func (r *Recorder) Token() string {
	return r.token
}

// Rewrote records one committed rewrite.
func (r *Recorder) Rewrote(ev rewrite.Event) {
	seq := r.seq.Add(1)
	_, err := r.s.db.ExecContext(r.ctx, `
		INSERT INTO rewrites
		(run_token, seq, fn, src_kind, disposition, repl_kinds, op_delta, file, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.token,
		seq,
		ev.Fn,
		ev.Src.String(),
		ev.Disp.String(),
		joinKinds(ev.Repl),
		int64(len(ev.Repl))-1,
		ev.Loc.File,
		ev.Loc.Line,
		ev.Loc.Col,
	)
	if err != nil {
		r.dropped.Add(1)
		slog.Error("trace write failed",
			"run", r.token,
			"seq", seq,
			"op", ev.Src.String(),
			"err", err,
		)
	}
}

// Dropped returns how many events failed to record.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// joinKinds renders replacement kinds as a comma-joined list of fully
// qualified op names. Empty for an erased op.
func joinKinds(kinds []ir.OpKind) string {
	if len(kinds) == 0 {
		return ""
	}
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}
