package trace

import (
	"context"
	"fmt"
	"strings"

	"github.com/descent-ir/descent/internal/ir"
)

// Rewrite is one recorded rewrite row.
type Rewrite struct {
	ID          int64
	RunToken    string
	Seq         int64
	Fn          string
	SrcKind     string
	Disposition string
	ReplKinds   []string
	OpDelta     int64
	Loc         ir.Location
}

// RunSummary aggregates one run: how many rewrites it recorded and the
// net op-count change across them.
type RunSummary struct {
	Token    string
	Module   string
	Rewrites int64
	OpDelta  int64
}

// KindSummary aggregates the rewrites of one source op kind.
type KindSummary struct {
	Kind    string
	Count   int64
	OpDelta int64
}

// ReadRewrites returns every rewrite recorded under a run token.
// Results are ordered by seq ASC, id ASC for deterministic output.
//
// Returns an empty slice (not nil) if the run recorded nothing.
func (s *Store) ReadRewrites(ctx context.Context, runToken string) ([]Rewrite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_token, seq, fn, src_kind, disposition, repl_kinds, op_delta, file, line, col
		FROM rewrites
		WHERE run_token = ?
		ORDER BY seq ASC, id ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer rows.Close()

	var rewrites []Rewrite
	for rows.Next() {
		var r Rewrite
		var repl string
		if err := rows.Scan(
			&r.ID, &r.RunToken, &r.Seq, &r.Fn, &r.SrcKind, &r.Disposition,
			&repl, &r.OpDelta, &r.Loc.File, &r.Loc.Line, &r.Loc.Col,
		); err != nil {
			return nil, fmt.Errorf("scan rewrite: %w", err)
		}
		r.ReplKinds = splitKinds(repl)
		rewrites = append(rewrites, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewrites: %w", err)
	}

	if rewrites == nil {
		rewrites = []Rewrite{}
	}

	return rewrites, nil
}

// ReadRunSummaries returns one summary per run, in the order the runs
// were begun. Runs that recorded nothing still appear with zero counts.
func (s *Store) ReadRunSummaries(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.token, r.module, COUNT(w.id), COALESCE(SUM(w.op_delta), 0)
		FROM runs r
		LEFT JOIN rewrites w ON w.run_token = r.token
		GROUP BY r.id
		ORDER BY r.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		if err := rows.Scan(&sum.Token, &sum.Module, &sum.Rewrites, &sum.OpDelta); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}

	if summaries == nil {
		summaries = []RunSummary{}
	}

	return summaries, nil
}

// ReadKindSummaries returns rewrite counts grouped by source op kind,
// ordered by kind name for deterministic output. An empty runToken
// aggregates across every run in the database.
func (s *Store) ReadKindSummaries(ctx context.Context, runToken string) ([]KindSummary, error) {
	query := `
		SELECT src_kind, COUNT(*), SUM(op_delta)
		FROM rewrites
		GROUP BY src_kind
		ORDER BY src_kind COLLATE BINARY ASC
	`
	var args []any
	if runToken != "" {
		query = `
			SELECT src_kind, COUNT(*), SUM(op_delta)
			FROM rewrites
			WHERE run_token = ?
			GROUP BY src_kind
			ORDER BY src_kind COLLATE BINARY ASC
		`
		args = append(args, runToken)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query kind summaries: %w", err)
	}
	defer rows.Close()

	var summaries []KindSummary
	for rows.Next() {
		var sum KindSummary
		if err := rows.Scan(&sum.Kind, &sum.Count, &sum.OpDelta); err != nil {
			return nil, fmt.Errorf("scan kind summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind summaries: %w", err)
	}

	if summaries == nil {
		summaries = []KindSummary{}
	}

	return summaries, nil
}

// splitKinds parses a comma-joined kind list. Empty input means the op
// was erased with no replacement.
func splitKinds(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
