package trace

import (
	"path/filepath"
	"testing"

	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/testutil"
)

// createTestStore opens a store on a temp path. When tokens are given
// the store hands them out in order instead of minting UUIDs.
func createTestStore(t *testing.T, tokens ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	var opts []Option
	if len(tokens) > 0 {
		opts = append(opts, WithTokenSource(testutil.NewFixedTokenSource(tokens...)))
	}
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// replacedEvent builds a Replaced rewrite event for recording tests.
func replacedEvent(seq int64, fn string, src ir.OpKind, repl ...ir.OpKind) rewrite.Event {
	return rewrite.Event{
		Seq:  seq,
		Fn:   fn,
		Src:  src,
		Disp: rewrite.Replaced,
		Repl: repl,
		Loc:  ir.Location{File: "mod.cue", Line: int(seq) + 1, Col: 3},
	}
}
