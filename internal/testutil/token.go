// Package testutil provides deterministic test doubles shared across
// packages.
package testutil

import "sync"

// FixedTokenSource returns predetermined run tokens for testing.
//
// This enables deterministic trace databases and golden comparison.
// Tests provide a known sequence of tokens and verify exact trace rows.
//
// Thread-safety: FixedTokenSource is safe for concurrent use via
// internal mutex.
type FixedTokenSource struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokenSource creates a source that returns tokens in order.
//
// Example:
//
//	src := NewFixedTokenSource("run-1", "run-2")
//	src.Token() // "run-1"
//	src.Token() // "run-2"
//	src.Token() // panic: all tokens exhausted
func NewFixedTokenSource(tokens ...string) *FixedTokenSource {
	return &FixedTokenSource{
		tokens: tokens,
		idx:    0,
	}
}

// Token returns the next predetermined token.
// Thread-safe: uses mutex to protect index access.
//
// Panics if all tokens have been consumed. This is a fail-fast approach
// to catch test misconfiguration (test began more runs than expected).
func (s *FixedTokenSource) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.tokens) {
		panic("FixedTokenSource: all tokens exhausted")
	}
	token := s.tokens[s.idx]
	s.idx++
	return token
}
