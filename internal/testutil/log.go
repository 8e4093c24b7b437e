package testutil

import (
	"io"
	"log/slog"
	"testing"
)

// SilenceLogs swaps the default slog logger for a discard handler for
// the duration of the test. Tests that exercise failure paths call this
// so expected error logs don't clutter the output.
func SilenceLogs(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
