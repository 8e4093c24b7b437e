package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioGoldens pins the printed lowered module of every golden
// scenario. Regenerate with: go test ./internal/harness -update
func TestScenarioGoldens(t *testing.T) {
	entries, err := os.ReadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	ran := 0
	for _, e := range entries {
		s := loadTestdataScenario(t, e.Name())
		if !s.Golden {
			continue
		}
		ran++
		t.Run(s.Name, func(t *testing.T) {
			res, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "scenario failed: %v", res.Errors)
		})
	}
	require.NotZero(t, ran, "no golden scenarios found")
}

func TestRunWithGolden_RejectsUnconverted(t *testing.T) {
	s := loadTestdataScenario(t, "equal_width_cast.yaml")
	s.Golden = true // bypass LoadScenario validation on purpose

	_, err := RunWithGolden(t, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not lower")
}
