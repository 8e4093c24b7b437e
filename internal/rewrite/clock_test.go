package rewrite

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockNext(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current())
}

func TestClockConcurrentNext(t *testing.T) {
	c := NewClock()
	const workers = 8
	const perWorker = 250

	ticks := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := range ticks {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ticks[w] = append(ticks[w], c.Next())
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*perWorker)
	for _, ts := range ticks {
		for _, tick := range ts {
			require.False(t, seen[tick], "tick %d issued twice", tick)
			seen[tick] = true
		}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), c.Current())
}
