package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	seen := make([]int32, 1000)
	For(len(seen), func(i int) {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	assert.Equal(t, int64(1000), counter)
	for i, v := range seen {
		require.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestRange_CoversContiguousChunks(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 4}

	var mu sync.Mutex
	var chunks [][2]int
	Range(100, func(start, end int) {
		mu.Lock()
		chunks = append(chunks, [2]int{start, end})
		mu.Unlock()
	}, cfg)

	assert.Len(t, chunks, 3)
	total := 0
	for _, c := range chunks {
		assert.Less(t, c[0], c[1])
		total += c[1] - c[0]
	}
	assert.Equal(t, 100, total)
}

func TestRange_FallsBackToSingleCall(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
	}{
		{"disabled", 1000, Config{Enabled: false, NumWorkers: 8, MinChunkSize: 1}},
		{"sequential", 1000, Sequential()},
		{"small", 31, Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			Range(tt.n, func(start, end int) {
				calls++
				assert.Equal(t, 0, start)
				assert.Equal(t, tt.n, end)
			}, tt.cfg)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRange_Empty(t *testing.T) {
	called := false
	Range(0, func(_, _ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Positive(t, cfg.NumWorkers)
	assert.Equal(t, 16, cfg.MinChunkSize)
	assert.Equal(t, cfg.NumWorkers > 1, cfg.Enabled)
}
