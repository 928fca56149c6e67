package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 8

	var counter int64
	n := 1000
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)
	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, Config{Enabled: false})
	assert.Equal(t, int64(100), counter)
}

func TestForRange_CoversEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 7, MinChunkSize: 3}
	n := 101
	seen := make([]int, n)
	var mu sync.Mutex
	ForRange(n, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		for i := start; i < end; i++ {
			seen[i]++
		}
	}, cfg)
	for i, c := range seen {
		assert.Equal(t, 1, c, "index %d", i)
	}
}

func TestForRange_Empty(t *testing.T) {
	called := false
	ForRange(0, func(_, _ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func TestForRange_SmallInputRunsInline(t *testing.T) {
	calls := 0
	ForRange(10, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	}, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 64})
	assert.Equal(t, 1, calls)
}
