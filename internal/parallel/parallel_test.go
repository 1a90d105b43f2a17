package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForEach_VisitsEveryIndexOnce(t *testing.T) {
	for _, tc := range []struct {
		n, workers int
	}{
		{0, 4},
		{1, 4},
		{7, 3},
		{500, 0},
		{1000, 8},
		{1001, 16},
	} {
		counts := make([]int32, tc.n)
		ForEach(tc.n, tc.workers, func(i int) {
			atomic.AddInt32(&counts[i], 1)
		})
		for i, c := range counts {
			if c != 1 {
				t.Fatalf("n=%d workers=%d: index %d visited %d times", tc.n, tc.workers, i, c)
			}
		}
	}
}

func TestForEach_JoinsBeforeReturning(t *testing.T) {
	var done int64
	ForEach(10000, 8, func(i int) {
		atomic.AddInt64(&done, 1)
	})
	assert.Equal(t, int64(10000), atomic.LoadInt64(&done))
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, runtime.GOMAXPROCS(0), Workers(0))
	assert.Equal(t, runtime.GOMAXPROCS(0), Workers(-3))
	assert.Equal(t, 5, Workers(5))
}
