package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIsMonotonic(t *testing.T) {
	s := New(0)
	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		n := s.Next()
		assert.Greater(t, n, prev)
		prev = n
	}
	assert.Equal(t, prev, s.Current())
}

func TestNextIsUniqueUnderConcurrency(t *testing.T) {
	s := New(0)
	const workers, perWorker = 8, 1000

	var wg sync.WaitGroup
	out := make(chan uint64, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				out <- s.Next()
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint64]struct{}, workers*perWorker)
	for n := range out {
		_, dup := seen[n]
		assert.False(t, dup, "sequence %d issued twice", n)
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestStartOffset(t *testing.T) {
	s := New(41)
	assert.Equal(t, uint64(42), s.Next())
}
