package sequence

import "sync/atomic"

// Sequencer hands out strictly monotonic arrival numbers. Every order
// accepted at the ingress boundary is stamped with one before a book
// sees it; ties at a price level break on this ordering.
type Sequencer struct {
	next atomic.Uint64
}

func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next arrival number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued number.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
