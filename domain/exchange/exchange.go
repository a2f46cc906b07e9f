package exchange

import "sync"

// Exchange owns one OrderBook per configured instrument. The instrument
// set is fixed at construction and never changes at runtime.
//
// Submit calls for the same instrument are serialized with a per-book
// mutex because match-then-remove must not interleave; different
// instruments proceed fully in parallel.
type Exchange struct {
	books map[string]*lockedBook
}

type lockedBook struct {
	mu   sync.Mutex
	book *OrderBook
}

func New(instruments []string) *Exchange {
	books := make(map[string]*lockedBook, len(instruments))
	for _, sym := range instruments {
		books[sym] = &lockedBook{book: NewOrderBook(sym)}
	}
	return &Exchange{books: books}
}

// Instruments returns the configured instrument symbols.
func (e *Exchange) Instruments() []string {
	out := make([]string, 0, len(e.books))
	for sym := range e.books {
		out = append(out, sym)
	}
	return out
}

// Submit routes one inbound order to its book and yields at most one
// trade.
//
// A rejected order leaves every book untouched. On a match the trade
// carries the resting order's price and the resting order is removed;
// otherwise the order rests as new liquidity and the returned trade is
// nil.
func (e *Exchange) Submit(o *Order) (*Trade, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	lb, ok := e.books[o.Instrument]
	if !ok {
		return nil, &ValidationError{
			Field:  "instrument",
			Value:  o.Instrument,
			Reason: "unknown instrument",
		}
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	resting := lb.book.BestMatch(o)
	if resting == nil {
		if err := lb.book.Insert(o); err != nil {
			return nil, err
		}
		return nil, nil
	}

	trade := newTrade(o, resting)
	if err := lb.book.Remove(resting.ID); err != nil {
		return nil, err
	}
	return trade, nil
}

// BookSize reports the resting depth of one side of one instrument's
// book. Unknown instruments report zero.
func (e *Exchange) BookSize(instrument string, s Side) int {
	lb, ok := e.books[instrument]
	if !ok {
		return 0
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.book.Size(s)
}
