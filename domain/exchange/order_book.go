package exchange

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// priceLevel is a FIFO queue of resting orders at a single price.
// Arrival order within the queue is time priority.
type priceLevel struct {
	price decimal.Decimal
	queue []*Order
}

func (l *priceLevel) enqueue(o *Order) {
	l.queue = append(l.queue, o)
}

func (l *priceLevel) head() *Order {
	if len(l.queue) == 0 {
		return nil
	}
	return l.queue[0]
}

// bookSide keeps price levels sorted best-first: descending for bids,
// ascending for asks. The best resting order on a side is therefore
// always the head of the first level.
type bookSide struct {
	descending bool
	levels     []*priceLevel
}

// search returns the position of the level for price, or the position
// where such a level would be inserted.
func (s *bookSide) search(price decimal.Decimal) (int, bool) {
	i := sort.Search(len(s.levels), func(i int) bool {
		cmp := s.levels[i].price.Cmp(price)
		if s.descending {
			return cmp <= 0
		}
		return cmp >= 0
	})
	found := i < len(s.levels) && s.levels[i].price.Equal(price)
	return i, found
}

func (s *bookSide) insert(o *Order) {
	i, found := s.search(o.Price)
	if found {
		s.levels[i].enqueue(o)
		return
	}
	lvl := &priceLevel{price: o.Price}
	lvl.enqueue(o)
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = lvl
}

func (s *bookSide) best() *Order {
	if len(s.levels) == 0 {
		return nil
	}
	return s.levels[0].head()
}

// remove takes the identified order out of its level, dropping the
// level once empty. Returns false if the order is not on this side.
func (s *bookSide) remove(id string, price decimal.Decimal) bool {
	i, found := s.search(price)
	if !found {
		return false
	}
	lvl := s.levels[i]
	for j, o := range lvl.queue {
		if o.ID != id {
			continue
		}
		lvl.queue = append(lvl.queue[:j], lvl.queue[j+1:]...)
		if len(lvl.queue) == 0 {
			s.levels = append(s.levels[:i], s.levels[i+1:]...)
		}
		return true
	}
	return false
}

func (s *bookSide) size() int {
	n := 0
	for _, lvl := range s.levels {
		n += len(lvl.queue)
	}
	return n
}

// OrderBook holds the resting liquidity for one instrument.
//
// Invariants: bids are ordered price-descending, asks price-ascending,
// ties broken by arrival; an order rests on at most one side; every
// resting order carries the book's instrument. The book is not safe for
// concurrent use; Exchange serializes access per instrument.
type OrderBook struct {
	instrument string
	bids       bookSide
	asks       bookSide
	index      map[string]*Order
}

func NewOrderBook(instrument string) *OrderBook {
	return &OrderBook{
		instrument: instrument,
		bids:       bookSide{descending: true},
		asks:       bookSide{},
		index:      make(map[string]*Order),
	}
}

func (b *OrderBook) Instrument() string { return b.instrument }

func (b *OrderBook) side(s Side) *bookSide {
	if s == Buy {
		return &b.bids
	}
	return &b.asks
}

// Insert rests a well-formed order on its side of the book. It fails
// only on invariant breaches, never on a valid order.
func (b *OrderBook) Insert(o *Order) error {
	if o.Instrument != b.instrument {
		return &InvariantError{
			Op:     "insert",
			Detail: fmt.Sprintf("order %s is for %s, book is %s", o.ID, o.Instrument, b.instrument),
		}
	}
	if _, dup := b.index[o.ID]; dup {
		return &InvariantError{
			Op:     "insert",
			Detail: fmt.Sprintf("order %s already resting", o.ID),
		}
	}
	b.side(o.Side).insert(o)
	b.index[o.ID] = o
	return nil
}

// BestMatch returns the resting counter-order the incoming order should
// trade against, or nil when nothing crosses.
//
// Levels are kept sorted best-first and queues are FIFO, so the head of
// the first opposite level is the best candidate under price-time
// priority; if its price does not cross the incoming limit, no resting
// price does.
func (b *OrderBook) BestMatch(incoming *Order) *Order {
	best := b.side(incoming.Side.Opposite()).best()
	if best == nil {
		return nil
	}
	if incoming.Side == Buy {
		if best.Price.Cmp(incoming.Price) > 0 {
			return nil
		}
	} else {
		if best.Price.Cmp(incoming.Price) < 0 {
			return nil
		}
	}
	return best
}

// Remove deletes a resting order by id. An absent id is a no-op: after
// a match the order is simply gone. An id the index knows but the
// levels do not is a broken invariant.
func (b *OrderBook) Remove(id string) error {
	o, ok := b.index[id]
	if !ok {
		return nil
	}
	delete(b.index, id)
	if !b.side(o.Side).remove(id, o.Price) {
		return &InvariantError{
			Op:     "remove",
			Detail: fmt.Sprintf("order %s indexed but not resting on %s side", id, o.Side),
		}
	}
	return nil
}

// Size reports how many orders rest on one side.
func (b *OrderBook) Size(s Side) int {
	return b.side(s).size()
}

// Resting reports whether an order id is currently in the book.
func (b *OrderBook) Resting(id string) bool {
	_, ok := b.index[id]
	return ok
}
