package exchange

import "github.com/shopspring/decimal"

// Trade is the terminal record of one completed match. Price is always
// the resting order's price: the aggressor takes the quote already in
// the book, not its own limit.
type Trade struct {
	Buyer      string
	Seller     string
	Instrument string
	Price      decimal.Decimal
	Quantity   int64
}

// newTrade pairs the aggressor with the resting order it consumed.
func newTrade(aggressor, resting *Order) *Trade {
	t := &Trade{
		Instrument: aggressor.Instrument,
		Price:      resting.Price,
		Quantity:   aggressor.Quantity,
	}
	if aggressor.Side == Buy {
		t.Buyer = aggressor.Trader
		t.Seller = resting.Trader
	} else {
		t.Buyer = resting.Trader
		t.Seller = aggressor.Trader
	}
	return t
}
