package exchange

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide maps the wire literals "BUY" and "SELL" to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "BUY":
		return Buy, true
	case "SELL":
		return Sell, true
	default:
		return 0, false
	}
}

// Order is one trading intent. It is immutable after construction: the
// book holds it untouched until a match removes it.
//
// ID must be assigned by whoever creates the order. Sequence is the
// arrival counter stamped at the ingress boundary and drives time
// priority among equal prices.
type Order struct {
	ID         string
	Trader     string
	Instrument string
	Side       Side
	Price      decimal.Decimal
	Quantity   int64
	Sequence   uint64
}

// Validate checks the order against the submission preconditions.
// It returns a *ValidationError and never mutates anything.
func (o *Order) Validate() error {
	if o.ID == "" {
		return &ValidationError{Field: "id", Value: "", Reason: "order id is required"}
	}
	if o.Trader == "" {
		return &ValidationError{Field: "trader", Value: "", Reason: "trader is required"}
	}
	if o.Instrument == "" {
		return &ValidationError{Field: "instrument", Value: "", Reason: "instrument is required"}
	}
	if o.Side != Buy && o.Side != Sell {
		return &ValidationError{Field: "side", Value: o.Side.String(), Reason: "side must be BUY or SELL"}
	}
	if !o.Price.IsPositive() {
		return &ValidationError{Field: "price", Value: o.Price.String(), Reason: "price must be positive"}
	}
	if o.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Value: strconv.FormatInt(o.Quantity, 10), Reason: "quantity must be positive"}
	}
	return nil
}
