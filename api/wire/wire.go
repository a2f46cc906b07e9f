// Package wire owns the JSON contract between the exchange and the
// message queue. Payloads are validated here, before a typed domain
// value exists; nothing malformed reaches the matching logic.
package wire

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"pit/domain/exchange"
)

// OrderMessage is the inbound order payload published by traders.
type OrderMessage struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Side     string      `json:"side"`
	Stock    string      `json:"stock"`
	Price    json.Number `json:"price"`
	Quantity int64       `json:"quantity"`
}

// TradeMessage is the outbound trade payload.
type TradeMessage struct {
	Buyer    string      `json:"buyer"`
	Seller   string      `json:"seller"`
	Stock    string      `json:"stock"`
	Price    json.Number `json:"price"`
	Quantity int64       `json:"quantity"`
}

// DecodeOrder parses and validates one inbound payload into a domain
// order. Every rejection is an *exchange.ValidationError naming the
// offending field, so the caller can log it and drop the message.
//
// The arrival sequence is not part of the wire contract; the service
// stamps it after decoding.
func DecodeOrder(payload []byte) (*exchange.Order, error) {
	var msg OrderMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, &exchange.ValidationError{
			Field:  "payload",
			Value:  string(payload),
			Reason: "not valid JSON: " + err.Error(),
		}
	}

	if msg.ID == "" {
		return nil, &exchange.ValidationError{Field: "id", Value: "", Reason: "order id is required"}
	}
	if msg.Username == "" {
		return nil, &exchange.ValidationError{Field: "username", Value: "", Reason: "username is required"}
	}
	side, ok := exchange.ParseSide(msg.Side)
	if !ok {
		return nil, &exchange.ValidationError{Field: "side", Value: msg.Side, Reason: `side must be "BUY" or "SELL"`}
	}
	if msg.Stock == "" {
		return nil, &exchange.ValidationError{Field: "stock", Value: "", Reason: "stock is required"}
	}
	price, err := decimal.NewFromString(msg.Price.String())
	if err != nil {
		return nil, &exchange.ValidationError{Field: "price", Value: msg.Price.String(), Reason: "price must be a number"}
	}
	if !price.IsPositive() {
		return nil, &exchange.ValidationError{Field: "price", Value: price.String(), Reason: "price must be positive"}
	}
	if msg.Quantity <= 0 {
		return nil, &exchange.ValidationError{
			Field:  "quantity",
			Value:  strconv.FormatInt(msg.Quantity, 10),
			Reason: "quantity must be positive",
		}
	}

	return &exchange.Order{
		ID:         msg.ID,
		Trader:     msg.Username,
		Instrument: msg.Stock,
		Side:       side,
		Price:      price,
		Quantity:   msg.Quantity,
	}, nil
}

// EncodeOrder serializes an order for the orders topic.
func EncodeOrder(o *exchange.Order) ([]byte, error) {
	return json.Marshal(OrderMessage{
		ID:       o.ID,
		Username: o.Trader,
		Side:     o.Side.String(),
		Stock:    o.Instrument,
		Price:    json.Number(o.Price.String()),
		Quantity: o.Quantity,
	})
}

// EncodeTrade serializes a trade for the trades topic.
func EncodeTrade(t *exchange.Trade) ([]byte, error) {
	return json.Marshal(TradeMessage{
		Buyer:    t.Buyer,
		Seller:   t.Seller,
		Stock:    t.Instrument,
		Price:    json.Number(t.Price.String()),
		Quantity: t.Quantity,
	})
}
