package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pit/api/wire"
	"pit/domain/exchange"
	"pit/infra/outbox"
	"pit/infra/sequence"
)

func newTestService(t *testing.T) (*ExchangeService, *exchange.Exchange, *outbox.Outbox) {
	t.Helper()
	ob, err := outbox.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })

	ex := exchange.New([]string{"AAPL", "GOOG"})
	svc := New(ex, sequence.New(0), ob, zap.NewNop())
	return svc, ex, ob
}

func pendingCount(t *testing.T, ob *outbox.Outbox) int {
	t.Helper()
	n := 0
	require.NoError(t, ob.ScanPending(func(outbox.Record) error {
		n++
		return nil
	}))
	return n
}

func TestHandleOrderRests(t *testing.T) {
	svc, ex, ob := newTestService(t)

	err := svc.HandleOrder(context.Background(),
		[]byte(`{"id":"b1","username":"alice","side":"BUY","stock":"AAPL","price":100,"quantity":100}`))
	require.NoError(t, err)

	assert.Equal(t, 1, ex.BookSize("AAPL", exchange.Buy))
	assert.Zero(t, pendingCount(t, ob), "no trade, nothing to publish")
}

func TestHandleOrderMatchGoesToOutbox(t *testing.T) {
	svc, ex, ob := newTestService(t)

	require.NoError(t, svc.HandleOrder(context.Background(),
		[]byte(`{"id":"b1","username":"alice","side":"BUY","stock":"AAPL","price":100,"quantity":100}`)))
	require.NoError(t, svc.HandleOrder(context.Background(),
		[]byte(`{"id":"s1","username":"bob","side":"SELL","stock":"AAPL","price":95,"quantity":100}`)))

	assert.Equal(t, 0, ex.BookSize("AAPL", exchange.Buy))
	assert.Equal(t, 0, ex.BookSize("AAPL", exchange.Sell))

	var payloads [][]byte
	require.NoError(t, ob.ScanPending(func(rec outbox.Record) error {
		payloads = append(payloads, rec.Payload)
		return nil
	}))
	require.Len(t, payloads, 1, "the trade is durable before the ack")

	var msg wire.TradeMessage
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, "alice", msg.Buyer)
	assert.Equal(t, "bob", msg.Seller)
	assert.Equal(t, "AAPL", msg.Stock)
	assert.Equal(t, "100", msg.Price.String(), "trade price is the resting bid's")
	assert.Equal(t, int64(100), msg.Quantity)
}

func TestHandleOrderMalformedPayloadIsAcked(t *testing.T) {
	svc, ex, ob := newTestService(t)

	// Rejections return nil: redelivering garbage would reject it again.
	err := svc.HandleOrder(context.Background(), []byte(`not json`))
	assert.NoError(t, err)

	err = svc.HandleOrder(context.Background(),
		[]byte(`{"username":"alice","side":"BUY","stock":"AAPL","price":100,"quantity":100}`))
	assert.NoError(t, err, "missing order id is a validation failure, not a retry")

	err = svc.HandleOrder(context.Background(),
		[]byte(`{"id":"b1","username":"alice","side":"BUY","stock":"TSLA","price":100,"quantity":100}`))
	assert.NoError(t, err, "unknown instrument is rejected, not retried")

	for _, sym := range []string{"AAPL", "GOOG"} {
		assert.Equal(t, 0, ex.BookSize(sym, exchange.Buy))
		assert.Equal(t, 0, ex.BookSize(sym, exchange.Sell))
	}
	assert.Zero(t, pendingCount(t, ob))
}

func TestHandleOrderStampsArrivalSequence(t *testing.T) {
	svc, ex, _ := newTestService(t)

	// Two resting asks at one price; the earlier arrival must fill
	// first, which only works if the service stamps sequences in
	// arrival order.
	require.NoError(t, svc.HandleOrder(context.Background(),
		[]byte(`{"id":"s1","username":"carol","side":"SELL","stock":"AAPL","price":100,"quantity":100}`)))
	require.NoError(t, svc.HandleOrder(context.Background(),
		[]byte(`{"id":"s2","username":"dave","side":"SELL","stock":"AAPL","price":100,"quantity":100}`)))
	require.NoError(t, svc.HandleOrder(context.Background(),
		[]byte(`{"id":"b1","username":"alice","side":"BUY","stock":"AAPL","price":100,"quantity":100}`)))

	assert.Equal(t, 1, ex.BookSize("AAPL", exchange.Sell), "one ask consumed, one left")

	// The survivor must be s2: matching it next proves s1 went first.
	tr, err := ex.Submit(&exchange.Order{
		ID: "b2", Trader: "erin", Instrument: "AAPL",
		Side: exchange.Buy, Price: decimal.NewFromInt(100), Quantity: 100, Sequence: 99,
	})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, "dave", tr.Seller)
}
