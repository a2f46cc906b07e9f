package service

import (
	"context"

	"go.uber.org/zap"

	"pit/api/wire"
	"pit/domain/exchange"
	"pit/infra/outbox"
	"pit/infra/sequence"
)

/*
ExchangeService is the only write entry point into the matching core.

One inbound payload flows decode → validate → sequence → submit, and a
resulting trade is made durable in the outbox before the message queue
is allowed to ack. Coordination between the domain and the infra lives
here and nowhere else.
*/
type ExchangeService struct {
	ex     *exchange.Exchange
	seq    *sequence.Sequencer
	outbox *outbox.Outbox
	log    *zap.Logger
}

func New(ex *exchange.Exchange, seq *sequence.Sequencer, ob *outbox.Outbox, log *zap.Logger) *ExchangeService {
	return &ExchangeService{ex: ex, seq: seq, outbox: ob, log: log}
}

// HandleOrder processes one inbound order payload.
//
// A nil return means the message may be acked: either it produced a
// book mutation (rest or trade-in-outbox), or it was rejected as
// invalid and there is nothing to retry. A non-nil return means the
// hand-off to the outbox failed and the message must be redelivered.
func (s *ExchangeService) HandleOrder(ctx context.Context, payload []byte) error {
	order, err := wire.DecodeOrder(payload)
	if err != nil {
		s.log.Warn("order rejected", zap.Error(err))
		return nil
	}
	order.Sequence = s.seq.Next()

	s.log.Info("order received",
		zap.String("id", order.ID),
		zap.String("trader", order.Trader),
		zap.String("side", order.Side.String()),
		zap.String("stock", order.Instrument),
		zap.String("price", order.Price.String()),
		zap.Int64("quantity", order.Quantity),
	)

	trade, err := s.ex.Submit(order)
	switch {
	case exchange.IsValidation(err):
		s.log.Warn("order rejected", zap.Error(err))
		return nil
	case err != nil:
		// Invariant violations abandon the one offending message,
		// never the process.
		s.log.Error("submission aborted", zap.String("id", order.ID), zap.Error(err))
		return nil
	}

	if trade == nil {
		s.log.Info("no match, order rested",
			zap.String("id", order.ID),
			zap.String("stock", order.Instrument),
			zap.String("price", order.Price.String()),
		)
		return nil
	}

	encoded, err := wire.EncodeTrade(trade)
	if err != nil {
		return err
	}
	seq, err := s.outbox.Put(encoded)
	if err != nil {
		// Not durable yet: surface the error so the message is
		// redelivered rather than the trade lost.
		return err
	}

	s.log.Info("trade executed",
		zap.Uint64("outbox_seq", seq),
		zap.String("buyer", trade.Buyer),
		zap.String("seller", trade.Seller),
		zap.String("stock", trade.Instrument),
		zap.String("price", trade.Price.String()),
		zap.Int64("quantity", trade.Quantity),
	)
	return nil
}
