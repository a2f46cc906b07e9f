package kafka

import (
	"context"
	"errors"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Handler processes one inbound message payload. A nil return
// acknowledges the message; an error leaves it unacked for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Consumer drives a sarama consumer group over the orders topic and
// hands every message to a Handler. Messages are marked only after the
// handler returns, which is what makes delivery at-least-once.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler Handler
	log     *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, h Handler, log *zap.Logger) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: group, topic: topic, handler: h, log: log}, nil
}

// Run blocks until ctx is cancelled, rejoining the group across
// rebalances.
func (c *Consumer) Run(ctx context.Context) error {
	h := &groupHandler{handler: c.handler, log: c.log}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.log.Error("consumer group session failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler Handler
	log     *zap.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handler(sess.Context(), msg.Value); err != nil {
				// Leave the offset unmarked so the broker redelivers.
				h.log.Error("message handling failed",
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				continue
			}
			sess.MarkMessage(msg, "")
		}
	}
}
