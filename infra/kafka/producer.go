package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes order payloads to the orders topic. It is used by
// the trader boundary; the exchange daemon only consumes.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Send publishes one payload. Keying by instrument keeps all orders
// for one instrument on one partition, so the book sees them in
// submission order.
func (p *Producer) Send(ctx context.Context, instrument string, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(instrument),
		Value: payload,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
