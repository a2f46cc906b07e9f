// Package broadcaster drains the trade outbox to the trades topic.
package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"pit/infra/outbox"
)

// Publisher sends one trade payload to the downstream sink.
type Publisher interface {
	Publish(payload []byte) error
}

// SaramaPublisher publishes through a synchronous Kafka producer.
type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaPublisher(brokers []string, topic string) (*SaramaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &SaramaPublisher{producer: producer, topic: topic}, nil
}

func (p *SaramaPublisher) Publish(payload []byte) error {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}

// Broadcaster replays pending outbox records to the publisher on a
// fixed interval. A record is marked SENT before the publish attempt
// and ACKED after it, so a crash in between means a duplicate
// downstream, never a lost trade.
type Broadcaster struct {
	outbox   *outbox.Outbox
	pub      Publisher
	interval time.Duration
	log      *zap.Logger
}

func New(ob *outbox.Outbox, pub Publisher, interval time.Duration, log *zap.Logger) *Broadcaster {
	return &Broadcaster{outbox: ob, pub: pub, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.Duration("interval", b.interval))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.flushOnce()
		}
	}
}

func (b *Broadcaster) flushOnce() {
	err := b.outbox.ScanPending(func(rec outbox.Record) error {
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}
		if err := b.pub.Publish(rec.Payload); err != nil {
			// Broker unavailable: leave the record SENT and retry
			// on a later tick.
			b.log.Warn("trade publish failed",
				zap.Uint64("outbox_seq", rec.Seq),
				zap.Uint32("attempts", rec.Attempts+1),
				zap.Error(err))
			return nil
		}
		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
		return
	}

	if n, err := b.outbox.TruncateAcked(); err != nil {
		b.log.Error("outbox truncate failed", zap.Error(err))
	} else if n > 0 {
		b.log.Debug("outbox truncated", zap.Int("removed", n))
	}
}
