// Package config loads process configuration from the environment.
// Priority: ENV > .env file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Brokers is the Kafka bootstrap list.
	Brokers []string
	// OrdersTopic carries inbound orders, TradesTopic outbound trades.
	OrdersTopic string
	TradesTopic string
	// GroupID names the exchange's consumer group.
	GroupID string
	// Instruments is the fixed set of symbols the exchange opens a
	// book for. It does not change for the process lifetime.
	Instruments []string
	// OutboxDir is the pebble directory for the trade outbox.
	OutboxDir string
	// BroadcastInterval paces the outbox drain loop.
	BroadcastInterval time.Duration
}

func Default() Config {
	return Config{
		Brokers:           []string{"localhost:9092"},
		OrdersTopic:       "orders",
		TradesTopic:       "trades",
		GroupID:           "pit-exchange",
		Instruments:       []string{"AAPL", "GOOG", "MSFT", "TSLA"},
		OutboxDir:         "./outbox",
		BroadcastInterval: 250 * time.Millisecond,
	}
}

// Load reads an optional .env file, then the environment.
func Load(envPath string) Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := Default()
	if v := os.Getenv("PIT_BROKERS"); v != "" {
		cfg.Brokers = splitList(v)
	}
	if v := os.Getenv("PIT_ORDERS_TOPIC"); v != "" {
		cfg.OrdersTopic = v
	}
	if v := os.Getenv("PIT_TRADES_TOPIC"); v != "" {
		cfg.TradesTopic = v
	}
	if v := os.Getenv("PIT_GROUP_ID"); v != "" {
		cfg.GroupID = v
	}
	if v := os.Getenv("PIT_INSTRUMENTS"); v != "" {
		cfg.Instruments = splitList(v)
	}
	if v := os.Getenv("PIT_OUTBOX_DIR"); v != "" {
		cfg.OutboxDir = v
	}
	if v := os.Getenv("PIT_BROADCAST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BroadcastInterval = d
		}
	}
	return cfg
}

// Validate rejects configurations the exchange cannot start with.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("config: at least one broker is required")
	}
	if c.OrdersTopic == "" || c.TradesTopic == "" {
		return fmt.Errorf("config: orders and trades topics are required")
	}
	if c.OrdersTopic == c.TradesTopic {
		return fmt.Errorf("config: orders and trades topics must differ")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("config: at least one instrument is required")
	}
	if c.OutboxDir == "" {
		return fmt.Errorf("config: outbox directory is required")
	}
	return nil
}

// HasInstrument reports whether sym is a configured symbol.
func (c Config) HasInstrument(sym string) bool {
	for _, s := range c.Instruments {
		if s == sym {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
