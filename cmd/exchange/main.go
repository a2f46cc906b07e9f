package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pit/config"
	"pit/domain/exchange"
	"pit/infra/kafka"
	"pit/infra/outbox"
	"pit/infra/sequence"
	"pit/jobs/broadcaster"
	"pit/logging"
	"pit/service"
)

func main() {
	var envPath string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Run the matching exchange daemon",
		Long: "Consumes order messages from the orders topic, matches them against\n" +
			"per-instrument books and publishes executed trades to the trades topic.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envPath)
		},
	}
	cmd.Flags().StringVar(&envPath, "env", "", "path to an optional .env file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envPath string) error {
	cfg := config.Load(envPath)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		return fmt.Errorf("outbox init failed: %w", err)
	}
	defer ob.Close()

	// ---------------- Domain ----------------

	ex := exchange.New(cfg.Instruments)
	seq := sequence.New(0)
	svc := service.New(ex, seq, ob, log)

	// ---------------- Broadcaster ----------------

	pub, err := broadcaster.NewSaramaPublisher(cfg.Brokers, cfg.TradesTopic)
	if err != nil {
		return fmt.Errorf("trade publisher init failed: %w", err)
	}
	defer pub.Close()

	bc := broadcaster.New(ob, pub, cfg.BroadcastInterval, log)
	go bc.Run(ctx)

	// ---------------- Ingress ----------------

	consumer, err := kafka.NewConsumer(cfg.Brokers, cfg.GroupID, cfg.OrdersTopic, svc.HandleOrder, log)
	if err != nil {
		return fmt.Errorf("order consumer init failed: %w", err)
	}
	defer consumer.Close()

	log.Info("exchange is running",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("orders_topic", cfg.OrdersTopic),
		zap.String("trades_topic", cfg.TradesTopic),
		zap.Strings("instruments", cfg.Instruments),
	)

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("exchange stopped")
	return nil
}
