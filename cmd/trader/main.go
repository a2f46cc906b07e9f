package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pit/api/wire"
	"pit/config"
	"pit/domain/exchange"
	"pit/infra/kafka"
)

// Every order carries the same quantity; sizing is a policy of this
// boundary, not of the matching core.
const fixedQuantity = 100

func main() {
	var envPath string

	cmd := &cobra.Command{
		Use:   "trader <username> <stock> <BUY|SELL> <price>",
		Short: "Publish one order to the exchange",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envPath, args)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&envPath, "env", "", "path to an optional .env file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Input Error:", err)
		os.Exit(1)
	}
}

func run(envPath string, args []string) error {
	cfg := config.Load(envPath)
	if err := cfg.Validate(); err != nil {
		return err
	}

	order, err := buildOrder(cfg, args)
	if err != nil {
		return err
	}

	payload, err := wire.EncodeOrder(order)
	if err != nil {
		return err
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.OrdersTopic)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := producer.Send(ctx, order.Instrument, payload); err != nil {
		return fmt.Errorf("sending order: %w", err)
	}

	fmt.Printf("Order submitted: %s %s %s @ %s x %d (id %s)\n",
		order.Trader, order.Side, order.Instrument, order.Price, order.Quantity, order.ID)
	return nil
}

// buildOrder validates the positional arguments and assigns the order
// id. The id is mandatory at creation time: removal after a match is
// keyed on it.
func buildOrder(cfg config.Config, args []string) (*exchange.Order, error) {
	username, stock, sideArg, priceArg := args[0], args[1], args[2], args[3]

	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username must be a non-empty string")
	}
	if !cfg.HasInstrument(stock) {
		return nil, fmt.Errorf("invalid stock symbol %q, available stocks: %s",
			stock, strings.Join(cfg.Instruments, ", "))
	}
	side, ok := exchange.ParseSide(sideArg)
	if !ok {
		return nil, fmt.Errorf(`side must be either "BUY" or "SELL"`)
	}
	price, err := decimal.NewFromString(priceArg)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("price must be a positive number")
	}

	return &exchange.Order{
		ID:         uuid.NewString(),
		Trader:     username,
		Instrument: stock,
		Side:       side,
		Price:      price,
		Quantity:   fixedQuantity,
	}, nil
}
