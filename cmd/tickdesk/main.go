package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tickdesk/internal/model"
	"tickdesk/internal/tickmath"
)

func main() {
	root := &cobra.Command{
		Use:          "tickdesk",
		Short:        "Trading client for a tick-indexed liquidity DEX",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Show the owner's share positions and their value",
		RunE:  runPositions,
	}

	positionsCmd.Flags().String("node-url", "", "chain REST endpoint")
	positionsCmd.Flags().String("price-url", "", "price API endpoint (optional)")
	positionsCmd.Flags().String("owner", "", "owner address")
	positionsCmd.Flags().StringSlice("pair", nil, "pairs as token0/token1 (comma-separated)")
	positionsCmd.Flags().Int("max-retries", 5, "maximum query retry attempts")
	positionsCmd.Flags().Duration("retry-backoff", 0, "initial query retry backoff")
	positionsCmd.Flags().Duration("timeout", 0, "per-request timeout")
	positionsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(positionsCmd)

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Plan and submit a position edit from a diff file",
		RunE:  runEdit,
	}

	editCmd.Flags().String("node-url", "", "chain REST endpoint")
	editCmd.Flags().String("signer-url", "", "signing service endpoint")
	editCmd.Flags().String("owner", "", "owner address")
	editCmd.Flags().String("diffs", "", "JSON file with per-tick token diffs")
	editCmd.Flags().Bool("dry-run", false, "plan and print operations without submitting")
	editCmd.Flags().String("journal", "", "JSONL journal path for submitted edits")
	editCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for edit records")
	editCmd.Flags().Int("max-retries", 5, "maximum query retry attempts")
	editCmd.Flags().Duration("retry-backoff", 0, "initial query retry backoff")
	editCmd.Flags().Duration("timeout", 0, "per-request timeout")
	editCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(editCmd)

	tickCmd := &cobra.Command{
		Use:   "tick",
		Short: "Convert between tick index and price",
		RunE:  runTick,
	}

	tickCmd.Flags().Int64("index", 0, "tick index to convert to a price")
	tickCmd.Flags().String("price", "", "price to align to the nearest tick")

	root.AddCommand(tickCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTick(cmd *cobra.Command, _ []string) error {
	rawPrice, _ := cmd.Flags().GetString("price")
	if rawPrice != "" {
		price, err := decimal.NewFromString(rawPrice)
		if err != nil {
			return fmt.Errorf("parse price: %w", err)
		}
		index, aligned, err := tickmath.AlignPrice(price)
		if err != nil {
			return err
		}
		fmt.Printf("index: %d\nprice: %s\n", index, aligned)
		return nil
	}

	index, _ := cmd.Flags().GetInt64("index")
	price, err := tickmath.PriceFromTick(index)
	if err != nil {
		return err
	}
	fmt.Printf("price: %s\n", price)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func parsePairs(raw []string) ([]model.PairKey, error) {
	pairs := make([]model.PairKey, 0, len(raw))
	for _, item := range raw {
		parts := strings.Split(item, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid pair %q, want token0/token1", item)
		}
		pairs = append(pairs, model.PairKey{Token0: parts[0], Token1: parts[1]})
	}
	return pairs, nil
}
