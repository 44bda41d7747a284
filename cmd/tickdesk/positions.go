package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tickdesk/internal/chain"
	"tickdesk/internal/config"
	"tickdesk/internal/price"
	"tickdesk/internal/store"
	"tickdesk/internal/valuation"
)

func runPositions(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Owner == "" {
		return fmt.Errorf("owner address is required")
	}
	pairs, err := parsePairs(cfg.Pairs)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(chain.Config{
		NodeURL:      cfg.NodeURL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Timeout:      cfg.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	tickStore := store.New(client, logger)
	snapshot, err := tickStore.Refresh(ctx, cfg.Owner, pairs)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	values, err := valuation.ComputeShareValues(snapshot.Shares, snapshot.Ticks)
	if err != nil {
		return fmt.Errorf("compute share values: %w", err)
	}

	logger.Info("positions loaded",
		zap.String("owner", cfg.Owner),
		zap.Int("shares", len(snapshot.Shares)),
		zap.Int("ticks", len(snapshot.Ticks)),
	)

	for _, v := range values {
		fmt.Printf("%s  reserves0=%s  reserves1=%s\n",
			v.Share.Key(), v.UserReserves0, v.UserReserves1)
	}

	totals := valuation.AggregateByPair(values)
	for pair, total := range totals {
		fmt.Printf("%s  total0=%s  total1=%s  ticks=%d\n",
			pair, total.Reserves0, total.Reserves1, total.Ticks)
	}

	if cfg.PriceURL == "" {
		return nil
	}

	fetcher, err := price.NewHTTPFetcher(cfg.PriceURL, cfg.Timeout)
	if err != nil {
		return err
	}
	cache := price.NewCache(fetcher, cfg.PriceWindow, logger)

	tokens := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		tokens = append(tokens, pair.Token0, pair.Token1)
	}
	unsubscribe := cache.Subscribe(tokens)
	defer unsubscribe()

	if err := cache.Flush(ctx); err != nil {
		logger.Warn("price fetch failed, values reported unpriced", zap.Error(err))
	}

	nominal := valuation.ComputeNominalValue(values, cache.Snapshot())
	fmt.Printf("value0=%s  value1=%s\n", nominal.Value0, nominal.Value1)
	if len(nominal.Unpriced) > 0 {
		fmt.Printf("unpriced tokens: %v\n", nominal.Unpriced)
	}

	return nil
}
