package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tickdesk/internal/chain"
	"tickdesk/internal/config"
	"tickdesk/internal/model"
	"tickdesk/internal/planner"
	"tickdesk/internal/storage"
	"tickdesk/internal/storage/postgres"
	"tickdesk/internal/store"
	"tickdesk/internal/txbuilder"
	"tickdesk/internal/valuation"
)

// diffEntry is one line of the user's diff file: which tick, and how
// much of each token to add (positive) or remove (negative).
type diffEntry struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Price0 string `json:"price0"`
	Price1 string `json:"price1"`
	Fee    string `json:"fee"`
	Diff0  string `json:"diff0"`
	Diff1  string `json:"diff1"`
}

func runEdit(cmd *cobra.Command, _ []string) error {
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
	diffPath, _ := cmd.Flags().GetString("diffs")
	if diffPath == "" {
		return fmt.Errorf("diff file is required")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	entries, err := loadDiffEntries(diffPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("diff file contains no entries")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(chain.Config{
		NodeURL:      cfg.NodeURL,
		SignerURL:    cfg.SignerURL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Timeout:      cfg.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	pairs := pairsOf(entries)
	tickStore := store.New(client, logger)
	snapshot, err := tickStore.Refresh(ctx, cfg.Owner, pairs)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	edits, err := buildEdits(entries, snapshot)
	if err != nil {
		return err
	}

	descriptors, err := planner.NewPlanner(logger).PlanEdits(edits)
	if err != nil {
		return fmt.Errorf("plan edits: %w", err)
	}
	if len(descriptors) == 0 {
		fmt.Println("nothing to do: all diffs are zero")
		return nil
	}

	if dryRun {
		for _, desc := range descriptors {
			switch d := desc.(type) {
			case planner.DepositDescriptor:
				fmt.Printf("deposit  %s  amount0=%s amount1=%s\n", d.Key(), d.Amount0, d.Amount1)
			case planner.WithdrawDescriptor:
				fmt.Printf("withdraw %s  side=%d shares=%s\n", d.Key(), d.Side, d.SharesRemoving)
			}
		}
		return nil
	}

	journals, closeJournals, err := openJournals(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeJournals()

	broadcaster, err := chain.NewSignerBroadcaster(chain.Config{
		SignerURL: cfg.SignerURL,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return err
	}

	submitter := txbuilder.NewSubmitter(cfg.Owner, broadcaster, logger)
	result, err := submitter.Submit(ctx, descriptors)
	if err != nil {
		var rejection *txbuilder.ChainRejectionError
		if errors.As(err, &rejection) {
			journalErr := journalResult(journals, record(cfg.Owner, pairs, descriptors, nil, rejection))
			if journalErr != nil {
				logger.Warn("journal write failed", zap.Error(journalErr))
			}
			return fmt.Errorf("submit edit: %w", err)
		}
		return fmt.Errorf("submit edit: %w", err)
	}

	tickStore.Invalidate(result.Touched)

	if err := journalResult(journals, record(cfg.Owner, pairs, descriptors, result, nil)); err != nil {
		logger.Warn("journal write failed", zap.Error(err))
	}

	fmt.Printf("tx: %s\ngas used: %d\nreceived0: %s\nreceived1: %s\n",
		result.TxHash, result.GasUsed, result.Received0, result.Received1)
	return nil
}

func loadDiffEntries(path string) ([]diffEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diff file: %w", err)
	}
	var entries []diffEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse diff file: %w", err)
	}
	return entries, nil
}

func pairsOf(entries []diffEntry) []model.PairKey {
	seen := make(map[model.PairKey]struct{})
	pairs := make([]model.PairKey, 0, len(entries))
	for _, e := range entries {
		pair := model.PairKey{Token0: e.Token0, Token1: e.Token1}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	return pairs
}

// buildEdits resolves each diff entry against the snapshot: the share
// it refers to must exist, and its tick valuation is computed before
// planning so withdraw fractions invert the same numbers the chain
// will use.
func buildEdits(entries []diffEntry, snapshot *store.Snapshot) ([]model.EditedTickShareValue, error) {
	values, err := valuation.ComputeShareValues(snapshot.Shares, snapshot.Ticks)
	if err != nil {
		return nil, fmt.Errorf("compute share values: %w", err)
	}
	byKey := make(map[model.TickKey]model.TickShareValue, len(values))
	for _, v := range values {
		byKey[v.Share.Key()] = v
	}

	edits := make([]model.EditedTickShareValue, 0, len(entries))
	for _, e := range entries {
		price0, err := decimal.NewFromString(e.Price0)
		if err != nil {
			return nil, fmt.Errorf("price0 %q: %w", e.Price0, err)
		}
		price1, err := decimal.NewFromString(e.Price1)
		if err != nil {
			return nil, fmt.Errorf("price1 %q: %w", e.Price1, err)
		}
		fee, err := decimal.NewFromString(e.Fee)
		if err != nil {
			return nil, fmt.Errorf("fee %q: %w", e.Fee, err)
		}
		diff0, err := parseDiff(e.Diff0)
		if err != nil {
			return nil, fmt.Errorf("diff0 %q: %w", e.Diff0, err)
		}
		diff1, err := parseDiff(e.Diff1)
		if err != nil {
			return nil, fmt.Errorf("diff1 %q: %w", e.Diff1, err)
		}

		key := model.NewTickKey(model.PairKey{Token0: e.Token0, Token1: e.Token1}, price0, price1, fee)
		value, ok := byKey[key]
		if !ok {
			// Depositing into a tick the user holds no shares in yet is
			// legal; withdrawals need an existing position.
			if diff0.Sign() < 0 || diff1.Sign() < 0 {
				return nil, fmt.Errorf("no position at %s to withdraw from", key)
			}
			tick, tickOK := snapshot.Tick(key)
			if !tickOK {
				tick = model.Tick{
					Pair:   model.PairKey{Token0: e.Token0, Token1: e.Token1},
					Price0: price0,
					Price1: price1,
					Fee:    fee,
				}
			}
			value = model.TickShareValue{
				Share: model.Share{
					Pair:   tick.Pair,
					Price0: tick.Price0,
					Price1: tick.Price1,
					Fee:    tick.Fee,
				},
				Tick: tick,
			}
		}

		edits = append(edits, model.EditedTickShareValue{
			TickShareValue: value,
			TickDiff0:      diff0,
			TickDiff1:      diff1,
		})
	}
	return edits, nil
}

func parseDiff(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func record(owner string, pairs []model.PairKey, descriptors []planner.Descriptor, result *txbuilder.EditResult, rejection *txbuilder.ChainRejectionError) model.EditRecord {
	rec := model.EditRecord{
		Owner:       owner,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Received0:   decimal.Zero.String(),
		Received1:   decimal.Zero.String(),
	}
	if len(pairs) == 1 {
		rec.Pair = pairs[0].String()
	} else {
		rec.Pair = fmt.Sprintf("%d pairs", len(pairs))
	}
	for _, desc := range descriptors {
		switch desc.(type) {
		case planner.DepositDescriptor:
			rec.Deposits++
		case planner.WithdrawDescriptor:
			rec.Withdrawals++
		}
	}
	if result != nil {
		rec.TxHash = result.TxHash
		rec.GasUsed = result.GasUsed
		rec.Received0 = result.Received0.String()
		rec.Received1 = result.Received1.String()
		for _, key := range result.Touched {
			rec.Touched = append(rec.Touched, key.String())
		}
	}
	if rejection != nil {
		rec.TxHash = rejection.TxHash
		rec.Code = rejection.Code
		rec.RawLog = rejection.RawLog
	}
	return rec
}

// openJournals assembles the configured edit-record sinks. The
// returned close func releases the Postgres pool when one was opened.
func openJournals(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]storage.Journal, func(), error) {
	var journals []storage.Journal
	closeAll := func() {}

	if cfg.Journal != "" {
		journals = append(journals, storage.NewJsonlJournal(cfg.Journal))
	}

	if cfg.PgDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return nil, nil, err
		}
		closeAll = pgStore.Close
		journals = append(journals, pgStore)

		if at, ok, err := pgStore.LastSubmission(ctx, cfg.Owner); err != nil {
			logger.Warn("last submission lookup failed", zap.Error(err))
		} else if ok {
			logger.Info("previous submission on record", zap.String("submitted_at", at))
		}
	}

	return journals, closeAll, nil
}

func journalResult(journals []storage.Journal, rec model.EditRecord) error {
	for _, journal := range journals {
		if err := journal.AppendEditRecords([]model.EditRecord{rec}); err != nil {
			return err
		}
	}
	return nil
}
