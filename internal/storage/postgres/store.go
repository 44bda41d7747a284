package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tickdesk/internal/model"
	"tickdesk/internal/storage"
)

var _ storage.Journal = (*Store)(nil)

// Store provides Postgres persistence for submitted edit records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertEditRecords stores a batch of edit records, keyed by tx hash.
func (s *Store) InsertEditRecords(ctx context.Context, records []model.EditRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO edit_records (
				tx_hash, owner, pair, deposits, withdrawals, code, gas_used,
				raw_log, received0, received1, submitted_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (tx_hash)
			DO UPDATE SET
				code = EXCLUDED.code,
				gas_used = EXCLUDED.gas_used,
				raw_log = EXCLUDED.raw_log
		`,
			r.TxHash,
			r.Owner,
			r.Pair,
			r.Deposits,
			r.Withdrawals,
			int64(r.Code),
			r.GasUsed,
			r.RawLog,
			r.Received0,
			r.Received1,
			r.SubmittedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LastSubmission returns the most recent submission time recorded for
// an owner.
func (s *Store) LastSubmission(ctx context.Context, owner string) (string, bool, error) {
	if owner == "" {
		return "", false, fmt.Errorf("owner is required")
	}
	var submittedAt string
	row := s.pool.QueryRow(ctx, `
		SELECT submitted_at FROM edit_records
		WHERE owner=$1
		ORDER BY submitted_at DESC
		LIMIT 1
	`, owner)
	if err := row.Scan(&submittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return submittedAt, true, nil
}

// AppendEditRecords adapts the store to the storage.Journal interface.
func (s *Store) AppendEditRecords(records []model.EditRecord) error {
	return s.InsertEditRecords(context.Background(), records)
}
