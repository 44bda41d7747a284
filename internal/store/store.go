// Package store holds the client's read-only view of on-chain ticks
// and shares. Each refresh produces an immutable snapshot; edits never
// mutate it, they only mark pairs stale for the next refresh.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tickdesk/internal/model"
)

// QueryClient reads pool state from the chain.
type QueryClient interface {
	QueryTicks(ctx context.Context, pair model.PairKey) ([]model.Tick, error)
	QueryShares(ctx context.Context, owner string, pair *model.PairKey) ([]model.Share, error)
}

// Snapshot is one consistent fetch of ticks and shares. Value
// semantics throughout: callers never mutate it.
type Snapshot struct {
	Ticks     []model.Tick
	Shares    []model.Share
	FetchedAt time.Time

	byKey map[model.TickKey]model.Tick
}

// NewSnapshot indexes the ticks for exact-key lookup.
func NewSnapshot(ticks []model.Tick, shares []model.Share, fetchedAt time.Time) *Snapshot {
	byKey := make(map[model.TickKey]model.Tick, len(ticks))
	for _, tick := range ticks {
		byKey[tick.Key()] = tick
	}
	return &Snapshot{
		Ticks:     ticks,
		Shares:    shares,
		FetchedAt: fetchedAt,
		byKey:     byKey,
	}
}

// Tick returns the tick for an exact key, if present.
func (s *Snapshot) Tick(key model.TickKey) (model.Tick, bool) {
	tick, ok := s.byKey[key]
	return tick, ok
}

// Store fetches and caches snapshots and tracks which pairs a
// successful submission has made stale. Reads are not synchronised
// with in-flight submissions; the caller refreshes before a new edit.
type Store struct {
	client QueryClient
	logger *zap.Logger

	mu      sync.RWMutex
	current *Snapshot
	stale   map[model.PairKey]struct{}
}

// New builds a Store around a query client.
func New(client QueryClient, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		logger: logger,
		stale:  make(map[model.PairKey]struct{}),
	}
}

// Refresh fetches ticks for every pair plus the owner's shares and
// installs a fresh snapshot, clearing all staleness marks.
func (s *Store) Refresh(ctx context.Context, owner string, pairs []model.PairKey) (*Snapshot, error) {
	if s.client == nil {
		return nil, fmt.Errorf("query client is nil")
	}

	ticks := make([]model.Tick, 0)
	for _, pair := range pairs {
		pairTicks, err := s.client.QueryTicks(ctx, pair)
		if err != nil {
			return nil, fmt.Errorf("query ticks %s: %w", pair, err)
		}
		ticks = append(ticks, pairTicks...)
	}

	shares, err := s.client.QueryShares(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("query shares for %s: %w", owner, err)
	}

	snapshot := NewSnapshot(ticks, shares, time.Now().UTC())

	s.mu.Lock()
	s.current = snapshot
	s.stale = make(map[model.PairKey]struct{})
	s.mu.Unlock()

	s.logger.Debug("snapshot refreshed",
		zap.Int("ticks", len(ticks)),
		zap.Int("shares", len(shares)),
	)
	return snapshot, nil
}

// Current returns the installed snapshot, if any.
func (s *Store) Current() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Invalidate marks the pairs behind the given tick keys stale. The
// store does not refetch on its own; it only remembers what a
// submission touched.
func (s *Store) Invalidate(keys []model.TickKey) {
	if len(keys) == 0 {
		return
	}
	s.mu.Lock()
	for _, key := range keys {
		s.stale[key.Pair] = struct{}{}
	}
	s.mu.Unlock()
}

// StalePairs reports which pairs need a refetch before the next edit.
func (s *Store) StalePairs() []model.PairKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairs := make([]model.PairKey, 0, len(s.stale))
	for pair := range s.stale {
		pairs = append(pairs, pair)
	}
	return pairs
}
