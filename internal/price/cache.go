// Package price provides unit prices for tokens through an explicit,
// injectable cache. Subscribers register the tokens they care about;
// fetches are batched on a bounded window and deduplicated across
// subscribers, so request volume stays constant no matter how many
// components ask for overlapping sets. A price that has not arrived
// yet is simply absent; callers treat the token as unpriced.
package price

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fetcher retrieves unit prices for a token batch. Tokens missing from
// the result are left unpriced.
type Fetcher interface {
	FetchPrices(ctx context.Context, tokens []string) (map[string]decimal.Decimal, error)
}

// Cache batches and caches unit-price lookups.
type Cache struct {
	fetcher Fetcher
	window  time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	refcount map[string]int
	prices   map[string]decimal.Decimal
}

// NewCache builds a cache. The window bounds how often Run flushes
// pending subscriptions to the fetcher.
func NewCache(fetcher Fetcher, window time.Duration, logger *zap.Logger) *Cache {
	if window <= 0 {
		window = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		fetcher:  fetcher,
		window:   window,
		logger:   logger,
		refcount: make(map[string]int),
		prices:   make(map[string]decimal.Decimal),
	}
}

// Subscribe registers interest in a token set and returns an
// unsubscribe function. Tokens stay in the fetch set while at least
// one subscriber references them.
func (c *Cache) Subscribe(tokens []string) func() {
	c.mu.Lock()
	for _, token := range tokens {
		c.refcount[token]++
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			for _, token := range tokens {
				c.refcount[token]--
				if c.refcount[token] <= 0 {
					delete(c.refcount, token)
				}
			}
			c.mu.Unlock()
		})
	}
}

// GetUnitPrice returns the cached price for a token. A missing price
// is reported, never invented.
func (c *Cache) GetUnitPrice(token string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.prices[token]
	return p, ok
}

// Snapshot returns a copy of all cached prices, keyed by token.
func (c *Cache) Snapshot() map[string]decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(c.prices))
	for token, p := range c.prices {
		out[token] = p
	}
	return out
}

// Flush fetches prices for every currently subscribed token in one
// deduplicated batch. Safe to call directly; Run calls it on the
// window ticker.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	tokens := make([]string, 0, len(c.refcount))
	for token := range c.refcount {
		tokens = append(tokens, token)
	}
	c.mu.Unlock()

	if len(tokens) == 0 || c.fetcher == nil {
		return nil
	}
	sort.Strings(tokens)

	fetched, err := c.fetcher.FetchPrices(ctx, tokens)
	if err != nil {
		c.logger.Warn("price fetch failed", zap.Int("tokens", len(tokens)), zap.Error(err))
		return err
	}

	c.mu.Lock()
	for token, p := range fetched {
		c.prices[token] = p
	}
	c.mu.Unlock()

	c.logger.Debug("prices refreshed",
		zap.Int("requested", len(tokens)),
		zap.Int("received", len(fetched)),
	)
	return nil
}

// Run flushes on the batching window until the context ends. Fetch
// failures are logged and the loop keeps going; a late price is not an
// error, the token just stays unpriced for now.
func (c *Cache) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = c.Flush(ctx)
		}
	}
}
