// Package chain talks to the DEX chain's REST endpoints: pool/share
// queries and the external signer's broadcast service. Query reads get
// bounded exponential-backoff retries; broadcast never retries.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tickdesk/internal/model"
)

// Config holds client settings.
type Config struct {
	NodeURL      string
	SignerURL    string
	MaxRetries   int
	RetryBackoff time.Duration
	Timeout      time.Duration
}

// Client wraps the chain's REST API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient validates the config and builds a client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.NodeURL == "" {
		return nil, fmt.Errorf("node url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

type tickDTO struct {
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	Price0       string `json:"price0"`
	Price1       string `json:"price1"`
	Fee          string `json:"fee"`
	Reserves0    string `json:"reserves0"`
	Reserves1    string `json:"reserves1"`
	TotalShares0 string `json:"total_shares0"`
	TotalShares1 string `json:"total_shares1"`
}

type shareDTO struct {
	Owner   string `json:"owner"`
	Token0  string `json:"token0"`
	Token1  string `json:"token1"`
	Price0  string `json:"price0"`
	Price1  string `json:"price1"`
	Fee     string `json:"fee"`
	Shares0 string `json:"shares0"`
	Shares1 string `json:"shares1"`
}

// QueryTicks returns all ticks of a pair.
func (c *Client) QueryTicks(ctx context.Context, pair model.PairKey) ([]model.Tick, error) {
	query := url.Values{}
	query.Set("token0", pair.Token0)
	query.Set("token1", pair.Token1)

	var resp struct {
		Ticks []tickDTO `json:"ticks"`
	}
	if err := c.getWithRetry(ctx, c.cfg.NodeURL+"/dex/ticks?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}

	ticks := make([]model.Tick, 0, len(resp.Ticks))
	for _, dto := range resp.Ticks {
		tick, err := dto.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode tick: %w", err)
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

// QueryShares returns the owner's share records, optionally filtered
// to one pair.
func (c *Client) QueryShares(ctx context.Context, owner string, pair *model.PairKey) ([]model.Share, error) {
	query := url.Values{}
	query.Set("owner", owner)
	if pair != nil {
		query.Set("token0", pair.Token0)
		query.Set("token1", pair.Token1)
	}

	var resp struct {
		Shares []shareDTO `json:"shares"`
	}
	if err := c.getWithRetry(ctx, c.cfg.NodeURL+"/dex/shares?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}

	shares := make([]model.Share, 0, len(resp.Shares))
	for _, dto := range resp.Shares {
		share, err := dto.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode share: %w", err)
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string, out any) error {
	return withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		err := c.getJSON(ctx, rawURL, out)
		if err != nil {
			c.logger.Warn("query failed", zap.String("url", rawURL), zap.Error(err))
		}
		return err
	})
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return json.Unmarshal(body, out)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func (d tickDTO) toModel() (model.Tick, error) {
	fields, err := parseDecimals(map[string]string{
		"price0":        d.Price0,
		"price1":        d.Price1,
		"fee":           d.Fee,
		"reserves0":     d.Reserves0,
		"reserves1":     d.Reserves1,
		"total_shares0": d.TotalShares0,
		"total_shares1": d.TotalShares1,
	})
	if err != nil {
		return model.Tick{}, err
	}
	return model.Tick{
		Pair:         model.PairKey{Token0: d.Token0, Token1: d.Token1},
		Price0:       fields["price0"],
		Price1:       fields["price1"],
		Fee:          fields["fee"],
		Reserves0:    fields["reserves0"],
		Reserves1:    fields["reserves1"],
		TotalShares0: fields["total_shares0"],
		TotalShares1: fields["total_shares1"],
	}, nil
}

func (d shareDTO) toModel() (model.Share, error) {
	fields, err := parseDecimals(map[string]string{
		"price0":  d.Price0,
		"price1":  d.Price1,
		"fee":     d.Fee,
		"shares0": d.Shares0,
		"shares1": d.Shares1,
	})
	if err != nil {
		return model.Share{}, err
	}
	return model.Share{
		Owner:   d.Owner,
		Pair:    model.PairKey{Token0: d.Token0, Token1: d.Token1},
		Price0:  fields["price0"],
		Price1:  fields["price1"],
		Fee:     fields["fee"],
		Shares0: fields["shares0"],
		Shares1: fields["shares1"],
	}, nil
}

func parseDecimals(raw map[string]string) (map[string]decimal.Decimal, error) {
	parsed := make(map[string]decimal.Decimal, len(raw))
	for name, value := range raw {
		if value == "" {
			parsed[name] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		parsed[name] = d
	}
	return parsed, nil
}
