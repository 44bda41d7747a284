package model

import "github.com/shopspring/decimal"

// Tick is one price/fee bucket of a pool as reported by the chain.
// Reserves are the pool-wide token balances held in the bucket;
// TotalShares0/TotalShares1 are the total issued ownership units per
// side across all owners, supplied by the query layer. The client only
// ever reads a snapshot; state transitions happen on chain.
type Tick struct {
	Pair         PairKey         `json:"pair"`
	Price0       decimal.Decimal `json:"price0"`
	Price1       decimal.Decimal `json:"price1"`
	Fee          decimal.Decimal `json:"fee"`
	Reserves0    decimal.Decimal `json:"reserves0"`
	Reserves1    decimal.Decimal `json:"reserves1"`
	TotalShares0 decimal.Decimal `json:"total_shares0"`
	TotalShares1 decimal.Decimal `json:"total_shares1"`
}

// Key returns the exact-match lookup key for this tick.
func (t Tick) Key() TickKey {
	return NewTickKey(t.Pair, t.Price0, t.Price1, t.Fee)
}
