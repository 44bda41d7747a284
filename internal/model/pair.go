package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PairKey identifies a market by its canonically ordered token addresses.
// The ordering rule is owned by the chain; the client never re-derives it.
type PairKey struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
}

func (p PairKey) String() string {
	return p.Token0 + "<>" + p.Token1
}

// TickKey is the exact-match lookup key for a price bucket:
// pair, both side prices, and the fee tier. Prices and fee are stored
// in canonical decimal string form so that formatting differences in
// query responses never split a key.
type TickKey struct {
	Pair   PairKey `json:"pair"`
	Price0 string  `json:"price0"`
	Price1 string  `json:"price1"`
	Fee    string  `json:"fee"`
}

// NewTickKey canonicalises prices and fee through decimal normalisation.
func NewTickKey(pair PairKey, price0, price1, fee decimal.Decimal) TickKey {
	return TickKey{
		Pair:   pair,
		Price0: canonical(price0),
		Price1: canonical(price1),
		Fee:    canonical(fee),
	}
}

func (k TickKey) String() string {
	return fmt.Sprintf("%s@%s/%s fee=%s", k.Pair, k.Price0, k.Price1, k.Fee)
}

// canonical renders a decimal without trailing fractional zeros, so
// "1.50" and "1.5" map to the same key.
func canonical(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
