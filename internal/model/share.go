package model

import "github.com/shopspring/decimal"

// Share is a user's ownership record in one tick. Shares0/Shares1 never
// exceed the tick's total issued shares for the matching side.
type Share struct {
	Owner   string          `json:"owner"`
	Pair    PairKey         `json:"pair"`
	Price0  decimal.Decimal `json:"price0"`
	Price1  decimal.Decimal `json:"price1"`
	Fee     decimal.Decimal `json:"fee"`
	Shares0 decimal.Decimal `json:"shares0"`
	Shares1 decimal.Decimal `json:"shares1"`
}

// Key returns the lookup key of the tick this share belongs to.
func (s Share) Key() TickKey {
	return NewTickKey(s.Pair, s.Price0, s.Price1, s.Fee)
}

// TickShareValue is the derived pro-rata view of one share: the slice
// of the tick's reserves the user's shares currently entitle them to.
// UserReservesN = Tick.ReservesN * Share.SharesN / Tick.TotalSharesN.
// Built fresh per valuation pass, never persisted.
type TickShareValue struct {
	Share         Share
	Tick          Tick
	UserReserves0 decimal.Decimal
	UserReserves1 decimal.Decimal
}

// EditedTickShareValue is a TickShareValue plus the caller's requested
// change in token exposure for the tick. Positive diffs add tokens,
// negative diffs remove them; the two sides are independent.
type EditedTickShareValue struct {
	TickShareValue
	TickDiff0 decimal.Decimal
	TickDiff1 decimal.Decimal
}
