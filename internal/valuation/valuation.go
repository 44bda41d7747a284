// Package valuation computes the pro-rata token entitlement of a
// user's shares against an immutable tick snapshot, and prices it.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"

	"tickdesk/internal/model"
)

// reserveScale bounds the fractional digits of pro-rata divisions.
const reserveScale int32 = 27

// ComputeShareValues resolves each share against its tick by exact
// (pair, price0, price1, fee) key and derives the user's reserves.
//
// A share whose tick is absent from the snapshot means the snapshot is
// stale or corrupt; that is an invariant violation, not something to
// drop silently. A zero total-shares denominator is a defined transient
// state (pool fully drained) and values the user's side at zero.
func ComputeShareValues(shares []model.Share, ticks []model.Tick) ([]model.TickShareValue, error) {
	byKey := make(map[model.TickKey]model.Tick, len(ticks))
	for _, tick := range ticks {
		byKey[tick.Key()] = tick
	}

	values := make([]model.TickShareValue, 0, len(shares))
	for _, share := range shares {
		tick, ok := byKey[share.Key()]
		if !ok {
			return nil, model.Invariantf("share %s has no matching tick", share.Key())
		}
		values = append(values, model.TickShareValue{
			Share:         share,
			Tick:          tick,
			UserReserves0: proRata(tick.Reserves0, share.Shares0, tick.TotalShares0),
			UserReserves1: proRata(tick.Reserves1, share.Shares1, tick.TotalShares1),
		})
	}
	return values, nil
}

// proRata returns reserves * shares / totalShares, or zero when the
// pool side has no issued shares.
func proRata(reserves, shares, totalShares decimal.Decimal) decimal.Decimal {
	if totalShares.Sign() == 0 {
		return decimal.Zero
	}
	return reserves.Mul(shares).DivRound(totalShares, reserveScale)
}

// NominalValue is the price-weighted worth of a set of share values.
// Tokens with no known unit price contribute zero to the totals and
// are listed in Unpriced so the caller can tell "worth zero" apart
// from "not priced".
type NominalValue struct {
	Value0   decimal.Decimal
	Value1   decimal.Decimal
	Unpriced []string
}

// ComputeNominalValue multiplies each side's user reserves by the
// externally supplied unit price of its token. Totals are always
// finite and deterministic for priced tokens.
func ComputeNominalValue(values []model.TickShareValue, priceByToken map[string]decimal.Decimal) NominalValue {
	nominal := NominalValue{Value0: decimal.Zero, Value1: decimal.Zero}
	unpriced := make(map[string]struct{})

	for _, v := range values {
		if price, ok := priceByToken[v.Tick.Pair.Token0]; ok {
			nominal.Value0 = nominal.Value0.Add(v.UserReserves0.Mul(price))
		} else {
			unpriced[v.Tick.Pair.Token0] = struct{}{}
		}
		if price, ok := priceByToken[v.Tick.Pair.Token1]; ok {
			nominal.Value1 = nominal.Value1.Add(v.UserReserves1.Mul(price))
		} else {
			unpriced[v.Tick.Pair.Token1] = struct{}{}
		}
	}

	for token := range unpriced {
		nominal.Unpriced = append(nominal.Unpriced, token)
	}
	sort.Strings(nominal.Unpriced)
	return nominal
}

// PairTotal holds the per-pair sums of a user's reserves. Sums are
// independent per side; a long in one tick never offsets a short in
// another.
type PairTotal struct {
	Reserves0 decimal.Decimal
	Reserves1 decimal.Decimal
	Ticks     int
}

// AggregateByPair sums user reserves across all ticks of each pair.
func AggregateByPair(values []model.TickShareValue) map[model.PairKey]PairTotal {
	totals := make(map[model.PairKey]PairTotal)
	for _, v := range values {
		total, ok := totals[v.Tick.Pair]
		if !ok {
			total = PairTotal{Reserves0: decimal.Zero, Reserves1: decimal.Zero}
		}
		total.Reserves0 = total.Reserves0.Add(v.UserReserves0)
		total.Reserves1 = total.Reserves1.Add(v.UserReserves1)
		total.Ticks++
		totals[v.Tick.Pair] = total
	}
	return totals
}
