// Package tickmath converts between integer tick indexes and decimal
// prices under the law price = 1.0001^index. All arithmetic is fixed
// decimal; native floats would drift across tens of thousands of ticks
// and break the round-trip guarantee.
package tickmath

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// MinTick and MaxTick bound the supported index range.
	MinTick int64 = -887272
	MaxTick int64 = 887272

	// workingScale is the number of fractional digits kept between
	// multiplication steps. Prices at the range edges sit near 1e±39,
	// so 80 fractional digits leave ample significant digits for the
	// nearest-integer inverse to land exactly.
	workingScale int32 = 80

	lnPrecision int32 = 45
)

var (
	ErrTickOutOfBounds  = errors.New("tick index out of bounds")
	ErrNonPositivePrice = errors.New("price must be positive")

	one  = decimal.New(1, 0)
	base = decimal.New(10001, -4) // 1.0001

	lnBase = mustLn(base)
)

func mustLn(d decimal.Decimal) decimal.Decimal {
	ln, err := d.Ln(lnPrecision)
	if err != nil {
		panic(err)
	}
	return ln
}

// PriceFromTick returns 1.0001^index, computed by exponentiation by
// squaring with bounded intermediate scale.
func PriceFromTick(index int64) (decimal.Decimal, error) {
	if index < MinTick || index > MaxTick {
		return decimal.Zero, ErrTickOutOfBounds
	}
	if index == 0 {
		return one, nil
	}

	n := index
	if n < 0 {
		n = -n
	}

	result := one
	sq := base
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(sq).Round(workingScale)
		}
		n >>= 1
		if n > 0 {
			sq = sq.Mul(sq).Round(workingScale)
		}
	}

	if index < 0 {
		result = one.DivRound(result, workingScale)
	}
	return result, nil
}

// TickFromPrice returns the tick index whose price is nearest to the
// given price: round(ln(price) / ln(1.0001)). For any in-range index n,
// TickFromPrice(PriceFromTick(n)) == n.
func TickFromPrice(price decimal.Decimal) (int64, error) {
	if price.Sign() <= 0 {
		return 0, ErrNonPositivePrice
	}

	lnPrice, err := price.Ln(lnPrecision)
	if err != nil {
		return 0, err
	}

	index := lnPrice.DivRound(lnBase, 12).Round(0)
	if !index.IsInteger() {
		return 0, errors.New("tick rounding produced a non-integer")
	}

	n := index.IntPart()
	if n < MinTick || n > MaxTick {
		return 0, ErrTickOutOfBounds
	}
	return n, nil
}

// AlignPrice snaps an arbitrary positive price to the nearest valid
// tick boundary, returning the index and its exact boundary price.
func AlignPrice(price decimal.Decimal) (int64, decimal.Decimal, error) {
	index, err := TickFromPrice(price)
	if err != nil {
		return 0, decimal.Zero, err
	}
	aligned, err := PriceFromTick(index)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return index, aligned, nil
}
