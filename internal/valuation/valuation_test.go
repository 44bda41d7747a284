package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickdesk/internal/model"
)

var testPair = model.PairKey{Token0: "tokenA", Token1: "tokenB"}

func testTick(reserves0, reserves1, total0, total1 string) model.Tick {
	return model.Tick{
		Pair:         testPair,
		Price0:       decimal.RequireFromString("1.0001"),
		Price1:       decimal.RequireFromString("0.9999"),
		Fee:          decimal.RequireFromString("0.003"),
		Reserves0:    decimal.RequireFromString(reserves0),
		Reserves1:    decimal.RequireFromString(reserves1),
		TotalShares0: decimal.RequireFromString(total0),
		TotalShares1: decimal.RequireFromString(total1),
	}
}

func testShare(shares0, shares1 string) model.Share {
	return model.Share{
		Owner:   "owner1",
		Pair:    testPair,
		Price0:  decimal.RequireFromString("1.0001"),
		Price1:  decimal.RequireFromString("0.9999"),
		Fee:     decimal.RequireFromString("0.003"),
		Shares0: decimal.RequireFromString(shares0),
		Shares1: decimal.RequireFromString(shares1),
	}
}

func TestComputeShareValues(t *testing.T) {
	t.Run("pro rata reserves", func(t *testing.T) {
		values, err := ComputeShareValues(
			[]model.Share{testShare("100", "0")},
			[]model.Tick{testTick("1000", "0", "1000", "0")},
		)
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.True(t, values[0].UserReserves0.Equal(decimal.NewFromInt(100)),
			"got %s", values[0].UserReserves0)
		assert.True(t, values[0].UserReserves1.IsZero())
	})

	t.Run("user reserves bounded by tick reserves", func(t *testing.T) {
		cases := []struct {
			name    string
			shares0 string
			total0  string
		}{
			{"full ownership", "1000", "1000"},
			{"partial ownership", "333", "1000"},
			{"tiny ownership", "1", "1000000"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				values, err := ComputeShareValues(
					[]model.Share{testShare(tc.shares0, "0")},
					[]model.Tick{testTick("12345.6789", "0", tc.total0, "0")},
				)
				require.NoError(t, err)
				got := values[0].UserReserves0
				assert.True(t, got.Sign() >= 0, "negative reserves %s", got)
				assert.True(t, got.LessThanOrEqual(decimal.RequireFromString("12345.6789")),
					"reserves %s exceed tick reserves", got)
			})
		}
	})

	t.Run("zero total shares yields zero, not an error", func(t *testing.T) {
		values, err := ComputeShareValues(
			[]model.Share{testShare("100", "50")},
			[]model.Tick{testTick("1000", "500", "0", "0")},
		)
		require.NoError(t, err)
		assert.True(t, values[0].UserReserves0.IsZero())
		assert.True(t, values[0].UserReserves1.IsZero())
	})

	t.Run("share without a tick is an invariant violation", func(t *testing.T) {
		orphan := testShare("100", "0")
		orphan.Fee = decimal.RequireFromString("0.01")

		_, err := ComputeShareValues([]model.Share{orphan}, []model.Tick{testTick("1000", "0", "1000", "0")})
		require.Error(t, err)
		var invariant *model.InvariantError
		assert.ErrorAs(t, err, &invariant)
	})
}

func TestComputeNominalValue(t *testing.T) {
	values, err := ComputeShareValues(
		[]model.Share{testShare("100", "200")},
		[]model.Tick{testTick("1000", "400", "1000", "400")},
	)
	require.NoError(t, err)

	t.Run("priced both sides", func(t *testing.T) {
		nominal := ComputeNominalValue(values, map[string]decimal.Decimal{
			"tokenA": decimal.NewFromInt(2),
			"tokenB": decimal.NewFromInt(3),
		})
		assert.True(t, nominal.Value0.Equal(decimal.NewFromInt(200)), "got %s", nominal.Value0)
		assert.True(t, nominal.Value1.Equal(decimal.NewFromInt(600)), "got %s", nominal.Value1)
		assert.Empty(t, nominal.Unpriced)
	})

	t.Run("unpriced token contributes zero and is reported", func(t *testing.T) {
		nominal := ComputeNominalValue(values, map[string]decimal.Decimal{
			"tokenA": decimal.NewFromInt(2),
		})
		assert.True(t, nominal.Value0.Equal(decimal.NewFromInt(200)))
		assert.True(t, nominal.Value1.IsZero())
		assert.Equal(t, []string{"tokenB"}, nominal.Unpriced)
	})
}

func TestAggregateByPair(t *testing.T) {
	tickA := testTick("1000", "0", "1000", "0")
	tickB := testTick("0", "800", "0", "800")
	tickB.Price0 = decimal.RequireFromString("1.0002")
	tickB.Price1 = decimal.RequireFromString("0.9998")

	shareA := testShare("500", "0")
	shareB := testShare("0", "400")
	shareB.Price0 = tickB.Price0
	shareB.Price1 = tickB.Price1

	values, err := ComputeShareValues([]model.Share{shareA, shareB}, []model.Tick{tickA, tickB})
	require.NoError(t, err)

	totals := AggregateByPair(values)
	require.Len(t, totals, 1)

	total := totals[testPair]
	// Sides sum independently: reserves in one tick never offset the other.
	assert.True(t, total.Reserves0.Equal(decimal.NewFromInt(500)), "got %s", total.Reserves0)
	assert.True(t, total.Reserves1.Equal(decimal.NewFromInt(400)), "got %s", total.Reserves1)
	assert.Equal(t, 2, total.Ticks)
}
