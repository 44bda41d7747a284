package planner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickdesk/internal/model"
)

var testPair = model.PairKey{Token0: "tokenA", Token1: "tokenB"}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// editFixture builds an edit over a single-sided tick: 1000 of token0
// in reserve, 1000 total shares, of which the user owns 100 (so the
// user's reserves are 100).
func editFixture(diff0, diff1 string) model.EditedTickShareValue {
	tick := model.Tick{
		Pair:         testPair,
		Price0:       dec("1.0001"),
		Price1:       dec("0.9999"),
		Fee:          dec("0.003"),
		Reserves0:    dec("1000"),
		Reserves1:    decimal.Zero,
		TotalShares0: dec("1000"),
		TotalShares1: decimal.Zero,
	}
	share := model.Share{
		Owner:   "owner1",
		Pair:    testPair,
		Price0:  tick.Price0,
		Price1:  tick.Price1,
		Fee:     tick.Fee,
		Shares0: dec("100"),
		Shares1: decimal.Zero,
	}
	return model.EditedTickShareValue{
		TickShareValue: model.TickShareValue{
			Share:         share,
			Tick:          tick,
			UserReserves0: dec("100"),
			UserReserves1: decimal.Zero,
		},
		TickDiff0: dec(diff0),
		TickDiff1: dec(diff1),
	}
}

func TestPlanEditsZeroDiffs(t *testing.T) {
	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{
		editFixture("0", "0"),
		editFixture("0", "0"),
	})
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestPlanEditsDeposit(t *testing.T) {
	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{
		editFixture("50", "0"),
	})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	deposit, ok := descriptors[0].(DepositDescriptor)
	require.True(t, ok, "expected a deposit, got %T", descriptors[0])
	assert.True(t, deposit.Amount0.Equal(dec("50")), "got %s", deposit.Amount0)
	assert.True(t, deposit.Amount1.IsZero())
	assert.Equal(t, testPair, deposit.Pair)
}

func TestPlanEditsWithdraw(t *testing.T) {
	// User reserves are 100 backed by 100 shares; removing 40 tokens
	// must remove 40 shares.
	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{
		editFixture("-40", "0"),
	})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	withdraw, ok := descriptors[0].(WithdrawDescriptor)
	require.True(t, ok, "expected a withdraw, got %T", descriptors[0])
	assert.Equal(t, Side0, withdraw.Side)
	assert.True(t, withdraw.SharesRemoving.Equal(dec("40")), "got %s", withdraw.SharesRemoving)
	assert.True(t, withdraw.Expected0.Equal(dec("40")))
}

func TestPlanEditsWithdrawProRataShares(t *testing.T) {
	// 2000 of token0 backed by 1000 total shares, so each share is worth
	// two tokens; the user's 100 shares back 200 tokens. Removing 40
	// tokens must burn a fifth of the position: 20 shares, not 40.
	edit := editFixture("-40", "0")
	edit.Tick.Reserves0 = dec("2000")
	edit.Tick.TotalShares0 = dec("1000")
	edit.UserReserves0 = dec("200")

	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{edit})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	withdraw, ok := descriptors[0].(WithdrawDescriptor)
	require.True(t, ok, "expected a withdraw, got %T", descriptors[0])
	assert.True(t, withdraw.SharesRemoving.Equal(dec("20")), "got %s", withdraw.SharesRemoving)
	assert.True(t, withdraw.Expected0.Equal(dec("40")))
}

func TestPlanEditsWithdrawWholePosition(t *testing.T) {
	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{
		editFixture("-100", "0"),
	})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	withdraw := descriptors[0].(WithdrawDescriptor)
	assert.True(t, withdraw.SharesRemoving.Equal(dec("100")), "got %s", withdraw.SharesRemoving)
}

func TestPlanEditsShareClampAfterRounding(t *testing.T) {
	// The withdraw fraction is rounded half-up twice; whatever the
	// rounding does, the share count must never pass the owned balance.
	edit := editFixture("0", "0")
	edit.UserReserves0 = dec("99.999999999999999999999999999999999999")
	edit.TickDiff0 = edit.UserReserves0.Neg()

	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{edit})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	withdraw := descriptors[0].(WithdrawDescriptor)
	assert.True(t, withdraw.SharesRemoving.LessThanOrEqual(edit.Share.Shares0),
		"shares removing %s exceeds owned %s", withdraw.SharesRemoving, edit.Share.Shares0)
}

func TestPlanEditsRejectsWithdrawFromEmptySide(t *testing.T) {
	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{
		editFixture("0", "-5"),
	})
	require.Error(t, err)
	assert.Nil(t, descriptors)

	var invariant *model.InvariantError
	assert.ErrorAs(t, err, &invariant)
}

func TestPlanEditsRejectsOverWithdrawal(t *testing.T) {
	_, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{
		editFixture("-100.5", "0"),
	})
	require.Error(t, err)

	var invariant *model.InvariantError
	assert.ErrorAs(t, err, &invariant)
}

func TestPlanEditsOrdering(t *testing.T) {
	// Two edits: first withdraws token0, second deposits token1. The
	// descriptor order follows the input order, side 0 before side 1
	// within a tick.
	first := editFixture("-10", "0")
	second := editFixture("25", "30")

	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{first, second})
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	_, ok := descriptors[0].(WithdrawDescriptor)
	assert.True(t, ok, "first descriptor should be the withdraw, got %T", descriptors[0])

	d1, ok := descriptors[1].(DepositDescriptor)
	require.True(t, ok)
	assert.True(t, d1.Amount0.Equal(dec("25")))

	d2, ok := descriptors[2].(DepositDescriptor)
	require.True(t, ok)
	assert.True(t, d2.Amount1.Equal(dec("30")))
}

func TestPlanEditsDualSidedWithdrawIsPerSide(t *testing.T) {
	// A tick holding both tokens, both sides withdrawn at once: each
	// side's share count comes from its own reserves only.
	edit := editFixture("-50", "-20")
	edit.Tick.Reserves1 = dec("500")
	edit.Tick.TotalShares1 = dec("500")
	edit.Share.Shares1 = dec("200")
	edit.UserReserves1 = dec("200")

	descriptors, err := NewPlanner(nil).PlanEdits([]model.EditedTickShareValue{edit})
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	w0 := descriptors[0].(WithdrawDescriptor)
	assert.Equal(t, Side0, w0.Side)
	assert.True(t, w0.SharesRemoving.Equal(dec("50")), "got %s", w0.SharesRemoving)

	w1 := descriptors[1].(WithdrawDescriptor)
	assert.Equal(t, Side1, w1.Side)
	assert.True(t, w1.SharesRemoving.Equal(dec("20")), "got %s", w1.SharesRemoving)
}
