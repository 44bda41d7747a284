package planner

import (
	"github.com/shopspring/decimal"

	"tickdesk/internal/model"
)

// Side selects one token of a pair.
type Side int

const (
	Side0 Side = 0
	Side1 Side = 1
)

// Descriptor is one unsent deposit or withdraw operation. It is a
// sealed variant: the encoding boundary matches exhaustively over
// DepositDescriptor and WithdrawDescriptor.
type Descriptor interface {
	Key() model.TickKey
	sealed()
}

// DepositDescriptor adds token amounts to a tick. Exactly one of
// Amount0/Amount1 is non-zero; the two sides of a tick are never
// combined into one operation.
type DepositDescriptor struct {
	Pair    model.PairKey
	Price0  decimal.Decimal
	Price1  decimal.Decimal
	Fee     decimal.Decimal
	Amount0 decimal.Decimal
	Amount1 decimal.Decimal
}

func (d DepositDescriptor) Key() model.TickKey {
	return model.NewTickKey(d.Pair, d.Price0, d.Price1, d.Fee)
}

func (DepositDescriptor) sealed() {}

// WithdrawDescriptor removes an absolute share count from one side of
// a tick. The chain's withdraw call is share-based, not amount-based;
// SharesRemoving is derived by inverting the pro-rata reserve formula.
// Expected0/Expected1 carry the token amounts the shares stood for at
// planning time, for reporting only.
type WithdrawDescriptor struct {
	Pair           model.PairKey
	Price0         decimal.Decimal
	Price1         decimal.Decimal
	Fee            decimal.Decimal
	Side           Side
	SharesRemoving decimal.Decimal
	Expected0      decimal.Decimal
	Expected1      decimal.Decimal
}

func (d WithdrawDescriptor) Key() model.TickKey {
	return model.NewTickKey(d.Pair, d.Price0, d.Price1, d.Fee)
}

func (WithdrawDescriptor) sealed() {}
