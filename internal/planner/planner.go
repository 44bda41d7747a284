// Package planner translates requested per-tick token diffs into the
// ordered deposit/withdraw operations the chain's message set supports.
package planner

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tickdesk/internal/model"
)

const (
	// chainScale is the chain's fixed decimal exponent for amounts and
	// share counts on the wire.
	chainScale int32 = 18

	// fractionScale bounds the intermediate withdraw-fraction division.
	fractionScale int32 = 36
)

// Planner turns edited share values into operation descriptors.
type Planner struct {
	logger *zap.Logger
}

// NewPlanner builds a Planner. A nil logger disables logging.
func NewPlanner(logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{logger: logger}
}

// PlanEdits processes each edit independently per token side, in input
// order with side 0 before side 1, so the resulting message sequence is
// deterministic.
//
//   - zero diff: nothing
//   - positive diff: a deposit of that amount
//   - negative diff: a withdrawal of the share count equivalent to the
//     requested amount, derived by inverting the pro-rata formula
//
// Removing from a side the user holds nothing of is rejected before it
// can reach the chain. Rounding is half-up at the chain exponent; a
// withdraw share count is clamped to the owned balance after rounding
// so a rounding artifact can never liquidate more than intended.
func (p *Planner) PlanEdits(edits []model.EditedTickShareValue) ([]Descriptor, error) {
	descriptors := make([]Descriptor, 0, len(edits))

	for _, edit := range edits {
		if edit.TickDiff0.Sign() < 0 && edit.TickDiff1.Sign() < 0 {
			// Both sides withdrawn at once: each side's share count is
			// derived from its own reserves, which is exact only for a
			// single-sided tick. Intended semantics for a dual-sided
			// tick are unconfirmed; flagged for review, not corrected.
			p.logger.Warn("dual-sided withdrawal planned independently per side",
				zap.String("tick", edit.Share.Key().String()),
			)
		}

		for _, side := range []Side{Side0, Side1} {
			desc, err := p.planSide(edit, side)
			if err != nil {
				return nil, err
			}
			if desc != nil {
				descriptors = append(descriptors, desc)
			}
		}
	}

	return descriptors, nil
}

func (p *Planner) planSide(edit model.EditedTickShareValue, side Side) (Descriptor, error) {
	diff := edit.TickDiff0
	userReserves := edit.UserReserves0
	shares := edit.Share.Shares0
	if side == Side1 {
		diff = edit.TickDiff1
		userReserves = edit.UserReserves1
		shares = edit.Share.Shares1
	}

	switch {
	case diff.Sign() == 0:
		return nil, nil

	case diff.Sign() > 0:
		deposit := DepositDescriptor{
			Pair:    edit.Share.Pair,
			Price0:  edit.Share.Price0,
			Price1:  edit.Share.Price1,
			Fee:     edit.Share.Fee,
			Amount0: decimal.Zero,
			Amount1: decimal.Zero,
		}
		amount := diff.Round(chainScale)
		if side == Side0 {
			deposit.Amount0 = amount
		} else {
			deposit.Amount1 = amount
		}
		return deposit, nil

	default:
		removing := diff.Neg()
		if userReserves.Sign() == 0 {
			return nil, model.Invariantf("withdraw %s from side %d of %s: no reserves owned",
				removing, side, edit.Share.Key())
		}
		if removing.GreaterThan(userReserves) {
			return nil, model.Invariantf("withdraw %s from side %d of %s exceeds owned reserves %s",
				removing, side, edit.Share.Key(), userReserves)
		}

		// sharesRemoving = (-diff / userReserves) * shares, the inverse
		// of the pro-rata reserve formula.
		sharesRemoving := removing.DivRound(userReserves, fractionScale).Mul(shares).Round(chainScale)
		if sharesRemoving.GreaterThan(shares) {
			sharesRemoving = shares
		}

		withdraw := WithdrawDescriptor{
			Pair:           edit.Share.Pair,
			Price0:         edit.Share.Price0,
			Price1:         edit.Share.Price1,
			Fee:            edit.Share.Fee,
			Side:           side,
			SharesRemoving: sharesRemoving,
			Expected0:      decimal.Zero,
			Expected1:      decimal.Zero,
		}
		if side == Side0 {
			withdraw.Expected0 = removing
		} else {
			withdraw.Expected1 = removing
		}
		return withdraw, nil
	}
}
