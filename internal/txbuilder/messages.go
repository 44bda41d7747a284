// Package txbuilder maps operation descriptors onto the chain's two
// supported message shapes and submits them as one atomic broadcast.
package txbuilder

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tickdesk/internal/model"
	"tickdesk/internal/planner"
)

// Msg is a chain message ready for the external encoder. Sealed: the
// only implementations are MsgDeposit and MsgWithdrawal.
type Msg interface {
	msg()
}

// MsgDeposit adds token amounts to one tick. Amounts are decimal
// strings at the chain's fixed exponent.
type MsgDeposit struct {
	Creator  string
	Receiver string
	TokenA   string
	TokenB   string
	AmountA  string
	AmountB  string
	Price0   string
	Price1   string
	Fee      string
}

func (MsgDeposit) msg() {}

// MsgWithdrawal removes an absolute share count from one side of a
// tick. Token names the side whose shares are burned.
type MsgWithdrawal struct {
	Creator        string
	Receiver       string
	TokenA         string
	TokenB         string
	Token          string
	SharesRemoving string
	Price0         string
	Price1         string
	Fee            string
}

func (MsgWithdrawal) msg() {}

// amountExponent is the chain's fixed decimal exponent for wire values.
const amountExponent int32 = 18

// BuildMessages is a pure mapping from descriptors to messages; it
// performs no network I/O. Matching over the descriptor variant is
// exhaustive, and field-level problems (missing price/fee, negative
// amounts) are rejected here so they can never reach the chain.
func BuildMessages(creator string, descriptors []planner.Descriptor) ([]Msg, error) {
	msgs := make([]Msg, 0, len(descriptors))
	for i, desc := range descriptors {
		switch d := desc.(type) {
		case planner.DepositDescriptor:
			if err := validateTickFields(d.Pair, d.Price0, d.Price1, d.Fee); err != nil {
				return nil, model.Preconditionf("descriptor %d: %v", i, err)
			}
			if d.Amount0.Sign() < 0 || d.Amount1.Sign() < 0 {
				return nil, model.Preconditionf("descriptor %d: negative deposit amount", i)
			}
			msgs = append(msgs, MsgDeposit{
				Creator:  creator,
				Receiver: creator,
				TokenA:   d.Pair.Token0,
				TokenB:   d.Pair.Token1,
				AmountA:  d.Amount0.StringFixed(amountExponent),
				AmountB:  d.Amount1.StringFixed(amountExponent),
				Price0:   d.Price0.String(),
				Price1:   d.Price1.String(),
				Fee:      d.Fee.String(),
			})

		case planner.WithdrawDescriptor:
			if err := validateTickFields(d.Pair, d.Price0, d.Price1, d.Fee); err != nil {
				return nil, model.Preconditionf("descriptor %d: %v", i, err)
			}
			if d.SharesRemoving.Sign() < 0 {
				return nil, model.Preconditionf("descriptor %d: negative share count", i)
			}
			token := d.Pair.Token0
			if d.Side == planner.Side1 {
				token = d.Pair.Token1
			}
			msgs = append(msgs, MsgWithdrawal{
				Creator:        creator,
				Receiver:       creator,
				TokenA:         d.Pair.Token0,
				TokenB:         d.Pair.Token1,
				Token:          token,
				SharesRemoving: d.SharesRemoving.StringFixed(amountExponent),
				Price0:         d.Price0.String(),
				Price1:         d.Price1.String(),
				Fee:            d.Fee.String(),
			})

		default:
			return nil, fmt.Errorf("unknown descriptor type %T", desc)
		}
	}
	return msgs, nil
}

func validateTickFields(pair model.PairKey, price0, price1, fee decimal.Decimal) error {
	if pair.Token0 == "" || pair.Token1 == "" {
		return fmt.Errorf("incomplete pair")
	}
	if price0.Sign() <= 0 || price1.Sign() <= 0 {
		return fmt.Errorf("missing tick price")
	}
	if fee.Sign() < 0 {
		return fmt.Errorf("negative fee")
	}
	return nil
}
