package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTickKeyCanonicalisesScale(t *testing.T) {
	pair := PairKey{Token0: "tokenA", Token1: "tokenB"}

	a := NewTickKey(pair,
		decimal.RequireFromString("1.5"),
		decimal.RequireFromString("0.5"),
		decimal.RequireFromString("0.003"),
	)
	b := NewTickKey(pair,
		decimal.RequireFromString("1.50"),
		decimal.RequireFromString("0.500"),
		decimal.RequireFromString("0.0030"),
	)

	if a != b {
		t.Fatalf("keys differ for equal decimals: %v != %v", a, b)
	}
}

func TestNewTickKeyDistinguishesValues(t *testing.T) {
	pair := PairKey{Token0: "tokenA", Token1: "tokenB"}

	a := NewTickKey(pair, decimal.RequireFromString("1.5"), decimal.RequireFromString("0.5"), decimal.RequireFromString("0.003"))
	b := NewTickKey(pair, decimal.RequireFromString("1.5"), decimal.RequireFromString("0.5"), decimal.RequireFromString("0.01"))

	if a == b {
		t.Fatalf("different fee tiers must produce different keys")
	}
}
