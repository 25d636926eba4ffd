package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeBalance is an account's balance of the chain's gas coin.
type NativeBalance struct {
	ChainID  uint64
	Address  common.Address
	Wei      *big.Int
	Decimals uint8
}

// Formatted returns the balance in whole native units.
func (b *NativeBalance) Formatted() decimal.Decimal {
	return decimal.NewFromBigInt(b.Wei, -int32(b.Decimals))
}

// Covers reports whether the balance is at least min whole units.
func (b *NativeBalance) Covers(min decimal.Decimal) bool {
	return b.Formatted().GreaterThanOrEqual(min)
}
