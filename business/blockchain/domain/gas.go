// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice represents gas price information for one chain.
type GasPrice struct {
	ChainID   uint64
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(chainID uint64, wei *big.Int) *GasPrice {
	return &GasPrice{
		ChainID:   chainID,
		Wei:       new(big.Int).Set(wei),
		Timestamp: time.Now(),
	}
}

// Gwei returns the price in gwei.
func (g *GasPrice) Gwei() decimal.Decimal {
	return decimal.NewFromBigInt(g.Wei, -9)
}

// GweiFloat is for metrics only.
func (g *GasPrice) GweiFloat() float64 {
	f, _ := g.Gwei().Float64()
	return f
}

// Exceeds reports whether the price is strictly above maxGwei.
func (g *GasPrice) Exceeds(maxGwei decimal.Decimal) bool {
	return g.Gwei().GreaterThan(maxGwei)
}
