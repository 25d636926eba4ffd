// Package app contains the quote service and its ports.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/asset"
)

// Aggregator is a live swap-routing API.
type Aggregator interface {
	Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Route, error)
	Swap(ctx context.Context, req domain.SwapRequest) (*domain.Route, error)
	Prices(ctx context.Context, chainID uint64, tokens []common.Address) (map[common.Address]decimal.Decimal, error)
}

// SyntheticPricer is the deterministic fallback. It never talks to the network.
type SyntheticPricer interface {
	Convert(from, to *asset.Asset, amount *big.Int) (*big.Int, error)
	USDPrice(a *asset.Asset) (decimal.Decimal, bool)
	EstimatedGas() uint64
}
