// Package synthetic prices swaps from a fixed ratio table so the system runs
// without aggregator credentials. It is not an oracle.
package synthetic

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/quote/app"
	"github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/asset"
)

var _ app.SyntheticPricer = (*Table)(nil)

// Fixed ratios, in human units of the stablecoin.
var (
	NativeUSD = decimal.RequireFromString("0.7")
	WETHUSD   = decimal.NewFromInt(2500)
	StableUSD = decimal.NewFromInt(1)
)

type class int

const (
	classOther class = iota
	classNative
	classStable
	classWETH
)

func classify(a *asset.Asset) class {
	switch {
	case a.IsUnknown():
		return classOther
	case asset.IsNativeLike(a):
		return classNative
	case asset.IsStablecoin(a):
		return classStable
	case a.Symbol() == "WETH":
		return classWETH
	}
	return classOther
}

// Table is the synthetic pricer.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

// USDPrice returns the table's USD price for a, if the table knows one.
func (t *Table) USDPrice(a *asset.Asset) (decimal.Decimal, bool) {
	switch classify(a) {
	case classNative:
		return NativeUSD, true
	case classStable:
		return StableUSD, true
	case classWETH:
		return WETHUSD, true
	}
	return decimal.Zero, false
}

func (t *Table) EstimatedGas() uint64 {
	return domain.DefaultEstimatedGas
}

// Convert prices amount raw units of from in to. Pairs with a stablecoin on one
// side and a priced asset on the other convert at the table ratio, adjusted
// for decimals. Any other pair returns the raw input unchanged.
func (t *Table) Convert(from, to *asset.Asset, amount *big.Int) (*big.Int, error) {
	in := asset.NewAmount(from, amount)
	fromClass, toClass := classify(from), classify(to)

	switch {
	case toClass == classStable && (fromClass == classNative || fromClass == classWETH || fromClass == classStable):
		rate, _ := t.USDPrice(from)
		out, err := asset.NewPrice(from, to, rate, time.Time{}).Convert(in)
		if err != nil {
			return nil, err
		}
		return out.Raw(), nil

	case fromClass == classStable && (toClass == classNative || toClass == classWETH):
		rate, _ := t.USDPrice(to)
		out, err := asset.NewPrice(to, from, rate, time.Time{}).ConvertInverse(in)
		if err != nil {
			return nil, err
		}
		return out.Raw(), nil
	}

	return new(big.Int).Set(amount), nil
}
