package asset

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the fixed-point scale of Price.rate.
const PricePrecision = 18

var pricePrecisionMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(PricePrecision), nil)

// Price is how many quote units one base unit is worth, in human units.
// Example: WETH/USDC = 2500 means 1 WETH converts to 2500 USDC.
type Price struct {
	rate      *big.Int
	base      *Asset
	quote     *Asset
	timestamp time.Time
}

// NewPrice creates a price from a decimal rate.
func NewPrice(base, quote *Asset, rate decimal.Decimal, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}
	return Price{
		rate:      rate.Shift(PricePrecision).BigInt(),
		base:      base,
		quote:     quote,
		timestamp: timestamp,
	}
}

func (p Price) Base() *Asset         { return p.base }
func (p Price) Quote() *Asset        { return p.quote }
func (p Price) Timestamp() time.Time { return p.timestamp }

// Rate returns the price rate as a decimal.
func (p Price) Rate() decimal.Decimal {
	if p.rate == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.rate, -PricePrecision)
}

// Pair returns e.g. "WETH/USDC".
func (p Price) Pair() string {
	return fmt.Sprintf("%s/%s", p.base.Symbol(), p.quote.Symbol())
}

// Convert turns a base-asset amount into the quote asset, adjusting for the
// difference in decimals. Truncates toward zero.
func (p Price) Convert(amount Amount) (Amount, error) {
	if amount.Asset() == nil {
		return Amount{}, ErrNilAsset
	}
	if !amount.Asset().Equals(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s",
			ErrAssetMismatch, p.base.Symbol(), amount.Asset().Symbol())
	}

	shift := int64(p.quote.Decimals()) - int64(p.base.Decimals())

	out := new(big.Int).Mul(amount.Raw(), p.rate)
	if shift > 0 {
		out.Mul(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	}
	divisor := new(big.Int).Set(pricePrecisionMultiplier)
	if shift < 0 {
		divisor.Mul(divisor, new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil))
	}
	out.Div(out, divisor)

	return NewAmount(p.quote, out), nil
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Rate().String(), p.Pair())
}

// ConvertInverse turns a quote-asset amount back into the base asset.
func (p Price) ConvertInverse(amount Amount) (Amount, error) {
	if amount.Asset() == nil {
		return Amount{}, ErrNilAsset
	}
	if !amount.Asset().Equals(p.quote) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s",
			ErrAssetMismatch, p.quote.Symbol(), amount.Asset().Symbol())
	}
	if p.rate == nil || p.rate.Sign() == 0 {
		return Zero(p.base), nil
	}

	shift := int64(p.base.Decimals()) - int64(p.quote.Decimals())

	out := new(big.Int).Mul(amount.Raw(), pricePrecisionMultiplier)
	if shift > 0 {
		out.Mul(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	}
	divisor := new(big.Int).Set(p.rate)
	if shift < 0 {
		divisor.Mul(divisor, new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil))
	}
	out.Div(out, divisor)

	return NewAmount(p.base, out), nil
}
