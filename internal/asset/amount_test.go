package asset_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/internal/asset"
)

func TestParseDecimal_ScalesByDecimals(t *testing.T) {
	tests := []struct {
		name  string
		asset *asset.Asset
		in    string
		want  string
	}{
		{"usdc_six_decimals", asset.USDC, "1000", "1000000000"},
		{"weth_eighteen_decimals", asset.WETH, "1.5", "1500000000000000000"},
		{"wbtc_eight_decimals", asset.WBTC, "0.01", "1000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, err := asset.ParseString(tt.asset, tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if amt.Raw().String() != tt.want {
				t.Errorf("raw = %s, want %s", amt.Raw(), tt.want)
			}
		})
	}
}

func TestParseDecimal_RejectsExcessPrecision(t *testing.T) {
	if _, err := asset.ParseString(asset.USDC, "0.0000001"); err == nil {
		t.Error("expected ErrTooManyDecimals")
	}

	amt, err := asset.ParseDecimalTruncating(asset.USDC, decimal.RequireFromString("1.0000009"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amt.Raw().Int64() != 1000000 {
		t.Errorf("expected truncation to 1000000, got %s", amt.Raw())
	}
}

func TestAmount_Cmp(t *testing.T) {
	a := asset.NewAmount(asset.USDC, big.NewInt(5))
	b := asset.NewAmount(asset.USDC, big.NewInt(7))

	if c, err := a.Cmp(b); err != nil || c != -1 {
		t.Errorf("Cmp = %d, %v", c, err)
	}
	if _, err := a.Cmp(asset.NewAmount(asset.USDT, big.NewInt(5))); err == nil {
		t.Error("expected mismatch error across assets")
	}
}

func TestPrice_ConvertAcrossDecimals(t *testing.T) {
	now := time.Now()
	ethUSDC := asset.NewPrice(asset.WETH, asset.USDC, decimal.NewFromInt(2500), now)

	oneETH, _ := asset.ParseString(asset.WETH, "1")
	out, err := ethUSDC.Convert(oneETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Raw().String() != "2500000000" {
		t.Errorf("expected 2500 USDC raw, got %s", out.Raw())
	}

	back, err := ethUSDC.ConvertInverse(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1 WETH back, got %s", back)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := asset.DefaultRegistry()

	if got := r.Resolve(asset.ChainIDPolygon, asset.AddrUSDCPolygon); got != asset.USDC {
		t.Errorf("expected USDC, got %s", got)
	}
	if got := r.Resolve(asset.ChainIDPolygon, asset.NativeSentinel); got != asset.POL {
		t.Errorf("expected native POL, got %s", got)
	}

	unknown := r.Resolve(asset.ChainIDPolygon, common.HexToAddress("0x1234"))
	if !unknown.IsUnknown() || unknown.Decimals() != 18 {
		t.Errorf("expected UNKNOWN/18, got %s/%d", unknown.Symbol(), unknown.Decimals())
	}
}
