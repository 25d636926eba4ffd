package asset

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain IDs
const (
	ChainIDPolygon     = 137
	ChainIDPolygonAmoy = 80002
	ChainIDFiat        = 0
)

// NativeSentinel is the pseudo-address aggregators use for the chain's native coin.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// UnknownSymbol marks assets resolved from an address the registry does not know.
const UnknownSymbol = "UNKNOWN"

// Polygon PoS token addresses
var (
	AddrWPOLPolygon  = common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270")
	AddrUSDCPolygon  = common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359")
	AddrUSDCePolygon = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	AddrUSDTPolygon  = common.HexToAddress("0xc2132D05D31c914a87C6611C10748AEb04B58e8F")
	AddrDAIPolygon   = common.HexToAddress("0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063")
	AddrWETHPolygon  = common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
	AddrWBTCPolygon  = common.HexToAddress("0x1BFD67037B42Cf73acF2047067bd4F2C47D9BfD6")
)

// Well-known assets
var (
	POL     = MustNewNative(ChainIDPolygon, "POL", "Polygon Ecosystem Token", 18)
	AmoyPOL = MustNewNative(ChainIDPolygonAmoy, "POL", "Polygon Amoy POL", 18)

	WPOL  = MustNewToken(ChainIDPolygon, AddrWPOLPolygon, "WPOL", "Wrapped POL", 18)
	USDC  = MustNewToken(ChainIDPolygon, AddrUSDCPolygon, "USDC", "USD Coin", 6)
	USDCe = MustNewToken(ChainIDPolygon, AddrUSDCePolygon, "USDC.e", "Bridged USD Coin", 6)
	USDT  = MustNewToken(ChainIDPolygon, AddrUSDTPolygon, "USDT", "Tether USD", 6)
	DAI   = MustNewToken(ChainIDPolygon, AddrDAIPolygon, "DAI", "Dai Stablecoin", 18)
	WETH  = MustNewToken(ChainIDPolygon, AddrWETHPolygon, "WETH", "Wrapped Ether", 18)
	WBTC  = MustNewToken(ChainIDPolygon, AddrWBTCPolygon, "WBTC", "Wrapped Bitcoin", 8)

	USD = NewAssetWithName(NewFiatAssetID("USD"), "USD", "US Dollar", 2)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{POL, AmoyPOL, WPOL, USDC, USDCe, USDT, DAI, WETH, WBTC, USD} {
		r.Register(a)
	}
	return r
}

// IsStablecoin reports whether a is a USD stablecoin.
func IsStablecoin(a *Asset) bool {
	switch strings.ToUpper(a.Symbol()) {
	case "USDC", "USDC.E", "USDT", "DAI":
		return true
	}
	return false
}

// IsNativeLike reports whether a is the native coin or its wrapped form.
func IsNativeLike(a *Asset) bool {
	if a.IsNative() {
		return true
	}
	switch strings.ToUpper(a.Symbol()) {
	case "WPOL", "WMATIC", "POL", "MATIC":
		return true
	}
	return false
}

// MustNewToken creates a new ERC20 token asset with the given parameters.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return NewAssetWithName(NewTokenAssetID(chainID, address), symbol, name, decimals)
}

// MustNewNative creates a new native coin asset.
func MustNewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	return NewAssetWithName(NewNativeAssetID(chainID), symbol, name, decimals)
}
