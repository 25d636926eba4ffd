package asset

import "github.com/ethereum/go-ethereum/common"

// Asset is token metadata keyed by AssetID. Symbols are display-only and may
// repeat across chains or collide with UNKNOWN.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

// NewAssetWithName creates a new Asset with a human-readable name.
func NewAssetWithName(id AssetID, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	return a
}

func (a *Asset) ID() AssetID     { return a.id }
func (a *Asset) Symbol() string  { return a.symbol }
func (a *Asset) Decimals() uint8 { return a.decimals }
func (a *Asset) ChainID() uint64 { return a.id.ChainID() }
func (a *Asset) IsNative() bool  { return a.id.IsNative() }
func (a *Asset) IsFiat() bool    { return a.id.IsFiat() }
func (a *Asset) String() string  { return a.symbol }

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// IsUnknown reports whether the asset was synthesized for an unregistered address.
func (a *Asset) IsUnknown() bool {
	return a.symbol == UnknownSymbol
}

// Address returns the token contract address (zero for native coins).
func (a *Asset) Address() common.Address {
	return a.id.Address()
}

// QuoteAddress is the address aggregators expect: the native sentinel for the
// chain coin, the contract address otherwise.
func (a *Asset) QuoteAddress() common.Address {
	if a.IsNative() {
		return NativeSentinel
	}
	return a.id.Address()
}

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
