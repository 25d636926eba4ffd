// Package asset models on-chain tokens and amounts. Amounts are raw big.Int in
// the token's smallest unit; decimal.Decimal appears only at boundaries.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID uniquely identifies an asset by chain and contract address.
// Native coins use the zero address; fiat uses chain 0.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{chainID: chainID, address: addr}
}

// NewFiatAssetID creates an off-chain AssetID derived from the symbol.
func NewFiatAssetID(symbol string) AssetID {
	return AssetID{address: common.BytesToAddress(common.RightPadBytes([]byte(symbol), 20))}
}

func (id AssetID) ChainID() uint64         { return id.chainID }
func (id AssetID) Address() common.Address { return id.address }

func (id AssetID) IsNative() bool {
	return id.chainID != 0 && id.address == (common.Address{})
}

func (id AssetID) IsFiat() bool {
	return id.chainID == 0
}

func (id AssetID) String() string {
	switch {
	case id.IsFiat():
		return fmt.Sprintf("fiat:%s", id.address.Hex()[:10])
	case id.IsNative():
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
