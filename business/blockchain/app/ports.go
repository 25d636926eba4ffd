// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-executor/business/blockchain/domain"
)

// NetworkClient reads account and fee state from configured chains.
type NetworkClient interface {
	// GetNativeBalance returns the gas-coin balance of address on chainID.
	GetNativeBalance(ctx context.Context, address common.Address, chainID uint64) (*domain.NativeBalance, error)

	// GetGasPrice returns the current suggested gas price on chainID.
	GetGasPrice(ctx context.Context, chainID uint64) (*domain.GasPrice, error)

	// BlockNumber returns the chain head, used for reachability checks.
	BlockNumber(ctx context.Context, chainID uint64) (uint64, error)
}
