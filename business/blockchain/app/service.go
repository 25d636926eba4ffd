package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-executor/business/blockchain/domain"
)

// BlockchainService is the public face of the blockchain context.
type BlockchainService struct {
	network NetworkClient
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(network NetworkClient) *BlockchainService {
	return &BlockchainService{network: network}
}

func (s *BlockchainService) GetNativeBalance(ctx context.Context, address common.Address, chainID uint64) (*domain.NativeBalance, error) {
	return s.network.GetNativeBalance(ctx, address, chainID)
}

func (s *BlockchainService) GetGasPrice(ctx context.Context, chainID uint64) (*domain.GasPrice, error) {
	return s.network.GetGasPrice(ctx, chainID)
}

// HealthCheck returns a probe for chainID suitable for the health server.
func (s *BlockchainService) HealthCheck(chainID uint64) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		head, err := s.network.BlockNumber(ctx, chainID)
		if err != nil {
			return false, err.Error()
		}
		return true, fmt.Sprintf("head %d", head)
	}
}
