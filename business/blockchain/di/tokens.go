// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/flashloan-executor/business/blockchain/app"
	"github.com/fd1az/flashloan-executor/business/blockchain/infra/ethereum"
	"github.com/fd1az/flashloan-executor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	Network = di.NewToken[*ethereum.Network]("blockchain:network")
)

func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetNetwork(c di.ServiceRegistry) *ethereum.Network {
	return di.GetToken(c, Network)
}
