// Package blockchain implements the blockchain bounded context: balances and
// gas prices on the configured EVM chains.
package blockchain

import (
	"context"
	"fmt"

	"github.com/fd1az/flashloan-executor/business/blockchain/app"
	blockchainDI "github.com/fd1az/flashloan-executor/business/blockchain/di"
	"github.com/fd1az/flashloan-executor/business/blockchain/infra/ethereum"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/di"
	"github.com/fd1az/flashloan-executor/internal/logger"
	"github.com/fd1az/flashloan-executor/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.Network, func(sr di.ServiceRegistry) *ethereum.Network {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		endpoints := make([]ethereum.Endpoint, 0, 2)
		for _, chain := range cfg.Networks.All() {
			endpoints = append(endpoints, ethereum.Endpoint{
				ChainID: chain.ChainID,
				RPCURL:  chain.RPCURL,
				Timeout: chain.Timeout,
			})
		}

		network, err := ethereum.NewNetwork(ethereum.Config{Endpoints: endpoints}, registry, log)
		if err != nil {
			panic("failed to create network client: " + err.Error())
		}
		return network
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		return app.NewBlockchainService(blockchainDI.GetNetwork(sr))
	})

	return nil
}

// Startup wires chain reachability into the health server. Connections are dialed lazily.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := blockchainDI.GetBlockchainService(mono.Services())
	network := blockchainDI.GetNetwork(mono.Services())

	for _, chain := range mono.Config().Networks.All() {
		mono.RegisterHealthCheck(fmt.Sprintf("rpc-%d", chain.ChainID), svc.HealthCheck(chain.ChainID))
	}
	mono.OnClose(network.Close)

	mono.Logger().Info(ctx, "blockchain module started")
	return nil
}
