// Package app contains the trade execution pipeline, the opportunity validator
// and the ports they depend on.
package app

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/common"

	blockchainDomain "github.com/fd1az/flashloan-executor/business/blockchain/domain"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	quoteDomain "github.com/fd1az/flashloan-executor/business/quote/domain"
)

// ConfigStore reads per-user bot settings. A missing config is (nil, nil).
type ConfigStore interface {
	GetBotConfig(ctx context.Context, userID string) (*domain.BotConfig, error)
}

// ActivityLogger appends audit entries. Entries are never read back by the pipeline.
type ActivityLogger interface {
	CreateActivityLog(ctx context.Context, entry *domain.ActivityLog) error
}

// TransactionStore appends attempt records.
type TransactionStore interface {
	CreateArbitrageTransaction(ctx context.Context, tx *domain.ArbitrageTransaction) error
}

// NetworkClient reads balance and fee state from a chain.
type NetworkClient interface {
	GetNativeBalance(ctx context.Context, address common.Address, chainID uint64) (*blockchainDomain.NativeBalance, error)
	GetGasPrice(ctx context.Context, chainID uint64) (*blockchainDomain.GasPrice, error)
}

// Notifier delivers a message to the user's chat. Best effort.
type Notifier interface {
	SendTelegramMessage(ctx context.Context, userID, text, category string) error
}

// QuoteSource builds swap legs.
type QuoteSource interface {
	BuildSwap(ctx context.Context, req quoteDomain.SwapRequest) (*quoteDomain.SwapQuote, error)
}

// EnvLookup reads a process environment variable.
type EnvLookup func(key string) (string, bool)

// OSEnv is the EnvLookup backed by the real environment.
var OSEnv EnvLookup = os.LookupEnv
