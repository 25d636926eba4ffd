// Package execution implements the execution bounded context: the guarded
// flash-loan trade pipeline, the opportunity validator and their storage.
package execution

import (
	"context"

	"gorm.io/gorm"

	blockchainDI "github.com/fd1az/flashloan-executor/business/blockchain/di"
	"github.com/fd1az/flashloan-executor/business/execution/app"
	execDI "github.com/fd1az/flashloan-executor/business/execution/di"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/business/execution/infra/store"
	notifDI "github.com/fd1az/flashloan-executor/business/notification/di"
	quoteDI "github.com/fd1az/flashloan-executor/business/quote/di"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/di"
	"github.com/fd1az/flashloan-executor/internal/logger"
	"github.com/fd1az/flashloan-executor/internal/monolith"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, execDI.Store, func(sr di.ServiceRegistry) *store.Store {
		db := sr.Get("db").(*gorm.DB)
		log := sr.Get("logger").(logger.LoggerInterface)
		return store.New(db, log)
	})

	// The store owns bot settings, so it answers chat lookups for notifications.
	c.RegisterFactory(notifDI.ChatResolverKey, func(sr di.ServiceRegistry) any {
		return execDI.GetStore(sr)
	})

	di.RegisterToken(c, execDI.Validator, func(sr di.ServiceRegistry) *app.Validator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewValidator(execDI.GetStore(sr), app.ValidatorConfig{
			MinProfitPercent: cfg.Execution.MinProfitPercentDecimal(),
		}, log)
	})

	di.RegisterToken(c, execDI.Pipeline, func(sr di.ServiceRegistry) *app.Pipeline {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		st := execDI.GetStore(sr)

		pipeline, err := app.NewPipeline(app.Collaborators{
			Configs:      st,
			Activity:     st,
			Transactions: st,
			Network:      blockchainDI.GetBlockchainService(sr),
			Notifier:     notifDI.GetNotificationService(sr),
			Quotes:       quoteDI.GetQuoteService(sr),
		}, pipelineConfig(cfg), log)
		if err != nil {
			panic("failed to create execution pipeline: " + err.Error())
		}
		return pipeline
	})

	return nil
}

func pipelineConfig(cfg *config.Config) app.PipelineConfig {
	pc := app.PipelineConfig{
		Defaults: domain.Defaults{
			MaxGasPriceGwei:          cfg.Execution.MaxGasPriceGweiDecimal(),
			MinProfitPercent:         cfg.Execution.MinProfitPercentDecimal(),
			NotificationThresholdUSD: cfg.Execution.NotifyThresholdDecimal(),
		},
		MainnetChainID:          cfg.Networks.Mainnet.ChainID,
		TestnetChainID:          cfg.Networks.Testnet.ChainID,
		MinGasReserve:           cfg.Execution.MinGasReserveDecimal(),
		NotifyOnFailure:         cfg.Execution.NotifyOnFailure,
		SimulatedOutputMultiple: cfg.Execution.SimulatedOutputMultipleDecimal(),
		SlippagePercent:         cfg.Aggregator.SlippagePercent,
		PrivateKeyEnv:           cfg.Execution.PrivateKeyEnvFallback,
	}
	if receiver, ok := cfg.Execution.ReceiverContractAddress(); ok {
		pc.ReceiverContract = &receiver
	}
	return pc
}

// Startup initializes the execution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()

	if cfg.Database.AutoMigrate {
		if err := execDI.GetStore(mono.Services()).AutoMigrate(ctx); err != nil {
			return err
		}
	}

	if _, ok := cfg.Execution.ReceiverContractAddress(); !ok {
		mono.Logger().Warn(ctx, "no flash loan receiver contract configured, real trades will be rejected")
	}

	mono.Logger().Info(ctx, "execution module started",
		"auto_migrate", cfg.Database.AutoMigrate,
		"notify_on_failure", cfg.Execution.NotifyOnFailure,
	)
	return nil
}
