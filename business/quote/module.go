// Package quote implements the quote bounded context: swap quotes from the
// aggregator API with a synthetic fallback.
package quote

import (
	"context"

	"github.com/fd1az/flashloan-executor/business/quote/app"
	quoteDI "github.com/fd1az/flashloan-executor/business/quote/di"
	"github.com/fd1az/flashloan-executor/business/quote/infra/oneinch"
	"github.com/fd1az/flashloan-executor/business/quote/infra/synthetic"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/di"
	"github.com/fd1az/flashloan-executor/internal/logger"
	"github.com/fd1az/flashloan-executor/internal/monolith"
)

// Module implements the quote bounded context.
type Module struct{}

// RegisterServices registers all quote services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, quoteDI.QuoteService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		var aggregator app.Aggregator
		if cfg.Aggregator.APIKey != "" {
			client, err := oneinch.NewClient(oneinch.Config{
				BaseURL:           cfg.Aggregator.BaseURL,
				APIKey:            cfg.Aggregator.APIKey,
				Timeout:           cfg.Aggregator.Timeout,
				RequestsPerMinute: cfg.Aggregator.RequestsPerMinute,
			}, log)
			if err != nil {
				panic("failed to create aggregator client: " + err.Error())
			}
			aggregator = client
		}

		svc, err := app.NewService(
			app.ServiceConfig{PriceCacheTTL: cfg.Aggregator.PriceCacheTTL},
			aggregator,
			synthetic.NewTable(),
			registry,
			log,
		)
		if err != nil {
			panic("failed to create quote service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the quote module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := quoteDI.GetQuoteService(mono.Services())
	mono.OnClose(svc.Close)

	if !svc.Live() {
		mono.Logger().Warn(ctx, "no aggregator API key configured, quotes are synthetic")
	}
	mono.Logger().Info(ctx, "quote module started", "live", svc.Live())
	return nil
}
