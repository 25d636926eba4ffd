package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fd1az/flashloan-executor/business/blockchain"
	"github.com/fd1az/flashloan-executor/business/execution"
	"github.com/fd1az/flashloan-executor/business/notification"
	"github.com/fd1az/flashloan-executor/business/quote"
	"github.com/fd1az/flashloan-executor/internal/apm"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/logger"
	"github.com/fd1az/flashloan-executor/internal/metrics"
	"github.com/fd1az/flashloan-executor/internal/monolith"
)

// application is the wired monolith plus the modules it runs.
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	mono    *monolith.App
	modules []monolith.Module
}

// newApplication loads config, sets up logging and telemetry, and registers
// every module. Modules are not started yet.
func newApplication(ctx context.Context, opts *rootOptions, logOut io.Writer) (*application, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	levelName := cfg.App.LogLevel
	if opts.logLevel != "" {
		levelName = opts.logLevel
	}
	log := logger.New(logOut, logger.ParseLevel(levelName), cfg.App.Name, nil)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}

	if cfg.Telemetry.Enabled {
		if err := setupTelemetry(ctx, cfg, log, mono); err != nil {
			mono.Close()
			return nil, err
		}
	}

	// Execution depends on the other three.
	modules := []monolith.Module{
		&blockchain.Module{},
		&quote.Module{},
		&notification.Module{},
		&execution.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		mono.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}

	return &application{cfg: cfg, log: log, mono: mono, modules: modules}, nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, mono *monolith.App) error {
	tp := apm.NewTraceProvider(ctx, log, apm.Options{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	mono.OnClose(tp.Stop)

	metricOpts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
	}
	if apm.Provider(cfg.Telemetry.TraceProvider) == apm.OTLPGRPCProvider && cfg.Telemetry.OTLPEndpoint != "" {
		metricOpts = append(metricOpts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, true)))
	}

	provider, err := metrics.NewMetricProvider(ctx, metricOpts...)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	mono.OnClose(func() error { return provider.Shutdown(context.Background()) })
	mono.Health().Mount("/metrics", provider.Handler())

	log.Info(ctx, "telemetry initialized", "trace_provider", cfg.Telemetry.TraceProvider)
	return nil
}

// start runs module startup and the health server when enabled.
func (a *application) start(ctx context.Context) error {
	if err := a.mono.StartModules(ctx, a.modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if a.cfg.Health.Enabled {
		if err := a.mono.Health().Start(ctx); err != nil {
			a.log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			a.mono.OnClose(func() error { return a.mono.Health().Stop(context.Background()) })
		}
	}
	return nil
}

func (a *application) close() {
	if err := a.mono.Close(); err != nil {
		a.log.Warn(context.Background(), "shutdown finished with errors", "error", err)
	}
}

// startPlain builds and starts the application logging to stderr.
func startPlain(ctx context.Context, opts *rootOptions) (*application, error) {
	a, err := newApplication(ctx, opts, os.Stderr)
	if err != nil {
		return nil, err
	}
	if err := a.start(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}
