// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/database"
	"github.com/fd1az/flashloan-executor/internal/di"
	"github.com/fd1az/flashloan-executor/internal/health"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	DB() *gorm.DB
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	RegisterHealthCheck(name string, check health.CheckFunc)
	OnClose(fn func() error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App implements Monolith.
type App struct {
	config        *config.Config
	logger        logger.LoggerInterface
	db            *gorm.DB
	assetRegistry *asset.Registry
	container     di.Container
	health        *health.Server
	closers       []func() error
}

// New opens the database and registers the shared services.
func New(cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return newWithDB(cfg, log, db), nil
}

// newWithDB builds the container around an already open database.
func newWithDB(cfg *config.Config, log logger.LoggerInterface, db *gorm.DB) *App {
	assetRegistry := asset.DefaultRegistry()
	container := di.NewContainer()

	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("db", db)
	container.Register("assetRegistry", assetRegistry)

	a := &App{
		config:        cfg,
		logger:        log,
		db:            db,
		assetRegistry: assetRegistry,
		container:     container,
		health:        health.NewServer(cfg.Health.Port, cfg.App.Name, log),
	}
	a.health.RegisterCheck("database", database.HealthCheck(db))
	a.OnClose(func() error { return database.Close(db) })
	return a
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *App) DB() *gorm.DB {
	return a.db
}

func (a *App) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}

// Health returns the probe server so callers can mount extra handlers before starting it.
func (a *App) Health() *health.Server {
	return a.health
}

func (a *App) RegisterHealthCheck(name string, check health.CheckFunc) {
	a.health.RegisterCheck(name, check)
}

// OnClose registers fn to run on Close, in reverse registration order.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs the registered closers and joins their errors.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
