// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Network modes
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Networks   NetworksConfig   `mapstructure:"networks"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Execution  ExecutionConfig  `mapstructure:"execution"`
	Health     HealthConfig     `mapstructure:"health"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// NetworksConfig maps the bot's network mode to a chain.
type NetworksConfig struct {
	Mainnet ChainConfig `mapstructure:"mainnet"`
	Testnet ChainConfig `mapstructure:"testnet"`
}

// ChainConfig describes one EVM chain endpoint.
type ChainConfig struct {
	ChainID uint64        `mapstructure:"chain_id"`
	RPCURL  string        `mapstructure:"rpc_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChainFor returns the chain for a network mode. Anything but "testnet" is mainnet.
func (n NetworksConfig) ChainFor(mode string) ChainConfig {
	if mode == NetworkTestnet {
		return n.Testnet
	}
	return n.Mainnet
}

// All lists the configured chains.
func (n NetworksConfig) All() []ChainConfig {
	return []ChainConfig{n.Mainnet, n.Testnet}
}

// AggregatorConfig holds the swap aggregator API settings.
type AggregatorConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	PriceCacheTTL     time.Duration `mapstructure:"price_cache_ttl"`
	SlippagePercent   float64       `mapstructure:"slippage_percent"`
}

// TelegramConfig holds the notification bot settings.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig selects the gorm dialect.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // postgres, mysql or sqlite
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	LogQueries  bool   `mapstructure:"log_queries"`
}

// ExecutionConfig holds pipeline defaults used when a bot config leaves a field unset.
type ExecutionConfig struct {
	ReceiverContract        string        `mapstructure:"receiver_contract"`
	DefaultMaxGasPriceGwei  float64       `mapstructure:"default_max_gas_price_gwei"`
	DefaultMinProfitPercent float64       `mapstructure:"default_min_profit_percent"`
	DefaultNotifyThreshold  float64       `mapstructure:"default_notify_threshold_usd"`
	MinGasReserve           float64       `mapstructure:"min_gas_reserve"`
	NotifyOnFailure         bool          `mapstructure:"notify_on_failure"`
	SimulatedOutputMultiple float64       `mapstructure:"simulated_output_multiple"`
	PrivateKeyEnvFallback   []string      `mapstructure:"private_key_env_fallback"`
}

// ReceiverContractAddress returns the receiver as an address, or false if unset.
func (c ExecutionConfig) ReceiverContractAddress() (common.Address, bool) {
	if c.ReceiverContract == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.ReceiverContract), true
}

func (c ExecutionConfig) MaxGasPriceGweiDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultMaxGasPriceGwei)
}

func (c ExecutionConfig) MinProfitPercentDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultMinProfitPercent)
}

func (c ExecutionConfig) NotifyThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultNotifyThreshold)
}

func (c ExecutionConfig) MinGasReserveDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinGasReserve)
}

func (c ExecutionConfig) SimulatedOutputMultipleDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SimulatedOutputMultiple)
}

// HealthConfig controls the probe server.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, otlp-grpc, otlp-http, console or empty
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Networks
	v.BindEnv("networks.mainnet.rpc_url", "ARB_MAINNET_RPC_URL", "POLYGON_RPC_URL")
	v.BindEnv("networks.testnet.rpc_url", "ARB_TESTNET_RPC_URL", "AMOY_RPC_URL")

	// Aggregator
	v.BindEnv("aggregator.base_url", "ARB_AGGREGATOR_URL")
	v.BindEnv("aggregator.api_key", "ARB_AGGREGATOR_API_KEY", "ONEINCH_API_KEY")

	// Telegram
	v.BindEnv("telegram.enabled", "ARB_TELEGRAM_ENABLED")
	v.BindEnv("telegram.bot_token", "ARB_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")

	// Database
	v.BindEnv("database.driver", "ARB_DB_DRIVER")
	v.BindEnv("database.dsn", "ARB_DB_DSN", "DATABASE_URL")

	// Execution
	v.BindEnv("execution.receiver_contract", "ARB_RECEIVER_CONTRACT", "FLASHLOAN_RECEIVER_ADDRESS")
	v.BindEnv("execution.notify_on_failure", "ARB_NOTIFY_ON_FAILURE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "flashloan-executor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Polygon PoS and Amoy
	v.SetDefault("networks.mainnet.chain_id", 137)
	v.SetDefault("networks.mainnet.rpc_url", "https://polygon-rpc.com")
	v.SetDefault("networks.mainnet.timeout", "10s")
	v.SetDefault("networks.testnet.chain_id", 80002)
	v.SetDefault("networks.testnet.rpc_url", "https://rpc-amoy.polygon.technology")
	v.SetDefault("networks.testnet.timeout", "10s")

	v.SetDefault("aggregator.base_url", "https://api.1inch.dev")
	v.SetDefault("aggregator.timeout", "8s")
	v.SetDefault("aggregator.requests_per_minute", 60)
	v.SetDefault("aggregator.price_cache_ttl", "30s")
	v.SetDefault("aggregator.slippage_percent", 1)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", "5s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "executor.db")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("execution.default_max_gas_price_gwei", 100)
	v.SetDefault("execution.default_min_profit_percent", 0.15)
	v.SetDefault("execution.default_notify_threshold_usd", 10)
	v.SetDefault("execution.min_gas_reserve", 0.1)
	v.SetDefault("execution.notify_on_failure", false)
	v.SetDefault("execution.simulated_output_multiple", 1.01)
	v.SetDefault("execution.private_key_env_fallback", []string{"ARB_PRIVATE_KEY", "PRIVATE_KEY"})

	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flashloan-executor")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for name, chain := range map[string]ChainConfig{"mainnet": c.Networks.Mainnet, "testnet": c.Networks.Testnet} {
		if chain.ChainID == 0 {
			return fmt.Errorf("networks.%s.chain_id is required", name)
		}
		if chain.RPCURL == "" {
			return fmt.Errorf("networks.%s.rpc_url is required", name)
		}
	}
	if c.Networks.Mainnet.ChainID == c.Networks.Testnet.ChainID {
		return fmt.Errorf("networks.mainnet and networks.testnet must use different chain ids")
	}
	if c.Execution.ReceiverContract != "" && !common.IsHexAddress(c.Execution.ReceiverContract) {
		return fmt.Errorf("invalid execution.receiver_contract: %s", c.Execution.ReceiverContract)
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver: %s", c.Database.Driver)
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	return nil
}
