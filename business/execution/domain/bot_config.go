package domain

import "github.com/shopspring/decimal"

// Network modes
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// BotConfig holds a user's trading settings. Zero decimals mean unset.
type BotConfig struct {
	UserID                   string
	RealTradingEnabled       bool
	PrivateKey               string
	NetworkMode              string
	MaxGasPriceGwei          decimal.Decimal
	MinProfitPercent         decimal.Decimal
	NotificationThresholdUSD decimal.Decimal
	TelegramChatID           string
}

// Defaults are used for unset BotConfig fields.
type Defaults struct {
	MaxGasPriceGwei          decimal.Decimal
	MinProfitPercent         decimal.Decimal
	NotificationThresholdUSD decimal.Decimal
}

func (c *BotConfig) EffectiveMaxGasPrice(d Defaults) decimal.Decimal {
	return orDefault(c.MaxGasPriceGwei, d.MaxGasPriceGwei)
}

func (c *BotConfig) EffectiveMinProfitPercent(d Defaults) decimal.Decimal {
	return orDefault(c.MinProfitPercent, d.MinProfitPercent)
}

func (c *BotConfig) EffectiveNotificationThreshold(d Defaults) decimal.Decimal {
	return orDefault(c.NotificationThresholdUSD, d.NotificationThresholdUSD)
}

// IsTestnet reports whether the bot trades on the test network.
func (c *BotConfig) IsTestnet() bool {
	return c.NetworkMode == NetworkTestnet
}

func orDefault(v, def decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return def
	}
	return v
}
