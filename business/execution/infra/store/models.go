package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// BotConfigModel represents the bot_configs table.
type BotConfigModel struct {
	UserID                   string          `gorm:"column:user_id;primaryKey"`
	RealTradingEnabled       bool            `gorm:"column:real_trading_enabled;not null;default:false"`
	PrivateKey               string          `gorm:"column:private_key"`
	NetworkMode              string          `gorm:"column:network_mode;not null;default:mainnet"`
	MaxGasPriceGwei          decimal.Decimal `gorm:"column:max_gas_price_gwei;type:decimal(38,18)"`
	MinProfitPercent         decimal.Decimal `gorm:"column:min_profit_percent;type:decimal(38,18)"`
	NotificationThresholdUSD decimal.Decimal `gorm:"column:notification_threshold_usd;type:decimal(38,18)"`
	TelegramChatID           string          `gorm:"column:telegram_chat_id"`
	CreatedAt                time.Time       `gorm:"column:created_at"`
	UpdatedAt                time.Time       `gorm:"column:updated_at"`
}

func (BotConfigModel) TableName() string {
	return "bot_configs"
}

// ActivityLogModel represents the activity_logs table.
type ActivityLogModel struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	UserID    string    `gorm:"column:user_id;not null;index:idx_activity_user_created"`
	Type      string    `gorm:"column:type;not null"`
	Level     string    `gorm:"column:level;not null"`
	Message   string    `gorm:"column:message;type:text"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON object as text
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_activity_user_created"`
}

func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ArbitrageTransactionModel represents the arbitrage_transactions table.
type ArbitrageTransactionModel struct {
	ID             string          `gorm:"column:id;primaryKey;size:36"`
	UserID         string          `gorm:"column:user_id;not null;index:idx_tx_user_created"`
	OpportunityID  string          `gorm:"column:opportunity_id;index"`
	TokenInSymbol  string          `gorm:"column:token_in_symbol;not null"`
	TokenOutSymbol string          `gorm:"column:token_out_symbol;not null"`
	AmountIn       string          `gorm:"column:amount_in;not null"`
	AmountOut      string          `gorm:"column:amount_out;not null"`
	ProfitUSD      decimal.Decimal `gorm:"column:profit_usd;type:decimal(38,18)"`
	GasCostUSD     decimal.Decimal `gorm:"column:gas_cost_usd;type:decimal(38,18)"`
	NetProfitUSD   decimal.Decimal `gorm:"column:net_profit_usd;type:decimal(38,18)"`
	Status         string          `gorm:"column:status;not null;index"`
	TxHash         string          `gorm:"column:tx_hash;size:66"`
	DEXPath        string          `gorm:"column:dex_path"`
	Simulated      bool            `gorm:"column:simulated;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index:idx_tx_user_created"`
}

func (ArbitrageTransactionModel) TableName() string {
	return "arbitrage_transactions"
}

// AllModels lists every table the store migrates.
func AllModels() []any {
	return []any{
		&BotConfigModel{},
		&ActivityLogModel{},
		&ArbitrageTransactionModel{},
	}
}
