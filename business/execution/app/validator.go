package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

// StalenessWindow is how old an opportunity may be and still execute.
const StalenessWindow = 30 * time.Second

const defaultMinProfitPercent = "0.15"

// ValidatorConfig tunes the opportunity validator.
type ValidatorConfig struct {
	MinProfitPercent decimal.Decimal
}

// Validator re-checks an opportunity's freshness and profitability before capital is committed.
type Validator struct {
	configs ConfigStore
	cfg     ValidatorConfig
	now     func() time.Time
	logger  logger.LoggerInterface
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorClock overrides time.Now.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator creates a Validator. Zero config values take the defaults.
func NewValidator(configs ConfigStore, cfg ValidatorConfig, log logger.LoggerInterface, opts ...ValidatorOption) *Validator {
	if cfg.MinProfitPercent.IsZero() {
		cfg.MinProfitPercent = decimal.RequireFromString(defaultMinProfitPercent)
	}
	v := &Validator{configs: configs, cfg: cfg, now: time.Now, logger: log}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateOpportunity reports whether opp is fresh and clears the user's
// minimum net profit. Any internal error counts as not valid.
func (v *Validator) ValidateOpportunity(ctx context.Context, userID string, opp *domain.Opportunity) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error(ctx, "opportunity validation panicked", "user_id", userID, "panic", r)
			valid = false
		}
	}()

	if opp == nil {
		return false
	}

	age := opp.Age(v.now())
	if age > StalenessWindow {
		v.logger.Debug(ctx, "opportunity is stale", "opportunity_id", opp.ID, "age", age)
		return false
	}

	cfg, err := v.configs.GetBotConfig(ctx, userID)
	if err != nil {
		v.logger.Warn(ctx, "failed to load bot config for validation", "user_id", userID, "error", err)
		return false
	}

	minProfit := v.cfg.MinProfitPercent
	if cfg != nil {
		minProfit = cfg.EffectiveMinProfitPercent(domain.Defaults{MinProfitPercent: minProfit})
	}

	if opp.NetProfitPercent.LessThan(minProfit) {
		v.logger.Debug(ctx, "opportunity below minimum profit",
			"opportunity_id", opp.ID,
			"net_profit_percent", opp.NetProfitPercent.String(),
			"min_profit_percent", minProfit.String(),
		)
		return false
	}
	return true
}
