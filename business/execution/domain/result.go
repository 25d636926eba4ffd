package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeExecutionResult is what one pipeline run returns.
type TradeExecutionResult struct {
	Success       bool
	TxHash        string
	ProfitUSD     *decimal.Decimal
	GasCostUSD    *decimal.Decimal
	Message       string
	Error         string
	ExecutionTime time.Duration
}

// ExecutionTimeMs returns the elapsed time in milliseconds.
func (r *TradeExecutionResult) ExecutionTimeMs() int64 {
	return r.ExecutionTime.Milliseconds()
}
