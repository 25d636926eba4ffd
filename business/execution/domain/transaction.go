package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the final state of an attempt.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "success"
	StatusPending TransactionStatus = "pending"
	StatusFailed  TransactionStatus = "failed"
)

// ArbitrageTransaction is the persisted record of one attempt.
type ArbitrageTransaction struct {
	ID             uuid.UUID
	UserID         string
	OpportunityID  string
	TokenInSymbol  string
	TokenOutSymbol string
	AmountIn       string
	AmountOut      string
	ProfitUSD      decimal.Decimal
	GasCostUSD     decimal.Decimal
	NetProfitUSD   decimal.Decimal
	Status         TransactionStatus
	TxHash         string
	DEXPath        string
	Simulated      bool
	CreatedAt      time.Time
}

// NewTransaction starts a record for opp with a fresh ID.
func NewTransaction(userID string, opp *Opportunity, status TransactionStatus, simulated bool) *ArbitrageTransaction {
	return &ArbitrageTransaction{
		ID:             uuid.New(),
		UserID:         userID,
		OpportunityID:  opp.ID,
		TokenInSymbol:  opp.TokenIn.Symbol,
		TokenOutSymbol: opp.TokenOut.Symbol,
		AmountIn:       opp.FlashLoanAmount,
		Status:         status,
		DEXPath:        opp.DEXPath(),
		Simulated:      simulated,
		CreatedAt:      time.Now().UTC(),
	}
}
