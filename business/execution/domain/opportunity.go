// Package domain contains the core domain types for the execution context.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/internal/apperror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Token identifies one side of a pair.
type Token struct {
	Symbol   string `json:"symbol" validate:"required"`
	Address  string `json:"address" validate:"required,eth_addr"`
	Decimals uint8  `json:"decimals" validate:"lte=30"`
}

// CommonAddress returns the token address.
func (t Token) CommonAddress() common.Address {
	return common.HexToAddress(t.Address)
}

// Opportunity is a cross-DEX price gap found by the scanner. The pipeline only reads it.
type Opportunity struct {
	ID                  string          `json:"id" validate:"required"`
	TokenIn             Token           `json:"tokenIn"`
	TokenOut            Token           `json:"tokenOut"`
	BuyDEX              string          `json:"buyDex" validate:"required"`
	SellDEX             string          `json:"sellDex" validate:"required"`
	FlashLoanAmount     string          `json:"flashLoanAmount" validate:"required,numeric"`
	EstimatedProfitUSD  decimal.Decimal `json:"estimatedProfitUsd"`
	EstimatedGasCostUSD decimal.Decimal `json:"estimatedGasCostUsd"`
	NetProfitPercent    decimal.Decimal `json:"netProfitPercent"`
	CreatedAt           time.Time       `json:"createdAt" validate:"required"`
}

// Validate checks the opportunity shape.
func (o *Opportunity) Validate() error {
	if err := validate.Struct(o); err != nil {
		return apperror.New(apperror.CodeInvalidOpportunity,
			apperror.WithContext(formatValidationError(err)),
			apperror.WithCause(err))
	}
	if strings.EqualFold(o.TokenIn.Address, o.TokenOut.Address) {
		return apperror.New(apperror.CodeInvalidOpportunity, apperror.WithContext("tokenIn and tokenOut are the same"))
	}
	principal, err := o.Principal()
	if err != nil || !principal.IsPositive() {
		return apperror.New(apperror.CodeInvalidOpportunity, apperror.WithContext("flash loan amount must be positive"))
	}
	return nil
}

// Principal parses the flash-loan amount in TokenIn units.
func (o *Opportunity) Principal() (decimal.Decimal, error) {
	return decimal.NewFromString(o.FlashLoanAmount)
}

// Age returns how long ago the opportunity was found.
func (o *Opportunity) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// Pair formats as "WETH/USDC".
func (o *Opportunity) Pair() string {
	return o.TokenIn.Symbol + "/" + o.TokenOut.Symbol
}

// DEXPath formats as "quickswap -> sushiswap".
func (o *Opportunity) DEXPath() string {
	return o.BuyDEX + " -> " + o.SellDEX
}

// NetProfitUSD is estimated profit minus estimated gas.
func (o *Opportunity) NetProfitUSD() decimal.Decimal {
	return o.EstimatedProfitUSD.Sub(o.EstimatedGasCostUSD)
}

func formatValidationError(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
	}
	return strings.Join(messages, "; ")
}
