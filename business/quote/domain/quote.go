// Package domain contains the quote context's value types.
package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
)

// Source names who produced a quote.
type Source string

const (
	SourceAggregator Source = "1inch"
	SourceSynthetic  Source = "synthetic"
)

// DefaultEstimatedGas is the gas figure attached to synthetic quotes.
const DefaultEstimatedGas uint64 = 150_000

// QuoteRequest asks for the output of swapping Amount raw units of Src into Dst.
type QuoteRequest struct {
	ChainID uint64
	Src     common.Address
	Dst     common.Address
	Amount  *big.Int
}

// Validate rejects requests no source could price.
func (r QuoteRequest) Validate() error {
	if r.Amount == nil || r.Amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("amount must be positive"))
	}
	if r.Src == r.Dst {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("source and destination token are the same"))
	}
	return nil
}

// SwapRequest is a QuoteRequest that also needs calldata for From.
type SwapRequest struct {
	QuoteRequest
	From            common.Address
	SlippagePercent float64
}

// SwapTx is the transaction an aggregator returns for a swap.
type SwapTx struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
}

// Route is an aggregator's answer before token metadata is attached.
type Route struct {
	ToAmount     *big.Int
	EstimatedGas uint64
	Protocols    []string
	Tx           *SwapTx
}

// SwapQuote is a priced swap leg.
type SwapQuote struct {
	ChainID      uint64
	FromToken    *asset.Asset
	ToToken      *asset.Asset
	FromAmount   *big.Int
	ToAmount     *big.Int
	EstimatedGas uint64
	Protocols    []string
	Source       Source
	Tx           *SwapTx
}

// IsSynthetic reports whether the quote came from the fallback table.
func (q *SwapQuote) IsSynthetic() bool {
	return q.Source == SourceSynthetic
}

// FromAmountDecimal is FromAmount in human units.
func (q *SwapQuote) FromAmountDecimal() decimal.Decimal {
	return asset.NewAmount(q.FromToken, q.FromAmount).ToDecimal()
}

// ToAmountDecimal is ToAmount in human units.
func (q *SwapQuote) ToAmountDecimal() decimal.Decimal {
	return asset.NewAmount(q.ToToken, q.ToAmount).ToDecimal()
}

func (q *SwapQuote) String() string {
	return fmt.Sprintf("%s %s -> %s %s via %s",
		q.FromAmountDecimal(), q.FromToken.Symbol(),
		q.ToAmountDecimal(), q.ToToken.Symbol(), q.Source)
}

// SwapExecution is the outcome of ExecuteSwap.
type SwapExecution struct {
	TxHash string
	Quote  *SwapQuote
}

// SyntheticTxHash returns a random 0x-prefixed 32-byte hex string.
func SyntheticTxHash() string {
	var h common.Hash
	if _, err := rand.Read(h[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return h.Hex()
}

// ZeroTxHash is the placeholder recorded for attempts that never produced a transaction.
var ZeroTxHash = common.Hash{}.Hex()
