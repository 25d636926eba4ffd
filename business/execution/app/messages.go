package app

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/execution/domain"
)

func usd(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func modeLabel(simulated bool) string {
	if simulated {
		return "simulation"
	}
	return "real"
}

func formatSimulatedMessage(opp *domain.Opportunity, txHash string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Simulated arbitrage executed\n")
	fmt.Fprintf(&b, "Pair: %s\n", opp.Pair())
	fmt.Fprintf(&b, "Route: %s\n", opp.DEXPath())
	fmt.Fprintf(&b, "Flash loan: %s %s\n", opp.FlashLoanAmount, opp.TokenIn.Symbol)
	fmt.Fprintf(&b, "Profit: %s (gas %s, net %s)\n", usd(opp.EstimatedProfitUSD), usd(opp.EstimatedGasCostUSD), usd(opp.NetProfitUSD()))
	fmt.Fprintf(&b, "Tx: %s", txHash)
	return b.String()
}

func formatSubmittedMessage(opp *domain.Opportunity, amountOut decimal.Decimal, txHash string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Arbitrage transaction submitted\n")
	fmt.Fprintf(&b, "Pair: %s\n", opp.Pair())
	fmt.Fprintf(&b, "Route: %s\n", opp.DEXPath())
	fmt.Fprintf(&b, "Flash loan: %s %s, expected back %s %s\n", opp.FlashLoanAmount, opp.TokenIn.Symbol, amountOut.String(), opp.TokenIn.Symbol)
	fmt.Fprintf(&b, "Estimated net profit: %s\n", usd(opp.NetProfitUSD()))
	fmt.Fprintf(&b, "Status: pending\n")
	fmt.Fprintf(&b, "Tx: %s", txHash)
	return b.String()
}

func formatFailedMessage(opp *domain.Opportunity, simulated bool, detail string) string {
	return fmt.Sprintf("Arbitrage %s failed\nPair: %s\nRoute: %s\nError: %s",
		modeLabel(simulated), opp.Pair(), opp.DEXPath(), detail)
}
