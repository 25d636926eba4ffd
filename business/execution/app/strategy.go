package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/execution/domain"
	notificationDomain "github.com/fd1az/flashloan-executor/business/notification/domain"
	quoteDomain "github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
)

// strategy is the mode-specific tail of the pipeline, run once every
// pre-flight check has passed.
type strategy interface {
	name() string
	execute(ctx context.Context, r *run) (*domain.TradeExecutionResult, error)
}

func (p *Pipeline) strategyFor(simulated bool) strategy {
	if simulated {
		return simulationStrategy{p: p}
	}
	return realStrategy{p: p}
}

type simulationStrategy struct {
	p *Pipeline
}

func (simulationStrategy) name() string { return "simulation" }

func (s simulationStrategy) execute(ctx context.Context, r *run) (*domain.TradeExecutionResult, error) {
	p := s.p
	opp := r.opp

	principal, err := opp.Principal()
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInvalidOpportunity, "flash loan amount", err)
	}

	txHash := quoteDomain.SyntheticTxHash()
	profit := opp.EstimatedProfitUSD
	gasCost := opp.EstimatedGasCostUSD

	record := domain.NewTransaction(r.userID, opp, domain.StatusSuccess, true)
	record.AmountOut = principal.Mul(p.cfg.SimulatedOutputMultiple).String()
	record.ProfitUSD = profit
	record.GasCostUSD = gasCost
	record.NetProfitUSD = opp.NetProfitUSD()
	record.TxHash = txHash
	if err := p.deps.Transactions.CreateArbitrageTransaction(ctx, record); err != nil {
		return nil, apperror.Internal(apperror.CodeStorageError, "record simulated trade", err)
	}

	p.audit(ctx, r, domain.ActivityExecution, domain.LevelSuccess,
		"Simulated trade executed for "+opp.Pair()+", net profit "+usd(record.NetProfitUSD),
		map[string]any{"tx_hash": txHash, "dex_path": opp.DEXPath()})

	threshold := r.config.EffectiveNotificationThreshold(p.cfg.Defaults)
	if profit.GreaterThanOrEqual(threshold) {
		p.notify(ctx, r, formatSimulatedMessage(opp, txHash), notificationDomain.CategoryTradeExecuted)
	}

	return &domain.TradeExecutionResult{
		Success:    true,
		TxHash:     txHash,
		ProfitUSD:  &profit,
		GasCostUSD: &gasCost,
		Message:    "Simulated trade executed successfully",
	}, nil
}

type realStrategy struct {
	p *Pipeline
}

func (realStrategy) name() string { return "real" }

func (s realStrategy) execute(ctx context.Context, r *run) (*domain.TradeExecutionResult, error) {
	p := s.p
	opp := r.opp

	if p.cfg.ReceiverContract == nil {
		return nil, apperror.New(apperror.CodeReceiverContractMissing,
			apperror.WithContext("set execution.receiver_contract to the deployed flash loan receiver"))
	}
	receiver := *p.cfg.ReceiverContract

	principal, err := opp.Principal()
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInvalidOpportunity, "flash loan amount", err)
	}
	tokenIn := asset.NewAsset(asset.NewTokenAssetID(r.chainID, opp.TokenIn.CommonAddress()), opp.TokenIn.Symbol, opp.TokenIn.Decimals)
	amountIn, err := asset.ParseDecimalTruncating(tokenIn, principal)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInvalidOpportunity, "flash loan amount", err)
	}
	rawPrincipal := amountIn.Raw()
	if rawPrincipal.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidOpportunity,
			apperror.WithContext("flash loan amount rounds to zero at token precision"))
	}

	buy, err := s.buildLeg(ctx, r, opp.TokenIn, opp.TokenOut, rawPrincipal)
	if err != nil {
		return nil, err
	}
	sell, err := s.buildLeg(ctx, r, opp.TokenOut, opp.TokenIn, buy.ToAmount)
	if err != nil {
		return nil, err
	}

	amountOut := decimal.NewFromBigInt(sell.ToAmount, -int32(opp.TokenIn.Decimals))
	txHash := quoteDomain.SyntheticTxHash()
	profit := opp.EstimatedProfitUSD
	gasCost := opp.EstimatedGasCostUSD

	record := domain.NewTransaction(r.userID, opp, domain.StatusPending, false)
	record.AmountOut = amountOut.String()
	record.ProfitUSD = profit
	record.GasCostUSD = gasCost
	record.NetProfitUSD = opp.NetProfitUSD()
	record.TxHash = txHash
	if err := p.deps.Transactions.CreateArbitrageTransaction(ctx, record); err != nil {
		return nil, apperror.Internal(apperror.CodeStorageError, "record submitted trade", err)
	}

	p.audit(ctx, r, domain.ActivityExecution, domain.LevelSuccess,
		"Arbitrage transaction submitted for "+opp.Pair()+", settlement pending",
		map[string]any{
			"tx_hash":    txHash,
			"receiver":   receiver.Hex(),
			"wallet":     r.wallet.Hex(),
			"buy_quote":  buy.String(),
			"sell_quote": sell.String(),
		})

	p.notify(ctx, r, formatSubmittedMessage(opp, amountOut, txHash), notificationDomain.CategoryTradeSubmitted)

	return &domain.TradeExecutionResult{
		Success:    true,
		TxHash:     txHash,
		ProfitUSD:  &profit,
		GasCostUSD: &gasCost,
		Message:    "Arbitrage transaction submitted, settlement pending on receiver contract",
	}, nil
}

func (s realStrategy) buildLeg(ctx context.Context, r *run, from, to domain.Token, amount *big.Int) (*quoteDomain.SwapQuote, error) {
	q, err := s.p.deps.Quotes.BuildSwap(ctx, quoteDomain.SwapRequest{
		QuoteRequest: quoteDomain.QuoteRequest{
			ChainID: r.chainID,
			Src:     from.CommonAddress(),
			Dst:     to.CommonAddress(),
			Amount:  amount,
		},
		From:            *s.p.cfg.ReceiverContract,
		SlippagePercent: s.p.cfg.SlippagePercent,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeQuoteFailed, from.Symbol+" -> "+to.Symbol)
	}
	if q.IsSynthetic() {
		return nil, apperror.New(apperror.CodeSyntheticQuoteRejected,
			apperror.WithContext(from.Symbol+" -> "+to.Symbol+" quote is synthetic"))
	}
	return q, nil
}
