package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/cache"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

const (
	tracerName = "quote"
	meterName  = "quote"

	DefaultPriceCacheTTL = 30 * time.Second
)

// ServiceConfig tunes the quote service.
type ServiceConfig struct {
	PriceCacheTTL time.Duration
}

type serviceMetrics struct {
	quotes    metric.Int64Counter
	fallbacks metric.Int64Counter
}

type priceKey struct {
	chainID uint64
	token   common.Address
}

// Service produces swap quotes and USD prices. With no aggregator configured,
// or when it fails, it answers from the synthetic table instead of erroring.
type Service struct {
	aggregator Aggregator
	synthetic  SyntheticPricer
	registry   *asset.Registry
	prices     *cache.Cache[priceKey, decimal.Decimal]
	cfg        ServiceConfig
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	metrics    *serviceMetrics
}

// NewService builds a quote service. aggregator may be nil.
func NewService(cfg ServiceConfig, aggregator Aggregator, synthetic SyntheticPricer, registry *asset.Registry, log logger.LoggerInterface) (*Service, error) {
	if cfg.PriceCacheTTL <= 0 {
		cfg.PriceCacheTTL = DefaultPriceCacheTTL
	}

	s := &Service{
		aggregator: aggregator,
		synthetic:  synthetic,
		registry:   registry,
		prices:     cache.New[priceKey, decimal.Decimal](cfg.PriceCacheTTL),
		cfg:        cfg,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Service) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.quotes, err = meter.Int64Counter(
		"quotes_total",
		metric.WithDescription("Quotes served by source"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	s.metrics.fallbacks, err = meter.Int64Counter(
		"quote_fallbacks_total",
		metric.WithDescription("Aggregator failures answered from the synthetic table"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

// Live reports whether an aggregator is configured.
func (s *Service) Live() bool {
	return s.aggregator != nil
}

// ResolveToken returns registry metadata for address, or the UNKNOWN sentinel.
func (s *Service) ResolveToken(chainID uint64, address common.Address) *asset.Asset {
	return s.registry.Resolve(chainID, address)
}

// GetQuote prices req.
func (s *Service) GetQuote(ctx context.Context, req domain.QuoteRequest) (*domain.SwapQuote, error) {
	return s.route(ctx, "quote.get_quote", req, func(ctx context.Context) (*domain.Route, error) {
		return s.aggregator.Quote(ctx, req)
	})
}

// BuildSwap prices req and, when live, returns the transaction for req.From.
func (s *Service) BuildSwap(ctx context.Context, req domain.SwapRequest) (*domain.SwapQuote, error) {
	return s.route(ctx, "quote.build_swap", req.QuoteRequest, func(ctx context.Context) (*domain.Route, error) {
		return s.aggregator.Swap(ctx, req)
	})
}

// ExecuteSwap is always synthetic: it prices req from the table and returns a
// random transaction hash. Nothing is broadcast.
func (s *Service) ExecuteSwap(ctx context.Context, req domain.SwapRequest) (*domain.SwapExecution, error) {
	ctx, span := s.tracer.Start(ctx, "quote.execute_swap")
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	quote, err := s.syntheticQuote(req.QuoteRequest)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthetic quote failed")
		return nil, err
	}

	exec := &domain.SwapExecution{TxHash: domain.SyntheticTxHash(), Quote: quote}
	span.SetAttributes(attribute.String("tx_hash", exec.TxHash))
	s.logger.Info(ctx, "synthetic swap executed", "quote", quote.String(), "tx_hash", exec.TxHash)
	return exec, nil
}

type liveCall func(ctx context.Context) (*domain.Route, error)

func (s *Service) route(ctx context.Context, spanName string, req domain.QuoteRequest, live liveCall) (*domain.SwapQuote, error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.Int64("chain_id", int64(req.ChainID)),
		attribute.String("src", req.Src.Hex()),
		attribute.String("dst", req.Dst.Hex()),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	if s.aggregator != nil {
		r, err := live(ctx)
		if err == nil {
			quote := s.quoteFromRoute(req, r)
			s.count(ctx, quote)
			span.SetAttributes(attribute.String("source", string(quote.Source)))
			return quote, nil
		}

		reason := fallbackReason(err)
		s.metrics.fallbacks.Add(ctx, 1, metric.WithAttributes(reason))
		span.AddEvent("aggregator_fallback", trace.WithAttributes(reason, attribute.String("error", err.Error())))
		s.logger.Warn(ctx, "aggregator unavailable, using synthetic quote",
			"src", req.Src.Hex(), "dst", req.Dst.Hex(), "error", err)
	}

	quote, err := s.syntheticQuote(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthetic quote failed")
		return nil, err
	}
	s.count(ctx, quote)
	span.SetAttributes(attribute.String("source", string(quote.Source)))
	return quote, nil
}

// fallbackReason separates an open breaker from a failed call.
func fallbackReason(err error) attribute.KeyValue {
	if apperror.HasCode(err, apperror.CodeCircuitOpen) {
		return attribute.String("reason", "circuit_open")
	}
	return attribute.String("reason", "error")
}

func (s *Service) count(ctx context.Context, q *domain.SwapQuote) {
	s.metrics.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(q.Source))))
}

func (s *Service) quoteFromRoute(req domain.QuoteRequest, r *domain.Route) *domain.SwapQuote {
	return &domain.SwapQuote{
		ChainID:      req.ChainID,
		FromToken:    s.ResolveToken(req.ChainID, req.Src),
		ToToken:      s.ResolveToken(req.ChainID, req.Dst),
		FromAmount:   req.Amount,
		ToAmount:     r.ToAmount,
		EstimatedGas: r.EstimatedGas,
		Protocols:    r.Protocols,
		Source:       domain.SourceAggregator,
		Tx:           r.Tx,
	}
}

func (s *Service) syntheticQuote(req domain.QuoteRequest) (*domain.SwapQuote, error) {
	from := s.ResolveToken(req.ChainID, req.Src)
	to := s.ResolveToken(req.ChainID, req.Dst)

	out, err := s.synthetic.Convert(from, to, req.Amount)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeQuoteFailed,
			fmt.Sprintf("synthetic %s -> %s", from.Symbol(), to.Symbol()), err)
	}

	return &domain.SwapQuote{
		ChainID:      req.ChainID,
		FromToken:    from,
		ToToken:      to,
		FromAmount:   req.Amount,
		ToAmount:     out,
		EstimatedGas: s.synthetic.EstimatedGas(),
		Source:       domain.SourceSynthetic,
	}, nil
}

// GetTokenPrices returns USD prices for tokens. Cached prices are served first;
// the rest come from the aggregator or, failing that, the synthetic table.
// Tokens nobody can price are absent from the result.
func (s *Service) GetTokenPrices(ctx context.Context, chainID uint64, tokens []common.Address) (map[common.Address]decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "quote.get_token_prices", trace.WithAttributes(
		attribute.Int64("chain_id", int64(chainID)),
		attribute.Int("tokens", len(tokens)),
	))
	defer span.End()

	out := make(map[common.Address]decimal.Decimal, len(tokens))
	var missing []common.Address
	for _, t := range tokens {
		if p, ok := s.prices.Get(ctx, priceKey{chainID, t}); ok {
			out[t] = p
			continue
		}
		missing = append(missing, t)
	}
	span.SetAttributes(attribute.Int("cache_hits", len(out)))
	if len(missing) == 0 {
		return out, nil
	}

	var live map[common.Address]decimal.Decimal
	if s.aggregator != nil {
		var err error
		live, err = s.aggregator.Prices(ctx, chainID, missing)
		if err != nil {
			s.metrics.fallbacks.Add(ctx, 1, metric.WithAttributes(fallbackReason(err)))
			s.logger.Warn(ctx, "aggregator prices unavailable, using synthetic table", "error", err)
			live = nil
		}
	}

	for _, t := range missing {
		p, ok := live[t]
		if !ok {
			p, ok = s.synthetic.USDPrice(s.ResolveToken(chainID, t))
		}
		if !ok {
			continue
		}
		out[t] = p
		s.prices.Set(ctx, priceKey{chainID, t}, p, s.cfg.PriceCacheTTL)
	}

	return out, nil
}

// Close stops the price cache sweeper.
func (s *Service) Close() error {
	s.prices.Close()
	return nil
}
