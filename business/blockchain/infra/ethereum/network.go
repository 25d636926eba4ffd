// Package ethereum implements the NetworkClient port over go-ethereum JSON-RPC.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/flashloan-executor/business/blockchain/app"
	"github.com/fd1az/flashloan-executor/business/blockchain/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/cache"
	"github.com/fd1az/flashloan-executor/internal/circuitbreaker"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

const (
	tracerName = "blockchain"
	meterName  = "blockchain"
)

var _ app.NetworkClient = (*Network)(nil)

// Backend is the subset of ethclient.Client the network client needs.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// Dialer opens a Backend for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// DialEthclient is the production Dialer.
func DialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Endpoint is one configured chain.
type Endpoint struct {
	ChainID uint64
	RPCURL  string
	Timeout time.Duration
}

// Config holds configuration for the network client.
type Config struct {
	Endpoints   []Endpoint
	GasPriceTTL time.Duration
	Dialer      Dialer
}

// DefaultGasPriceTTL is roughly one Polygon block.
const DefaultGasPriceTTL = 2 * time.Second

type networkMetrics struct {
	rpcCalls     metric.Int64Counter
	rpcErrors    metric.Int64Counter
	gasPriceGwei metric.Float64Gauge
	cacheHits    metric.Int64Counter
}

type chainConn struct {
	endpoint Endpoint
	backend  Backend
	cb       *circuitbreaker.CircuitBreaker[*big.Int]
}

// Network implements app.NetworkClient with one lazily dialed backend per chain.
type Network struct {
	cfg      Config
	logger   logger.LoggerInterface
	registry *asset.Registry

	mu    sync.Mutex
	conns map[uint64]*chainConn

	gasCache *cache.Cache[uint64, *domain.GasPrice]
	group    singleflight.Group

	tracer  trace.Tracer
	metrics *networkMetrics
}

// NewNetwork creates a network client.
func NewNetwork(cfg Config, registry *asset.Registry, log logger.LoggerInterface) (*Network, error) {
	if cfg.Dialer == nil {
		cfg.Dialer = DialEthclient
	}
	if cfg.GasPriceTTL <= 0 {
		cfg.GasPriceTTL = DefaultGasPriceTTL
	}

	n := &Network{
		cfg:      cfg,
		logger:   log,
		registry: registry,
		conns:    make(map[uint64]*chainConn, len(cfg.Endpoints)),
		gasCache: cache.New[uint64, *domain.GasPrice](time.Minute),
		tracer:   otel.Tracer(tracerName),
	}

	for _, ep := range cfg.Endpoints {
		cbCfg := circuitbreaker.DefaultConfig("rpc-" + strconv.FormatUint(ep.ChainID, 10))
		n.conns[ep.ChainID] = &chainConn{endpoint: ep, cb: circuitbreaker.New[*big.Int](cbCfg)}
	}

	if err := n.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return n, nil
}

func (n *Network) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	n.metrics = &networkMetrics{}

	n.metrics.rpcCalls, err = meter.Int64Counter(
		"rpc_calls_total",
		metric.WithDescription("Total RPC calls by method and chain"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	n.metrics.rpcErrors, err = meter.Int64Counter(
		"rpc_errors_total",
		metric.WithDescription("Failed RPC calls by method and chain"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	n.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Last observed gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	n.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	return err
}

// conn returns the dialed connection for chainID.
func (n *Network) conn(ctx context.Context, chainID uint64) (*chainConn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, ok := n.conns[chainID]
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedChain,
			apperror.WithContext(fmt.Sprintf("chain %d", chainID)))
	}
	if c.backend != nil {
		return c, nil
	}

	backend, err := n.cfg.Dialer(ctx, c.endpoint.RPCURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("chain %d", chainID)))
	}
	c.backend = backend
	n.logger.Info(ctx, "rpc connected", "chain_id", chainID, "url", c.endpoint.RPCURL)
	return c, nil
}

func (n *Network) callCtx(ctx context.Context, c *chainConn) (context.Context, context.CancelFunc) {
	if c.endpoint.Timeout > 0 {
		return context.WithTimeout(ctx, c.endpoint.Timeout)
	}
	return ctx, func() {}
}

// GetNativeBalance queries the latest balance of address.
func (n *Network) GetNativeBalance(ctx context.Context, address common.Address, chainID uint64) (*domain.NativeBalance, error) {
	ctx, span := n.tracer.Start(ctx, "network.get_native_balance",
		trace.WithAttributes(
			attribute.Int64("chain_id", int64(chainID)),
			attribute.String("address", address.Hex()),
		),
	)
	defer span.End()

	c, err := n.conn(ctx, chainID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no connection")
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("method", "eth_getBalance"), attribute.Int64("chain_id", int64(chainID)))
	n.metrics.rpcCalls.Add(ctx, 1, attrs)

	callCtx, cancel := n.callCtx(ctx, c)
	defer cancel()

	wei, err := c.cb.Execute(func() (*big.Int, error) {
		return c.backend.BalanceAt(callCtx, address, nil)
	})
	if err != nil {
		n.metrics.rpcErrors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, "balance failed")
		return nil, apperror.Wrap(err, apperror.CodeRPCError,
			fmt.Sprintf("eth_getBalance %s on chain %d", address.Hex(), chainID))
	}

	decimals := uint8(18)
	if native, ok := n.registry.GetNative(chainID); ok {
		decimals = native.Decimals()
	}

	balance := &domain.NativeBalance{ChainID: chainID, Address: address, Wei: wei, Decimals: decimals}
	span.SetAttributes(attribute.String("balance", balance.Formatted().String()))
	span.SetStatus(codes.Ok, "fetched")
	return balance, nil
}

// GetGasPrice returns the suggested gas price, cached briefly and deduplicated
// across concurrent callers.
func (n *Network) GetGasPrice(ctx context.Context, chainID uint64) (*domain.GasPrice, error) {
	ctx, span := n.tracer.Start(ctx, "network.get_gas_price",
		trace.WithAttributes(attribute.Int64("chain_id", int64(chainID))),
	)
	defer span.End()

	if price, ok := n.gasCache.Get(ctx, chainID); ok {
		n.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	v, err, shared := n.group.Do(strconv.FormatUint(chainID, 10), func() (any, error) {
		return n.fetchGasPrice(ctx, chainID)
	})
	span.SetAttributes(attribute.Bool("shared", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gas price failed")
		return nil, err
	}

	price := v.(*domain.GasPrice)
	span.SetAttributes(attribute.String("gwei", price.Gwei().String()))
	span.SetStatus(codes.Ok, "fetched")
	return price, nil
}

func (n *Network) fetchGasPrice(ctx context.Context, chainID uint64) (*domain.GasPrice, error) {
	c, err := n.conn(ctx, chainID)
	if err != nil {
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("method", "eth_gasPrice"), attribute.Int64("chain_id", int64(chainID)))
	n.metrics.rpcCalls.Add(ctx, 1, attrs)

	callCtx, cancel := n.callCtx(ctx, c)
	defer cancel()

	wei, err := c.cb.Execute(func() (*big.Int, error) {
		return c.backend.SuggestGasPrice(callCtx)
	})
	if err != nil {
		n.metrics.rpcErrors.Add(ctx, 1, attrs)
		return nil, apperror.Wrap(err, apperror.CodeRPCError,
			fmt.Sprintf("eth_gasPrice on chain %d", chainID))
	}

	price := domain.NewGasPrice(chainID, wei)
	n.gasCache.Set(ctx, chainID, price, n.cfg.GasPriceTTL)
	n.metrics.gasPriceGwei.Record(ctx, price.GweiFloat(),
		metric.WithAttributes(attribute.Int64("chain_id", int64(chainID))))

	n.logger.Debug(ctx, "gas price fetched", "chain_id", chainID, "gwei", price.Gwei().String())
	return price, nil
}

// BlockNumber returns the chain head.
func (n *Network) BlockNumber(ctx context.Context, chainID uint64) (uint64, error) {
	ctx, span := n.tracer.Start(ctx, "network.block_number",
		trace.WithAttributes(attribute.Int64("chain_id", int64(chainID))),
	)
	defer span.End()

	c, err := n.conn(ctx, chainID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	callCtx, cancel := n.callCtx(ctx, c)
	defer cancel()

	head, err := c.backend.BlockNumber(callCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "block number failed")
		return 0, apperror.Wrap(err, apperror.CodeRPCError, fmt.Sprintf("eth_blockNumber on chain %d", chainID))
	}
	span.SetAttributes(attribute.Int64("head", int64(head)))
	return head, nil
}

// Close releases every dialed backend.
func (n *Network) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, c := range n.conns {
		if c.backend != nil {
			c.backend.Close()
			c.backend = nil
		}
	}
	n.gasCache.Close()
	return nil
}
