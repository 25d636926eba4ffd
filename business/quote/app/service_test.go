package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fd1az/flashloan-executor/business/quote/app"
	"github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/business/quote/infra/synthetic"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

type fakeAggregator struct {
	route      *domain.Route
	err        error
	prices     map[common.Address]decimal.Decimal
	priceErr   error
	quoteCalls int
	swapCalls  int
	priceCalls [][]common.Address
	lastSwap   domain.SwapRequest
}

func (f *fakeAggregator) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Route, error) {
	f.quoteCalls++
	return f.route, f.err
}

func (f *fakeAggregator) Swap(ctx context.Context, req domain.SwapRequest) (*domain.Route, error) {
	f.swapCalls++
	f.lastSwap = req
	return f.route, f.err
}

func (f *fakeAggregator) Prices(ctx context.Context, chainID uint64, tokens []common.Address) (map[common.Address]decimal.Decimal, error) {
	f.priceCalls = append(f.priceCalls, tokens)
	return f.prices, f.priceErr
}

func newService(t *testing.T, agg app.Aggregator) *app.Service {
	t.Helper()
	svc, err := app.NewService(app.ServiceConfig{}, agg, synthetic.NewTable(), asset.DefaultRegistry(), logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func TestService_GetQuote_NoAPIKeyUsesSyntheticTable(t *testing.T) {
	svc := newService(t, nil)
	assert.False(t, svc.Live())

	q, err := svc.GetQuote(context.Background(), domain.QuoteRequest{
		ChainID: asset.ChainIDPolygon,
		Src:     asset.NativeSentinel,
		Dst:     asset.AddrUSDCPolygon,
		Amount:  new(big.Int).Mul(big.NewInt(100), pow10(18)),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceSynthetic, q.Source)
	assert.Equal(t, "POL", q.FromToken.Symbol())
	assert.Equal(t, "USDC", q.ToToken.Symbol())
	assert.Equal(t, "70", q.ToAmountDecimal().String())
	assert.Equal(t, domain.DefaultEstimatedGas, q.EstimatedGas)
}

func TestService_GetQuote_UnrecognizedPairIsOneToOne(t *testing.T) {
	svc := newService(t, nil)
	unknown := common.HexToAddress("0x00000000000000000000000000000000deadbeef")

	q, err := svc.GetQuote(context.Background(), domain.QuoteRequest{
		ChainID: asset.ChainIDPolygon,
		Src:     unknown,
		Dst:     asset.AddrWBTCPolygon,
		Amount:  big.NewInt(777),
	})
	require.NoError(t, err)

	assert.Equal(t, asset.UnknownSymbol, q.FromToken.Symbol())
	assert.Equal(t, uint8(18), q.FromToken.Decimals())
	assert.Equal(t, "777", q.ToAmount.String())
}

func TestService_GetQuote_Live(t *testing.T) {
	agg := &fakeAggregator{route: &domain.Route{
		ToAmount:     big.NewInt(123),
		EstimatedGas: 99,
		Protocols:    []string{"QUICKSWAP"},
	}}
	svc := newService(t, agg)

	q, err := svc.GetQuote(context.Background(), domain.QuoteRequest{
		ChainID: asset.ChainIDPolygon,
		Src:     asset.AddrUSDCPolygon,
		Dst:     asset.AddrWETHPolygon,
		Amount:  big.NewInt(1_000_000),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceAggregator, q.Source)
	assert.Equal(t, "123", q.ToAmount.String())
	assert.Equal(t, []string{"QUICKSWAP"}, q.Protocols)
	assert.Equal(t, 1, agg.quoteCalls)
}

func TestService_BuildSwap_FallsBackSilently(t *testing.T) {
	agg := &fakeAggregator{err: apperror.New(apperror.CodeAggregatorAPIError)}
	svc := newService(t, agg)

	from := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	q, err := svc.BuildSwap(context.Background(), domain.SwapRequest{
		QuoteRequest: domain.QuoteRequest{
			ChainID: asset.ChainIDPolygon,
			Src:     asset.AddrWETHPolygon,
			Dst:     asset.AddrUSDCPolygon,
			Amount:  pow10(18),
		},
		From:            from,
		SlippagePercent: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, agg.swapCalls)
	assert.Equal(t, from, agg.lastSwap.From)
	assert.True(t, q.IsSynthetic())
	assert.Equal(t, "2500", q.ToAmountDecimal().String())
	assert.Nil(t, q.Tx)
}

func TestService_RejectsInvalidRequestBeforeAggregator(t *testing.T) {
	agg := &fakeAggregator{}
	svc := newService(t, agg)

	_, err := svc.GetQuote(context.Background(), domain.QuoteRequest{
		ChainID: asset.ChainIDPolygon,
		Src:     asset.AddrUSDCPolygon,
		Dst:     asset.AddrWETHPolygon,
	})
	assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))
	assert.Zero(t, agg.quoteCalls)
}

func TestService_ExecuteSwapIsAlwaysSynthetic(t *testing.T) {
	agg := &fakeAggregator{route: &domain.Route{ToAmount: big.NewInt(1)}}
	svc := newService(t, agg)

	exec, err := svc.ExecuteSwap(context.Background(), domain.SwapRequest{
		QuoteRequest: domain.QuoteRequest{
			ChainID: asset.ChainIDPolygon,
			Src:     asset.AddrUSDCPolygon,
			Dst:     asset.AddrDAIPolygon,
			Amount:  big.NewInt(5_000_000),
		},
	})
	require.NoError(t, err)

	assert.Len(t, exec.TxHash, 66)
	assert.True(t, exec.Quote.IsSynthetic())
	assert.Equal(t, "5", exec.Quote.ToAmountDecimal().String())
	assert.Zero(t, agg.swapCalls)
	assert.Zero(t, agg.quoteCalls)
}

func TestService_GetTokenPrices(t *testing.T) {
	agg := &fakeAggregator{prices: map[common.Address]decimal.Decimal{
		asset.AddrWETHPolygon: decimal.RequireFromString("2431.5"),
	}}
	svc := newService(t, agg)
	ctx := context.Background()
	tokens := []common.Address{asset.AddrWETHPolygon, asset.AddrUSDCPolygon, asset.AddrWBTCPolygon}

	prices, err := svc.GetTokenPrices(ctx, asset.ChainIDPolygon, tokens)
	require.NoError(t, err)

	assert.Equal(t, "2431.5", prices[asset.AddrWETHPolygon].String())
	assert.Equal(t, "1", prices[asset.AddrUSDCPolygon].String(), "synthetic fill for tokens the API omitted")
	_, ok := prices[asset.AddrWBTCPolygon]
	assert.False(t, ok, "tokens nobody prices are omitted")

	_, err = svc.GetTokenPrices(ctx, asset.ChainIDPolygon, tokens)
	require.NoError(t, err)
	require.Len(t, agg.priceCalls, 2)
	assert.Equal(t, []common.Address{asset.AddrWBTCPolygon}, agg.priceCalls[1], "cached tokens are not refetched")
}

func TestService_GetTokenPrices_AggregatorDown(t *testing.T) {
	agg := &fakeAggregator{priceErr: errors.New("connection reset")}
	svc := newService(t, agg)

	prices, err := svc.GetTokenPrices(context.Background(), asset.ChainIDPolygon,
		[]common.Address{asset.NativeSentinel, asset.AddrWETHPolygon})
	require.NoError(t, err)

	assert.Equal(t, "0.7", prices[asset.NativeSentinel].String())
	assert.Equal(t, "2500", prices[asset.AddrWETHPolygon].String())
}

func TestService_FallbackCountsOpenBreakerSeparately(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	ctx := context.Background()
	agg := &fakeAggregator{err: apperror.External(apperror.CodeAggregatorAPIError, "quote",
		apperror.New(apperror.CodeCircuitOpen))}
	svc := newService(t, agg)
	req := domain.QuoteRequest{
		ChainID: asset.ChainIDPolygon,
		Src:     asset.AddrWETHPolygon,
		Dst:     asset.AddrUSDCPolygon,
		Amount:  pow10(18),
	}

	_, err := svc.GetQuote(ctx, req)
	require.NoError(t, err)
	agg.err = errors.New("connection reset")
	_, err = svc.GetQuote(ctx, req)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	reasons := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "quote_fallbacks_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("reason")
				reasons[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"circuit_open": 1, "error": 1}, reasons)
}
