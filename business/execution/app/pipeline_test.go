package app_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockchainDomain "github.com/fd1az/flashloan-executor/business/blockchain/domain"
	"github.com/fd1az/flashloan-executor/business/execution/app"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	quoteDomain "github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

const (
	testUserID     = "user-1"
	testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
)

var testReceiver = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

type fakeConfigs struct {
	cfg *domain.BotConfig
	err error
}

func (f *fakeConfigs) GetBotConfig(ctx context.Context, userID string) (*domain.BotConfig, error) {
	return f.cfg, f.err
}

type recorder struct {
	mu           sync.Mutex
	activity     []*domain.ActivityLog
	transactions []*domain.ArbitrageTransaction
	txErrs       []error
}

func (r *recorder) CreateActivityLog(ctx context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = append(r.activity, entry)
	return nil
}

func (r *recorder) CreateArbitrageTransaction(ctx context.Context, tx *domain.ArbitrageTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, tx)
	if len(r.txErrs) > 0 {
		err := r.txErrs[0]
		r.txErrs = r.txErrs[1:]
		return err
	}
	return nil
}

func (r *recorder) lastTransaction(t *testing.T) *domain.ArbitrageTransaction {
	t.Helper()
	require.NotEmpty(t, r.transactions)
	return r.transactions[len(r.transactions)-1]
}

func (r *recorder) hasActivity(typ domain.ActivityType, level domain.ActivityLevel) bool {
	for _, a := range r.activity {
		if a.Type == typ && a.Level == level {
			return true
		}
	}
	return false
}

type fakeNetwork struct {
	balanceWei *big.Int
	balanceErr error
	gasGwei    int64
	gasErr     error
	calls      []string
	chainIDs   []uint64
}

func (f *fakeNetwork) GetNativeBalance(ctx context.Context, address common.Address, chainID uint64) (*blockchainDomain.NativeBalance, error) {
	f.calls = append(f.calls, "balance")
	f.chainIDs = append(f.chainIDs, chainID)
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &blockchainDomain.NativeBalance{ChainID: chainID, Address: address, Wei: f.balanceWei, Decimals: 18}, nil
}

func (f *fakeNetwork) GetGasPrice(ctx context.Context, chainID uint64) (*blockchainDomain.GasPrice, error) {
	f.calls = append(f.calls, "gas")
	f.chainIDs = append(f.chainIDs, chainID)
	if f.gasErr != nil {
		return nil, f.gasErr
	}
	wei := new(big.Int).Mul(big.NewInt(f.gasGwei), big.NewInt(1_000_000_000))
	return blockchainDomain.NewGasPrice(chainID, wei), nil
}

type sentMessage struct {
	userID   string
	text     string
	category string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) SendTelegramMessage(ctx context.Context, userID, text, category string) error {
	f.sent = append(f.sent, sentMessage{userID: userID, text: text, category: category})
	return f.err
}

type fakeQuotes struct {
	source   quoteDomain.Source
	multiple int64
	err      error
	requests []quoteDomain.SwapRequest
}

func (f *fakeQuotes) BuildSwap(ctx context.Context, req quoteDomain.SwapRequest) (*quoteDomain.SwapQuote, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	registry := asset.DefaultRegistry()
	return &quoteDomain.SwapQuote{
		ChainID:    req.ChainID,
		FromToken:  registry.Resolve(req.ChainID, req.Src),
		ToToken:    registry.Resolve(req.ChainID, req.Dst),
		FromAmount: req.Amount,
		ToAmount:   new(big.Int).Mul(req.Amount, big.NewInt(f.multiple)),
		Source:     f.source,
	}, nil
}

// harness

type harness struct {
	configs  *fakeConfigs
	store    *recorder
	network  *fakeNetwork
	notifier *fakeNotifier
	quotes   *fakeQuotes
	env      map[string]string
	cfg      app.PipelineConfig
}

func newHarness() *harness {
	receiver := testReceiver
	return &harness{
		configs: &fakeConfigs{cfg: &domain.BotConfig{
			UserID:                   testUserID,
			RealTradingEnabled:       true,
			PrivateKey:               testPrivateKey,
			NetworkMode:              domain.NetworkMainnet,
			MaxGasPriceGwei:          decimal.NewFromInt(60),
			NotificationThresholdUSD: decimal.NewFromInt(10),
		}},
		store:    &recorder{},
		network:  &fakeNetwork{balanceWei: big.NewInt(500_000_000_000_000_000), gasGwei: 30},
		notifier: &fakeNotifier{},
		quotes:   &fakeQuotes{source: quoteDomain.SourceAggregator, multiple: 1},
		env:      map[string]string{},
		cfg: app.PipelineConfig{
			Defaults: domain.Defaults{
				MaxGasPriceGwei:          decimal.NewFromInt(100),
				MinProfitPercent:         decimal.RequireFromString("0.15"),
				NotificationThresholdUSD: decimal.NewFromInt(10),
			},
			MainnetChainID:   asset.ChainIDPolygon,
			TestnetChainID:   asset.ChainIDPolygonAmoy,
			ReceiverContract: &receiver,
			SlippagePercent:  1,
		},
	}
}

func (h *harness) pipeline(t *testing.T, opts ...app.PipelineOption) *app.Pipeline {
	t.Helper()
	env := func(key string) (string, bool) {
		v, ok := h.env[key]
		return v, ok
	}
	opts = append([]app.PipelineOption{app.WithEnv(env)}, opts...)
	p, err := app.NewPipeline(app.Collaborators{
		Configs:      h.configs,
		Activity:     h.store,
		Transactions: h.store,
		Network:      h.network,
		Notifier:     h.notifier,
		Quotes:       h.quotes,
	}, h.cfg, logger.NewDiscard(), opts...)
	require.NoError(t, err)
	return p
}

func testOpportunity(profitUSD int64) *domain.Opportunity {
	return &domain.Opportunity{
		ID:                  "opp-1",
		TokenIn:             domain.Token{Symbol: "USDC", Address: asset.AddrUSDCPolygon.Hex(), Decimals: 6},
		TokenOut:            domain.Token{Symbol: "WETH", Address: asset.AddrWETHPolygon.Hex(), Decimals: 18},
		BuyDEX:              "quickswap",
		SellDEX:             "sushiswap",
		FlashLoanAmount:     "1000",
		EstimatedProfitUSD:  decimal.NewFromInt(profitUSD),
		EstimatedGasCostUSD: decimal.NewFromInt(2),
		NetProfitPercent:    decimal.RequireFromString("2.3"),
		CreatedAt:           time.Now(),
	}
}

func requireOneRecord(t *testing.T, h *harness, status domain.TransactionStatus) *domain.ArbitrageTransaction {
	t.Helper()
	require.Len(t, h.store.transactions, 1)
	tx := h.store.transactions[0]
	assert.Equal(t, status, tx.Status)
	return tx
}

// simulation

func TestPipeline_SimulationAboveThresholdNotifies(t *testing.T) {
	h := newHarness()
	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.TxHash)
	assert.True(t, res.ProfitUSD.Equal(decimal.NewFromInt(25)))
	assert.True(t, res.GasCostUSD.Equal(decimal.NewFromInt(2)))

	tx := requireOneRecord(t, h, domain.StatusSuccess)
	assert.Equal(t, res.TxHash, tx.TxHash)
	assert.Equal(t, "1010", tx.AmountOut)
	assert.True(t, tx.NetProfitUSD.Equal(decimal.NewFromInt(23)))
	assert.True(t, tx.Simulated)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "trade_executed", h.notifier.sent[0].category)
	assert.Contains(t, h.notifier.sent[0].text, "USDC/WETH")
}

func TestPipeline_SimulationBelowThresholdSkipsNotification(t *testing.T) {
	h := newHarness()
	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(5), true)

	require.True(t, res.Success, res.Error)
	requireOneRecord(t, h, domain.StatusSuccess)
	assert.Empty(t, h.notifier.sent)
}

func TestPipeline_SimulationProfitEqualToThresholdNotifies(t *testing.T) {
	h := newHarness()
	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(10), true)

	require.True(t, res.Success, res.Error)
	assert.Len(t, h.notifier.sent, 1)
}

func TestPipeline_SimulationNeedsNoCredential(t *testing.T) {
	h := newHarness()
	h.configs.cfg.PrivateKey = ""
	h.configs.cfg.RealTradingEnabled = false

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	require.True(t, res.Success, res.Error)
	requireOneRecord(t, h, domain.StatusSuccess)
	assert.Equal(t, []string{"gas"}, h.network.calls, "simulation skips the balance check but still checks gas")
}

func TestPipeline_SimulationRespectsGasCeiling(t *testing.T) {
	h := newHarness()
	h.network.gasGwei = 80

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	assert.False(t, res.Success)
	assert.Contains(t, strings.ToLower(res.Error), "gas price")
	requireOneRecord(t, h, domain.StatusFailed)
}

// real mode

func TestPipeline_RealSubmitsPendingTransaction(t *testing.T) {
	h := newHarness()
	h.quotes.multiple = 2

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	require.True(t, res.Success, res.Error)
	assert.NotEqual(t, quoteDomain.ZeroTxHash, res.TxHash)

	require.Len(t, h.quotes.requests, 2)
	buy, sell := h.quotes.requests[0], h.quotes.requests[1]

	assert.Equal(t, big.NewInt(1_000_000_000), buy.Amount, "principal scaled by USDC decimals")
	assert.Equal(t, asset.AddrUSDCPolygon, buy.Src)
	assert.Equal(t, asset.AddrWETHPolygon, buy.Dst)
	assert.Equal(t, big.NewInt(2_000_000_000), sell.Amount, "sell leg consumes buy leg output")
	assert.Equal(t, asset.AddrWETHPolygon, sell.Src)
	assert.Equal(t, testReceiver, buy.From)
	assert.Equal(t, testReceiver, sell.From)
	assert.Equal(t, uint64(asset.ChainIDPolygon), buy.ChainID)

	tx := requireOneRecord(t, h, domain.StatusPending)
	assert.Equal(t, "4000", tx.AmountOut)
	assert.False(t, tx.Simulated)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "trade_submitted", h.notifier.sent[0].category)
}

func TestPipeline_RealPrincipalTruncatesSubUnitDigits(t *testing.T) {
	h := newHarness()
	opp := testOpportunity(25)
	opp.FlashLoanAmount = "1.2345679"

	res := h.pipeline(t).Execute(context.Background(), testUserID, opp, false)

	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, h.quotes.requests)
	assert.Equal(t, big.NewInt(1_234_567), h.quotes.requests[0].Amount)
}

func TestPipeline_RealPrincipalBelowTokenPrecisionFails(t *testing.T) {
	h := newHarness()
	opp := testOpportunity(25)
	opp.FlashLoanAmount = "0.0000001"

	res := h.pipeline(t).Execute(context.Background(), testUserID, opp, false)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "rounds to zero")
	assert.Empty(t, h.quotes.requests)
}

func TestPipeline_RealAlwaysNotifiesEvenBelowThreshold(t *testing.T) {
	h := newHarness()
	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(1), false)

	require.True(t, res.Success, res.Error)
	assert.Len(t, h.notifier.sent, 1)
}

func TestPipeline_RealGasAboveCeilingFails(t *testing.T) {
	h := newHarness()
	h.network.gasGwei = 80

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	assert.False(t, res.Success)
	assert.Contains(t, strings.ToLower(res.Error), "gas price")
	assert.Contains(t, res.Error, "80 gwei > 60 gwei")

	tx := requireOneRecord(t, h, domain.StatusFailed)
	assert.Equal(t, quoteDomain.ZeroTxHash, tx.TxHash)
	assert.True(t, tx.ProfitUSD.IsZero())
	assert.True(t, tx.NetProfitUSD.IsZero())
	assert.Empty(t, h.notifier.sent)
	assert.Empty(t, h.quotes.requests)
}

func TestPipeline_GasEqualToCeilingPasses(t *testing.T) {
	h := newHarness()
	h.network.gasGwei = 60

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)
	assert.True(t, res.Success, res.Error)
}

func TestPipeline_DefaultGasCeilingWhenUnset(t *testing.T) {
	h := newHarness()
	h.configs.cfg.MaxGasPriceGwei = decimal.Zero
	h.network.gasGwei = 90

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)
	assert.True(t, res.Success, res.Error)

	h = newHarness()
	h.configs.cfg.MaxGasPriceGwei = decimal.Zero
	h.network.gasGwei = 101

	res = h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)
	assert.Equal(t, false, res.Success)
}

func TestPipeline_BuiltInDefaultsWithEmptyConfig(t *testing.T) {
	h := newHarness()
	h.cfg = app.PipelineConfig{MainnetChainID: asset.ChainIDPolygon, TestnetChainID: asset.ChainIDPolygonAmoy}
	h.configs.cfg.MaxGasPriceGwei = decimal.Zero
	h.configs.cfg.NotificationThresholdUSD = decimal.Zero

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(9), true)
	require.True(t, res.Success, res.Error)
	assert.Empty(t, h.notifier.sent, "profit below the built-in $10 threshold")

	res = h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(10), true)
	require.True(t, res.Success, res.Error)
	assert.Len(t, h.notifier.sent, 1)

	h.network.gasGwei = 101
	res = h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "100 gwei")
}

func TestPipeline_RealMissingCredentialFailsBeforeNetwork(t *testing.T) {
	h := newHarness()
	h.configs.cfg.PrivateKey = ""

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	assert.False(t, res.Success)
	assert.Equal(t, apperror.New(apperror.CodeCredentialMissing).Detail(), res.Error)
	assert.Empty(t, h.network.calls)
	requireOneRecord(t, h, domain.StatusFailed)
	assert.True(t, h.store.hasActivity(domain.ActivityConfiguration, domain.LevelError), "remediation hint logged")
}

func TestPipeline_RealCredentialFromEnvironment(t *testing.T) {
	h := newHarness()
	h.configs.cfg.PrivateKey = ""
	h.env["PRIVATE_KEY"] = "0x" + testPrivateKey

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"balance", "gas"}, h.network.calls)
}

func TestPipeline_InvalidCredential(t *testing.T) {
	h := newHarness()
	h.configs.cfg.PrivateKey = "not-a-key"

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	assert.False(t, res.Success)
	assert.Equal(t, apperror.New(apperror.CodeInvalidCredential).Message, strings.SplitN(res.Error, ":", 2)[0])
	assert.Empty(t, h.network.calls)
}

func TestPipeline_InsufficientReserveTakesPrecedenceOverGas(t *testing.T) {
	h := newHarness()
	h.network.balanceWei = big.NewInt(50_000_000_000_000_000) // 0.05
	h.network.gasGwei = 80

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Insufficient native balance")
	assert.Equal(t, []string{"balance"}, h.network.calls)
	requireOneRecord(t, h, domain.StatusFailed)
}

func TestPipeline_BalanceQueryFailureIsSoft(t *testing.T) {
	h := newHarness()
	h.network.balanceErr = errors.New("rpc timeout")

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"balance", "gas"}, h.network.calls)
	assert.True(t, h.store.hasActivity(domain.ActivityGasCheck, domain.LevelWarning))
	requireOneRecord(t, h, domain.StatusPending)
}

func TestPipeline_GasPriceQueryFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.network.gasErr = errors.New("rpc down")

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Gas price could not be fetched")
	requireOneRecord(t, h, domain.StatusFailed)
}

func TestPipeline_TestnetUsesTestnetChain(t *testing.T) {
	h := newHarness()
	h.configs.cfg.NetworkMode = domain.NetworkTestnet

	h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	require.NotEmpty(t, h.network.chainIDs)
	for _, id := range h.network.chainIDs {
		assert.Equal(t, uint64(asset.ChainIDPolygonAmoy), id)
	}
}

func TestPipeline_FatalGates(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness)
		simulated bool
		wantCode  apperror.Code
	}{
		{
			name:     "missing config",
			setup:    func(h *harness) { h.configs.cfg = nil },
			wantCode: apperror.CodeBotConfigNotFound,
		},
		{
			name:     "config load error",
			setup:    func(h *harness) { h.configs.cfg, h.configs.err = nil, errors.New("db locked") },
			wantCode: apperror.CodeStorageError,
		},
		{
			name:     "real trading disabled",
			setup:    func(h *harness) { h.configs.cfg.RealTradingEnabled = false },
			wantCode: apperror.CodeTradingDisabled,
		},
		{
			name:     "receiver contract missing",
			setup:    func(h *harness) { h.cfg.ReceiverContract = nil },
			wantCode: apperror.CodeReceiverContractMissing,
		},
		{
			name:     "synthetic quote rejected",
			setup:    func(h *harness) { h.quotes.source = quoteDomain.SourceSynthetic },
			wantCode: apperror.CodeSyntheticQuoteRejected,
		},
		{
			name:     "quote error",
			setup:    func(h *harness) { h.quotes.err = errors.New("aggregator exploded") },
			wantCode: apperror.CodeQuoteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)

			res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), tt.simulated)

			assert.False(t, res.Success)
			assert.Equal(t, apperror.New(tt.wantCode).Message, strings.SplitN(res.Error, ":", 2)[0])
			requireOneRecord(t, h, domain.StatusFailed)
			assert.True(t, h.store.hasActivity(domain.ActivityExecution, domain.LevelError))
			assert.Empty(t, h.notifier.sent, "failures are not notified by default")
		})
	}
}

func TestPipeline_InvalidOpportunity(t *testing.T) {
	h := newHarness()
	opp := testOpportunity(25)
	opp.TokenIn.Address = "nope"

	res := h.pipeline(t).Execute(context.Background(), testUserID, opp, true)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Opportunity is malformed")
	requireOneRecord(t, h, domain.StatusFailed)

	h = newHarness()
	res = h.pipeline(t).Execute(context.Background(), testUserID, nil, true)
	assert.False(t, res.Success)
	requireOneRecord(t, h, domain.StatusFailed)
}

// failure path

func TestPipeline_RecordWriteFailureWritesFailedRecord(t *testing.T) {
	h := newHarness()
	h.store.txErrs = []error{errors.New("disk full")}

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	assert.False(t, res.Success)
	require.Len(t, h.store.transactions, 2)
	assert.Equal(t, domain.StatusSuccess, h.store.transactions[0].Status)
	assert.Equal(t, domain.StatusFailed, h.store.lastTransaction(t).Status)
	assert.Empty(t, h.notifier.sent)
}

func TestPipeline_FailureNotificationWhenEnabled(t *testing.T) {
	h := newHarness()
	h.cfg.NotifyOnFailure = true
	h.network.gasGwei = 80

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), false)

	assert.False(t, res.Success)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "trade_failed", h.notifier.sent[0].category)
	assert.Contains(t, h.notifier.sent[0].text, "Gas price")
}

func TestPipeline_NotificationFailureDoesNotFailTrade(t *testing.T) {
	h := newHarness()
	h.notifier.err = errors.New("telegram down")

	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	assert.True(t, res.Success, res.Error)
	requireOneRecord(t, h, domain.StatusSuccess)
	assert.True(t, h.store.hasActivity(domain.ActivityNotification, domain.LevelWarning))
}

type panickingNetwork struct{ fakeNetwork }

func (p *panickingNetwork) GetGasPrice(ctx context.Context, chainID uint64) (*blockchainDomain.GasPrice, error) {
	panic("nil client")
}

func TestPipeline_PanicIsRecoveredIntoFailure(t *testing.T) {
	h := newHarness()
	p, err := app.NewPipeline(app.Collaborators{
		Configs:      h.configs,
		Activity:     h.store,
		Transactions: h.store,
		Network:      &panickingNetwork{},
		Notifier:     h.notifier,
		Quotes:       h.quotes,
	}, h.cfg, logger.NewDiscard())
	require.NoError(t, err)

	var res *domain.TradeExecutionResult
	require.NotPanics(t, func() {
		res = p.Execute(context.Background(), testUserID, testOpportunity(25), true)
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panic in gas_price")
	requireOneRecord(t, h, domain.StatusFailed)
}

// timing and observation

func TestPipeline_ExecutionTimeOnEveryPath(t *testing.T) {
	for _, fail := range []bool{false, true} {
		h := newHarness()
		if fail {
			h.configs.cfg = nil
		}

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		calls := 0
		clock := func() time.Time {
			calls++
			return base.Add(time.Duration(calls-1) * 250 * time.Millisecond)
		}

		res := h.pipeline(t, app.WithClock(clock)).Execute(context.Background(), testUserID, testOpportunity(25), true)
		assert.Equal(t, 250*time.Millisecond, res.ExecutionTime)
		assert.Equal(t, int64(250), res.ExecutionTimeMs())
	}
}

func TestPipeline_RealClockIsNonNegative(t *testing.T) {
	h := newHarness()
	res := h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)
	assert.GreaterOrEqual(t, res.ExecutionTime, time.Duration(0))
}

func TestPipeline_ObserverSeesStepsInOrder(t *testing.T) {
	h := newHarness()
	var events []app.StepEvent
	p := h.pipeline(t).WithObserver(func(ev app.StepEvent) { events = append(events, ev) })

	res := p.Execute(context.Background(), testUserID, testOpportunity(25), true)
	require.True(t, res.Success)

	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Step)
	}
	assert.Equal(t, domain.Steps, names)

	for _, ev := range events {
		if ev.Step == domain.StepGasReserve {
			assert.True(t, ev.Skipped)
		}
		assert.Equal(t, domain.OutcomePass, ev.Outcome)
	}
}

func TestPipeline_ObserverSeesSoftAndFatal(t *testing.T) {
	h := newHarness()
	h.network.balanceErr = errors.New("rpc timeout")
	h.network.gasGwei = 80

	var events []app.StepEvent
	p := h.pipeline(t).WithObserver(func(ev app.StepEvent) { events = append(events, ev) })
	p.Execute(context.Background(), testUserID, testOpportunity(25), false)

	outcomes := map[string]domain.Outcome{}
	for _, ev := range events {
		outcomes[ev.Step] = ev.Outcome
	}
	assert.Equal(t, domain.OutcomeSoft, outcomes[domain.StepGasReserve])
	assert.Equal(t, domain.OutcomeFatal, outcomes[domain.StepGasPrice])
	_, reached := outcomes[domain.StepExecute]
	assert.False(t, reached)
}

func TestPipeline_AuditStartIsFirstEntry(t *testing.T) {
	h := newHarness()
	h.pipeline(t).Execute(context.Background(), testUserID, testOpportunity(25), true)

	require.NotEmpty(t, h.store.activity)
	first := h.store.activity[0]
	assert.Equal(t, domain.ActivityValidation, first.Type)
	assert.Contains(t, first.Message, "opp-1")
	assert.Contains(t, first.Message, "simulation mode")
}
