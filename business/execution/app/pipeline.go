package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockchainDomain "github.com/fd1az/flashloan-executor/business/blockchain/domain"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	notificationDomain "github.com/fd1az/flashloan-executor/business/notification/domain"
	quoteDomain "github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/apm"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

const (
	tracerName = "execution"
	meterName  = "execution"

	credentialHint = "Set a private key in the bot settings or export ARB_PRIVATE_KEY, or run in simulation mode"
)

// PipelineConfig holds the process-wide execution settings.
type PipelineConfig struct {
	Defaults                domain.Defaults
	MainnetChainID          uint64
	TestnetChainID          uint64
	MinGasReserve           decimal.Decimal
	ReceiverContract        *common.Address
	NotifyOnFailure         bool
	SimulatedOutputMultiple decimal.Decimal
	SlippagePercent         float64
	PrivateKeyEnv           []string
}

// Collaborators are the pipeline's external dependencies.
type Collaborators struct {
	Configs      ConfigStore
	Activity     ActivityLogger
	Transactions TransactionStore
	Network      NetworkClient
	Notifier     Notifier
	Quotes       QuoteSource
}

// StepEvent reports the outcome of one pipeline step.
type StepEvent struct {
	Step    string
	Outcome domain.Outcome
	Skipped bool
	Err     error
}

// StepObserver receives step events as they happen.
type StepObserver func(StepEvent)

type pipelineMetrics struct {
	executions   metric.Int64Counter
	stepFailures metric.Int64Counter
	duration     metric.Float64Histogram
	gasPrice     metric.Float64Gauge
}

// Pipeline runs the guarded execution sequence for one opportunity at a time.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	deps     Collaborators
	cfg      PipelineConfig
	env      EnvLookup
	now      func() time.Time
	observer StepObserver
	logger   logger.LoggerInterface
	tracer   apm.Tracer
	metrics  *pipelineMetrics
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithEnv overrides the environment lookup used for the credential fallback.
func WithEnv(env EnvLookup) PipelineOption {
	return func(p *Pipeline) {
		p.env = env
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(deps Collaborators, cfg PipelineConfig, log logger.LoggerInterface, opts ...PipelineOption) (*Pipeline, error) {
	if cfg.Defaults.MaxGasPriceGwei.IsZero() {
		cfg.Defaults.MaxGasPriceGwei = decimal.NewFromInt(100)
	}
	if cfg.Defaults.MinProfitPercent.IsZero() {
		cfg.Defaults.MinProfitPercent = decimal.RequireFromString("0.15")
	}
	if cfg.Defaults.NotificationThresholdUSD.IsZero() {
		cfg.Defaults.NotificationThresholdUSD = decimal.NewFromInt(10)
	}
	if cfg.SimulatedOutputMultiple.IsZero() {
		cfg.SimulatedOutputMultiple = decimal.RequireFromString("1.01")
	}
	if cfg.MinGasReserve.IsZero() {
		cfg.MinGasReserve = decimal.RequireFromString("0.1")
	}
	if len(cfg.PrivateKeyEnv) == 0 {
		cfg.PrivateKeyEnv = []string{"ARB_PRIVATE_KEY", "PRIVATE_KEY"}
	}

	p := &Pipeline{
		deps:   deps,
		cfg:    cfg,
		env:    OSEnv,
		now:    time.Now,
		logger: log,
		tracer: apm.NewTracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func (p *Pipeline) initMetrics() error {
	meter := otel.Meter(meterName)

	executions, err := meter.Int64Counter("executions_total",
		metric.WithDescription("Pipeline runs by mode and final status"))
	if err != nil {
		return err
	}
	stepFailures, err := meter.Int64Counter("step_failures_total",
		metric.WithDescription("Fatal and soft step failures by step and code"))
	if err != nil {
		return err
	}
	duration, err := meter.Float64Histogram("execution_duration_ms",
		metric.WithDescription("Wall-clock time of a pipeline run"),
		metric.WithUnit("ms"))
	if err != nil {
		return err
	}
	gasPrice, err := meter.Float64Gauge("gas_price_gwei",
		metric.WithDescription("Last gas price seen by the ceiling check"),
		metric.WithUnit("Gwei"))
	if err != nil {
		return err
	}

	p.metrics = &pipelineMetrics{
		executions:   executions,
		stepFailures: stepFailures,
		duration:     duration,
		gasPrice:     gasPrice,
	}
	return nil
}

// WithObserver returns a copy of the pipeline that reports steps to fn.
func (p *Pipeline) WithObserver(fn StepObserver) *Pipeline {
	cp := *p
	cp.observer = fn
	return &cp
}

// run is the state of one invocation.
type run struct {
	userID     string
	opp        *domain.Opportunity
	simulated  bool
	stage      string
	config     *domain.BotConfig
	privateKey string
	chainID    uint64
	wallet     common.Address
	gasPrice   *blockchainDomain.GasPrice
}

type step struct {
	name     string
	realOnly bool
	fn       func(ctx context.Context, r *run) domain.StepResult
}

func (p *Pipeline) steps() []step {
	return []step{
		{name: domain.StepAuditStart, fn: p.auditStart},
		{name: domain.StepLoadConfig, fn: p.loadConfig},
		{name: domain.StepModeGate, fn: p.modeGate},
		{name: domain.StepCredentials, fn: p.resolveCredentials},
		{name: domain.StepGasReserve, realOnly: true, fn: p.checkGasReserve},
		{name: domain.StepGasPrice, fn: p.checkGasPrice},
	}
}

// Execute runs the pipeline for opp. It never panics and never returns an
// error: every failure comes back as a result with Success false.
func (p *Pipeline) Execute(ctx context.Context, userID string, opp *domain.Opportunity, isSimulation bool) (result *domain.TradeExecutionResult) {
	start := p.now()

	r := &run{userID: userID, opp: opp, simulated: isSimulation}
	if r.opp == nil {
		r.opp = &domain.Opportunity{}
	}

	ctx, span := p.tracer.StartSpanFromContext(ctx, "execution.execute", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("opportunity_id", r.opp.ID),
		attribute.String("pair", r.opp.Pair()),
		attribute.Bool("simulated", isSimulation),
	))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error(ctx, "panic during trade execution", "stage", r.stage, "panic", rec)
			result = p.fail(ctx, r, apperror.New(apperror.CodeExecutionFailed,
				apperror.WithContext(fmt.Sprintf("panic in %s: %v", r.stage, rec))))
		}
		result.ExecutionTime = p.now().Sub(start)
		p.record(ctx, r, result)
		if result.Success {
			span.Ok("trade executed")
		} else {
			span.NoticeError(errors.New(result.Error))
		}
	}()

	if opp == nil {
		return p.fail(ctx, r, apperror.New(apperror.CodeInvalidOpportunity, apperror.WithContext("opportunity is nil")))
	}

	result, err := p.execute(ctx, r)
	if err != nil {
		return p.fail(ctx, r, err)
	}
	return result
}

func (p *Pipeline) execute(ctx context.Context, r *run) (*domain.TradeExecutionResult, error) {
	for _, s := range p.steps() {
		r.stage = s.name
		if s.realOnly && r.simulated {
			p.observe(StepEvent{Step: s.name, Outcome: domain.OutcomePass, Skipped: true})
			continue
		}

		res := p.runStep(ctx, r, s)
		p.observe(StepEvent{Step: s.name, Outcome: res.Outcome, Err: res.Err})

		switch res.Outcome {
		case domain.OutcomeFatal:
			p.countStepFailure(ctx, s.name, res)
			return nil, res.Err
		case domain.OutcomeSoft:
			p.countStepFailure(ctx, s.name, res)
		}
	}

	r.stage = domain.StepExecute
	strategy := p.strategyFor(r.simulated)

	ctx, span := p.tracer.StartSpanFromContext(ctx, "execution.step."+domain.StepExecute,
		trace.WithAttributes(attribute.String("strategy", strategy.name())))
	defer span.End()

	result, err := strategy.execute(ctx, r)
	if err != nil {
		span.NoticeError(err)
		p.observe(StepEvent{Step: domain.StepExecute, Outcome: domain.OutcomeFatal, Err: err})
		p.countStepFailure(ctx, domain.StepExecute, domain.Fatal(err))
		return nil, err
	}
	p.observe(StepEvent{Step: domain.StepExecute, Outcome: domain.OutcomePass})
	return result, nil
}

func (p *Pipeline) runStep(ctx context.Context, r *run, s step) domain.StepResult {
	ctx, span := p.tracer.StartSpanFromContext(ctx, "execution.step."+s.name)
	defer span.End()

	res := s.fn(ctx, r)
	switch res.Outcome {
	case domain.OutcomeFatal:
		span.NoticeError(res.Err)
	case domain.OutcomeSoft:
		span.AddEvent("soft_failure", trace.WithAttributes(attribute.String("error", res.Err.Error())))
	}
	return res
}

func (p *Pipeline) auditStart(ctx context.Context, r *run) domain.StepResult {
	p.audit(ctx, r, domain.ActivityValidation, domain.LevelInfo,
		fmt.Sprintf("Validating opportunity %s for %s (%s mode)", r.opp.ID, r.opp.Pair(), modeLabel(r.simulated)),
		map[string]any{
			"opportunity_id": r.opp.ID,
			"pair":           r.opp.Pair(),
			"dex_path":       r.opp.DEXPath(),
			"simulated":      r.simulated,
		})
	return domain.Pass()
}

func (p *Pipeline) loadConfig(ctx context.Context, r *run) domain.StepResult {
	cfg, err := p.deps.Configs.GetBotConfig(ctx, r.userID)
	if err != nil {
		return domain.Fatal(apperror.Wrap(err, apperror.CodeStorageError, "load bot config"))
	}
	if cfg == nil {
		return domain.Fatal(apperror.New(apperror.CodeBotConfigNotFound, apperror.WithContext("user "+r.userID)))
	}
	if err := r.opp.Validate(); err != nil {
		return domain.Fatal(err)
	}

	r.config = cfg
	r.chainID = p.cfg.MainnetChainID
	if cfg.IsTestnet() {
		r.chainID = p.cfg.TestnetChainID
	}
	return domain.Pass()
}

func (p *Pipeline) modeGate(ctx context.Context, r *run) domain.StepResult {
	if !r.simulated && !r.config.RealTradingEnabled {
		return domain.Fatal(apperror.New(apperror.CodeTradingDisabled))
	}
	return domain.Pass()
}

func (p *Pipeline) resolveCredentials(ctx context.Context, r *run) domain.StepResult {
	r.privateKey = r.config.PrivateKey
	if r.privateKey == "" {
		for _, key := range p.cfg.PrivateKeyEnv {
			if v, ok := p.env(key); ok && v != "" {
				r.privateKey = v
				break
			}
		}
	}

	if r.privateKey == "" && !r.simulated {
		p.audit(ctx, r, domain.ActivityConfiguration, domain.LevelError, credentialHint, nil)
		return domain.Fatal(apperror.New(apperror.CodeCredentialMissing))
	}
	return domain.Pass()
}

func (p *Pipeline) checkGasReserve(ctx context.Context, r *run) domain.StepResult {
	wallet, err := blockchainDomain.WalletAddress(r.privateKey)
	if err != nil {
		return domain.Fatal(apperror.Internal(apperror.CodeInvalidCredential, "derive wallet address", err))
	}
	r.wallet = wallet

	balance, err := p.deps.Network.GetNativeBalance(ctx, wallet, r.chainID)
	if err != nil {
		p.logger.Warn(ctx, "native balance check failed, continuing", "wallet", wallet.Hex(), "chain_id", r.chainID, "error", err)
		p.audit(ctx, r, domain.ActivityGasCheck, domain.LevelWarning,
			"Could not verify native balance for gas; continuing",
			map[string]any{"wallet": wallet.Hex(), "chain_id": r.chainID, "error": err.Error()})
		return domain.SoftFail(apperror.External(apperror.CodeBalanceCheckUnavailable, wallet.Hex(), err))
	}

	if !balance.Covers(p.cfg.MinGasReserve) {
		return domain.Fatal(apperror.New(apperror.CodeInsufficientGasReserve, apperror.WithContext(
			fmt.Sprintf("balance %s below reserve %s", balance.Formatted().String(), p.cfg.MinGasReserve.String()))))
	}

	p.audit(ctx, r, domain.ActivityGasCheck, domain.LevelInfo,
		fmt.Sprintf("Native balance %s covers gas reserve", balance.Formatted().String()),
		map[string]any{"wallet": wallet.Hex(), "chain_id": r.chainID})
	return domain.Pass()
}

func (p *Pipeline) checkGasPrice(ctx context.Context, r *run) domain.StepResult {
	gasPrice, err := p.deps.Network.GetGasPrice(ctx, r.chainID)
	if err != nil {
		return domain.Fatal(apperror.External(apperror.CodeGasPriceUnavailable, fmt.Sprintf("chain %d", r.chainID), err))
	}
	r.gasPrice = gasPrice
	p.metrics.gasPrice.Record(ctx, gasPrice.GweiFloat(), metric.WithAttributes(attribute.Int64("chain_id", int64(r.chainID))))

	maxGwei := r.config.EffectiveMaxGasPrice(p.cfg.Defaults)
	if gasPrice.Exceeds(maxGwei) {
		return domain.Fatal(apperror.New(apperror.CodeGasPriceTooHigh, apperror.WithContext(
			fmt.Sprintf("%s gwei > %s gwei", gasPrice.Gwei().String(), maxGwei.String()))))
	}

	p.audit(ctx, r, domain.ActivityGasCheck, domain.LevelInfo,
		fmt.Sprintf("Gas price %s gwei within limit %s gwei", gasPrice.Gwei().String(), maxGwei.String()),
		map[string]any{"chain_id": r.chainID})
	return domain.Pass()
}

// fail is the single recovery boundary. It never panics.
func (p *Pipeline) fail(ctx context.Context, r *run, err error) *domain.TradeExecutionResult {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(apperror.CodeExecutionFailed, err.Error(), err)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() && appErr.TraceID == "" {
		appErr.WithTraceID(sc.TraceID().String())
	}
	detail := appErr.Detail()

	p.logger.Error(ctx, "trade execution failed",
		"user_id", r.userID,
		"opportunity_id", r.opp.ID,
		"pair", r.opp.Pair(),
		"stage", r.stage,
		"simulated", r.simulated,
		"code", appErr.Code.String(),
		"error", appErr.Error(),
	)

	meta := appErr.ToLog()
	meta["code"] = appErr.Code.String()
	meta["opportunity_id"] = r.opp.ID
	meta["stage"] = r.stage
	meta["simulated"] = r.simulated
	p.audit(ctx, r, domain.ActivityExecution, domain.LevelError, "Trade execution failed: "+detail, meta)

	record := domain.NewTransaction(r.userID, r.opp, domain.StatusFailed, r.simulated)
	record.AmountOut = "0"
	record.ProfitUSD = decimal.Zero
	record.GasCostUSD = decimal.Zero
	record.NetProfitUSD = decimal.Zero
	record.TxHash = quoteDomain.ZeroTxHash
	if err := guard(func() error { return p.deps.Transactions.CreateArbitrageTransaction(ctx, record) }); err != nil {
		p.logger.Error(ctx, "failed to record failed transaction", "opportunity_id", r.opp.ID, "error", err)
	}

	if p.cfg.NotifyOnFailure {
		p.notify(ctx, r, formatFailedMessage(r.opp, r.simulated, detail), notificationDomain.CategoryTradeFailed)
	}

	return &domain.TradeExecutionResult{
		Success: false,
		Message: "Trade execution failed",
		Error:   detail,
	}
}

// audit writes an activity entry. Audit failures are logged and do not affect the run.
func (p *Pipeline) audit(ctx context.Context, r *run, typ domain.ActivityType, level domain.ActivityLevel, message string, metadata map[string]any) {
	entry := domain.NewActivityLog(r.userID, typ, level, message, metadata)
	if err := guard(func() error { return p.deps.Activity.CreateActivityLog(ctx, entry) }); err != nil {
		p.logger.Warn(ctx, "failed to write activity log", "type", string(typ), "error", err)
	}
}

// notify sends a message. Delivery failures are logged and do not affect the run.
func (p *Pipeline) notify(ctx context.Context, r *run, text string, category notificationDomain.Category) {
	err := guard(func() error { return p.deps.Notifier.SendTelegramMessage(ctx, r.userID, text, string(category)) })
	if err != nil {
		p.logger.Warn(ctx, "notification failed", "user_id", r.userID, "category", string(category), "error", err)
		p.audit(ctx, r, domain.ActivityNotification, domain.LevelWarning, "Notification delivery failed", map[string]any{
			"category": string(category),
			"error":    err.Error(),
		})
		return
	}
	p.audit(ctx, r, domain.ActivityNotification, domain.LevelInfo, "Notification sent", map[string]any{"category": string(category)})
}

func (p *Pipeline) observe(ev StepEvent) {
	if p.observer != nil {
		p.observer(ev)
	}
}

func (p *Pipeline) countStepFailure(ctx context.Context, stepName string, res domain.StepResult) {
	p.metrics.stepFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", stepName),
		attribute.String("outcome", res.Outcome.String()),
		attribute.String("code", apperror.GetCode(res.Err).String()),
	))
}

func (p *Pipeline) record(ctx context.Context, r *run, result *domain.TradeExecutionResult) {
	status := "failed"
	if result.Success {
		status = "success"
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", modeLabel(r.simulated)),
		attribute.String("status", status),
	)
	p.metrics.executions.Add(ctx, 1, attrs)
	p.metrics.duration.Record(ctx, float64(result.ExecutionTime.Microseconds())/1000, attrs)
}

// guard turns a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
