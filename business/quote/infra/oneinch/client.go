// Package oneinch implements the Aggregator port against the 1inch swap and
// spot price APIs.
package oneinch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-executor/business/quote/app"
	"github.com/fd1az/flashloan-executor/business/quote/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/circuitbreaker"
	"github.com/fd1az/flashloan-executor/internal/httpclient"
	"github.com/fd1az/flashloan-executor/internal/logger"
	"github.com/fd1az/flashloan-executor/internal/ratelimit"
)

const (
	tracerName = "quote.oneinch"

	DefaultBaseURL = "https://api.1inch.dev"
	defaultTimeout = 8 * time.Second

	quotePath = "/swap/v6.0/%d/quote"
	swapPath  = "/swap/v6.0/%d/swap"
	pricePath = "/price/v1.1/%d/%s"
)

var _ app.Aggregator = (*Client)(nil)

// Config holds configuration for the 1inch client.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client talks to the 1inch developer portal.
type Client struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*httpclient.Response]
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewClient creates a 1inch client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("1inch"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithBearerToken(cfg.APIKey),
		httpclient.WithRateLimiter(ratelimit.New(cfg.RequestsPerMinute)),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	breaker := circuitbreaker.DefaultConfig("1inch")
	breaker.IsSuccessful = breakerSuccess

	return &Client{
		client: client,
		cb:     circuitbreaker.New[*httpclient.Response](breaker),
		logger: log,
		tracer: tracer,
	}, nil
}

type protocolHop struct {
	Name string `json:"name"`
}

type quoteResponse struct {
	DstAmount string            `json:"dstAmount"`
	Gas       uint64            `json:"gas"`
	Protocols [][][]protocolHop `json:"protocols"`
}

type txResponse struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      uint64 `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

type swapResponse struct {
	DstAmount string            `json:"dstAmount"`
	Protocols [][][]protocolHop `json:"protocols"`
	Tx        txResponse        `json:"tx"`
}

// APIError is the error body 1inch returns.
type APIError struct {
	StatusCode  int    `json:"statusCode"`
	Message     string `json:"error"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("1inch %d: %s: %s", e.StatusCode, e.Message, e.Description)
	}
	return fmt.Sprintf("1inch %d: %s", e.StatusCode, e.Message)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.StatusCode = statusCode
	return apiErr
}

// breakerSuccess counts 4xx API rejections as successful calls.
func breakerSuccess(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500
	}
	return err == nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params map[string]string, result any) error {
	_, err := c.cb.Execute(func() (*httpclient.Response, error) {
		req := c.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", endpoint)),
			httpclient.WithResponseErrorHandler(errorHandler),
			httpclient.WithHeadersLogConfig(true, "Authorization"),
		).SetResult(result)
		for k, v := range params {
			req.SetQueryParam(k, v)
		}
		return req.Get(ctx, path)
	})
	if err != nil {
		return apperror.External(apperror.CodeAggregatorAPIError, endpoint, err)
	}
	return nil
}

func routeParams(req domain.QuoteRequest) map[string]string {
	return map[string]string{
		"src":              req.Src.Hex(),
		"dst":              req.Dst.Hex(),
		"amount":           req.Amount.String(),
		"includeGas":       "true",
		"includeProtocols": "true",
	}
}

// Quote prices a swap without building calldata.
func (c *Client) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.Route, error) {
	ctx, span := c.tracer.Start(ctx, "oneinch.quote", trace.WithAttributes(
		attribute.Int64("chain_id", int64(req.ChainID)),
		attribute.String("src", req.Src.Hex()),
		attribute.String("dst", req.Dst.Hex()),
		attribute.String("amount", req.Amount.String()),
	))
	defer span.End()

	var resp quoteResponse
	if err := c.get(ctx, "quote", fmt.Sprintf(quotePath, req.ChainID), routeParams(req), &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, err
	}

	toAmount, err := parseAmount(resp.DstAmount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid quote")
		return nil, err
	}

	span.SetAttributes(attribute.String("dst_amount", toAmount.String()))
	return &domain.Route{
		ToAmount:     toAmount,
		EstimatedGas: resp.Gas,
		Protocols:    flattenProtocols(resp.Protocols),
	}, nil
}

// Swap builds calldata for req.From.
func (c *Client) Swap(ctx context.Context, req domain.SwapRequest) (*domain.Route, error) {
	ctx, span := c.tracer.Start(ctx, "oneinch.swap", trace.WithAttributes(
		attribute.Int64("chain_id", int64(req.ChainID)),
		attribute.String("src", req.Src.Hex()),
		attribute.String("dst", req.Dst.Hex()),
		attribute.String("from", req.From.Hex()),
	))
	defer span.End()

	params := routeParams(req.QuoteRequest)
	delete(params, "includeGas")
	params["from"] = req.From.Hex()
	params["origin"] = req.From.Hex()
	params["slippage"] = strconv.FormatFloat(req.SlippagePercent, 'f', -1, 64)
	params["disableEstimate"] = "true"

	var resp swapResponse
	if err := c.get(ctx, "swap", fmt.Sprintf(swapPath, req.ChainID), params, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "swap failed")
		return nil, err
	}

	toAmount, err := parseAmount(resp.DstAmount)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	tx, err := resp.Tx.toDomain()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &domain.Route{
		ToAmount:     toAmount,
		EstimatedGas: tx.Gas,
		Protocols:    flattenProtocols(resp.Protocols),
		Tx:           tx,
	}, nil
}

// Prices returns USD spot prices. Tokens the API omits are absent from the map.
func (c *Client) Prices(ctx context.Context, chainID uint64, tokens []common.Address) (map[common.Address]decimal.Decimal, error) {
	ctx, span := c.tracer.Start(ctx, "oneinch.prices", trace.WithAttributes(
		attribute.Int64("chain_id", int64(chainID)),
		attribute.Int("tokens", len(tokens)),
	))
	defer span.End()

	addrs := make([]string, len(tokens))
	for i, t := range tokens {
		addrs[i] = strings.ToLower(t.Hex())
	}

	var resp map[string]string
	path := fmt.Sprintf(pricePath, chainID, strings.Join(addrs, ","))
	if err := c.get(ctx, "price", path, map[string]string{"currency": "USD"}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price failed")
		return nil, err
	}

	out := make(map[common.Address]decimal.Decimal, len(resp))
	for addr, raw := range resp {
		if !common.IsHexAddress(addr) {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.logger.Warn(ctx, "skipping unparsable price", "token", addr, "value", raw)
			continue
		}
		out[common.HexToAddress(addr)] = price
	}
	return out, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, apperror.New(apperror.CodeInvalidQuote, apperror.WithContext(fmt.Sprintf("dstAmount %q", s)))
	}
	return v, nil
}

func parseOptionalAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	return parseAmount(s)
}

func (t txResponse) toDomain() (*domain.SwapTx, error) {
	data, err := hexutil.Decode(t.Data)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidQuote, apperror.WithCause(err), apperror.WithContext("tx.data"))
	}
	value, err := parseOptionalAmount(t.Value)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseOptionalAmount(t.GasPrice)
	if err != nil {
		return nil, err
	}
	return &domain.SwapTx{
		From:     common.HexToAddress(t.From),
		To:       common.HexToAddress(t.To),
		Data:     data,
		Value:    value,
		Gas:      t.Gas,
		GasPrice: gasPrice,
	}, nil
}

func flattenProtocols(routes [][][]protocolHop) []string {
	seen := make(map[string]bool)
	var names []string
	for _, route := range routes {
		for _, step := range route {
			for _, hop := range step {
				if hop.Name != "" && !seen[hop.Name] {
					seen[hop.Name] = true
					names = append(names, hop.Name)
				}
			}
		}
	}
	return names
}
