// Package telegram implements the notification Sender with the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-executor/business/notification/app"
	"github.com/fd1az/flashloan-executor/business/notification/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/circuitbreaker"
	"github.com/fd1az/flashloan-executor/internal/httpclient"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

const (
	tracerName = "notification.telegram"

	DefaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 5 * time.Second

	sendMessagePath = "/sendMessage"

	// Telegram rejects longer messages.
	maxMessageLength = 4096
)

var _ app.Sender = (*Client)(nil)

// Config holds configuration for the Telegram client.
type Config struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
}

// Client sends messages through a bot.
type Client struct {
	client httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*httpclient.Response]
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewClient creates a Telegram client. The token is part of the base URL so it
// never shows up in span paths.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("telegram bot token is empty"))
	}
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
		httpclient.WithProviderName("telegram"),
		httpclient.WithBaseURL(strings.TrimRight(baseURL, "/")+"/bot"+cfg.BotToken),
		httpclient.WithRedactedSecret(cfg.BotToken),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer),
		httpclient.WithHeaders(map[string]string{
			"Content-Type": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client: client,
		cb:     circuitbreaker.New[*httpclient.Response](circuitbreaker.DefaultConfig("telegram")),
		logger: log,
		tracer: tracer,
	}, nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// APIError is a rejected Bot API call.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %d: %s", e.Code, e.Description)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Description == "" {
		return &APIError{Code: statusCode, Description: strings.TrimSpace(string(body))}
	}
	return &APIError{Code: resp.ErrorCode, Description: resp.Description}
}

// Send posts msg to its chat.
func (c *Client) Send(ctx context.Context, msg domain.Message) error {
	ctx, span := c.tracer.Start(ctx, "telegram.send", trace.WithAttributes(
		attribute.String("chat_id", msg.ChatID),
		attribute.String("category", string(msg.Category)),
	))
	defer span.End()

	body := sendMessageRequest{
		ChatID:                msg.ChatID,
		Text:                  truncate(msg.Text, maxMessageLength),
		DisableWebPagePreview: true,
	}

	var resp apiResponse
	_, err := c.cb.Execute(func() (*httpclient.Response, error) {
		return c.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("method", "sendMessage")),
			httpclient.WithResponseErrorHandler(errorHandler),
		).SetBody(body).SetResult(&resp).Post(ctx, sendMessagePath)
	})
	if err == nil && !resp.OK {
		err = &APIError{Code: resp.ErrorCode, Description: resp.Description}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return apperror.External(apperror.CodeNotificationError, "sendMessage", err)
	}

	c.logger.Debug(ctx, "telegram message delivered", "chat_id", msg.ChatID)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
