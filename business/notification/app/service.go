package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/flashloan-executor/business/notification/domain"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

// Service sends per-user notifications. With no sender configured every call is a no-op.
type Service struct {
	sender   Sender
	chats    ChatResolver
	logger   logger.LoggerInterface
	outcomes metric.Int64Counter
}

// NewService creates the service. sender may be nil.
func NewService(sender Sender, chats ChatResolver, log logger.LoggerInterface) (*Service, error) {
	outcomes, err := otel.Meter("notification").Int64Counter(
		"notifications_total",
		metric.WithDescription("Notifications by category and outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Service{sender: sender, chats: chats, logger: log, outcomes: outcomes}, nil
}

// Enabled reports whether messages are actually delivered.
func (s *Service) Enabled() bool {
	return s.sender != nil
}

// SendTelegramMessage delivers text to the user's chat. Users without a chat are skipped.
func (s *Service) SendTelegramMessage(ctx context.Context, userID, text, category string) error {
	if s.sender == nil {
		s.record(ctx, category, "disabled")
		return nil
	}

	chatID, err := s.chats.ResolveChatID(ctx, userID)
	if err != nil {
		s.record(ctx, category, "error")
		return apperror.Wrap(err, apperror.CodeNotificationError, "resolve chat for "+userID)
	}
	if chatID == "" {
		s.logger.Debug(ctx, "no chat configured, skipping notification", "user_id", userID, "category", category)
		s.record(ctx, category, "skipped")
		return nil
	}

	msg := domain.Message{ChatID: chatID, Text: text, Category: domain.Category(category)}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.record(ctx, category, "error")
		return apperror.Wrap(err, apperror.CodeNotificationError, category)
	}

	s.record(ctx, category, "sent")
	s.logger.Info(ctx, "notification sent", "user_id", userID, "category", category)
	return nil
}

func (s *Service) record(ctx context.Context, category, outcome string) {
	s.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("outcome", outcome),
	))
}
