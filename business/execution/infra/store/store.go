// Package store implements the execution context's persistence ports on gorm.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fd1az/flashloan-executor/business/execution/app"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	notificationApp "github.com/fd1az/flashloan-executor/business/notification/app"
	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

const (
	tracerName = "execution.store"

	defaultListLimit = 50
)

var (
	_ app.ConfigStore      = (*Store)(nil)
	_ app.ActivityLogger   = (*Store)(nil)
	_ app.TransactionStore = (*Store)(nil)

	_ notificationApp.ChatResolver = (*Store)(nil)
)

// Store implements the config, audit and transaction ports.
type Store struct {
	db     *gorm.DB
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// New creates a Store.
func New(db *gorm.DB, log logger.LoggerInterface) *Store {
	return &Store{db: db, logger: log, tracer: otel.Tracer(tracerName)}
}

// AutoMigrate creates or updates the tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return apperror.Internal(apperror.CodeStorageError, "auto migrate", err)
	}
	return nil
}

func (s *Store) span(ctx context.Context, op string, userID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "store."+op, trace.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("user_id", userID),
	))
}

func storageError(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	return apperror.Internal(apperror.CodeStorageError, op, err)
}

// GetBotConfig returns the user's config, or nil when there is none.
func (s *Store) GetBotConfig(ctx context.Context, userID string) (*domain.BotConfig, error) {
	ctx, span := s.span(ctx, "get_bot_config", userID)
	defer span.End()

	var model BotConfigModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(span, "get bot config", err)
	}
	return botConfigToDomain(&model), nil
}

// SaveBotConfig inserts or replaces the user's config.
func (s *Store) SaveBotConfig(ctx context.Context, cfg *domain.BotConfig) error {
	ctx, span := s.span(ctx, "save_bot_config", cfg.UserID)
	defer span.End()

	model := botConfigToModel(cfg)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return storageError(span, "save bot config", err)
	}
	return nil
}

// ResolveChatID returns the user's Telegram chat, or "" when none is set.
func (s *Store) ResolveChatID(ctx context.Context, userID string) (string, error) {
	cfg, err := s.GetBotConfig(ctx, userID)
	if err != nil || cfg == nil {
		return "", err
	}
	return cfg.TelegramChatID, nil
}

// CreateActivityLog appends an audit entry.
func (s *Store) CreateActivityLog(ctx context.Context, entry *domain.ActivityLog) error {
	ctx, span := s.span(ctx, "create_activity_log", entry.UserID)
	defer span.End()

	model, err := activityLogToModel(entry)
	if err != nil {
		return storageError(span, "encode activity metadata", err)
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return storageError(span, "create activity log", err)
	}
	return nil
}

// ListActivityLogs returns the user's latest entries, newest first.
func (s *Store) ListActivityLogs(ctx context.Context, userID string, limit int) ([]*domain.ActivityLog, error) {
	ctx, span := s.span(ctx, "list_activity_logs", userID)
	defer span.End()

	var models []ActivityLogModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(listLimit(limit)).
		Find(&models).Error
	if err != nil {
		return nil, storageError(span, "list activity logs", err)
	}

	logs := make([]*domain.ActivityLog, 0, len(models))
	for i := range models {
		entry, err := activityLogToDomain(&models[i])
		if err != nil {
			return nil, storageError(span, "decode activity log", err)
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

// CreateArbitrageTransaction appends an attempt record.
func (s *Store) CreateArbitrageTransaction(ctx context.Context, tx *domain.ArbitrageTransaction) error {
	ctx, span := s.span(ctx, "create_arbitrage_transaction", tx.UserID)
	defer span.End()
	span.SetAttributes(attribute.String("status", string(tx.Status)))

	if err := s.db.WithContext(ctx).Create(transactionToModel(tx)).Error; err != nil {
		return storageError(span, "create arbitrage transaction", err)
	}
	return nil
}

// ListArbitrageTransactions returns the user's latest records, newest first.
// An empty userID lists every user.
func (s *Store) ListArbitrageTransactions(ctx context.Context, userID string, limit int) ([]*domain.ArbitrageTransaction, error) {
	ctx, span := s.span(ctx, "list_arbitrage_transactions", userID)
	defer span.End()

	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(listLimit(limit))
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var models []ArbitrageTransactionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, storageError(span, "list arbitrage transactions", err)
	}

	txs := make([]*domain.ArbitrageTransaction, 0, len(models))
	for i := range models {
		tx, err := transactionToDomain(&models[i])
		if err != nil {
			return nil, storageError(span, "decode arbitrage transaction", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func botConfigToModel(c *domain.BotConfig) *BotConfigModel {
	return &BotConfigModel{
		UserID:                   c.UserID,
		RealTradingEnabled:       c.RealTradingEnabled,
		PrivateKey:               c.PrivateKey,
		NetworkMode:              c.NetworkMode,
		MaxGasPriceGwei:          c.MaxGasPriceGwei,
		MinProfitPercent:         c.MinProfitPercent,
		NotificationThresholdUSD: c.NotificationThresholdUSD,
		TelegramChatID:           c.TelegramChatID,
	}
}

func botConfigToDomain(m *BotConfigModel) *domain.BotConfig {
	return &domain.BotConfig{
		UserID:                   m.UserID,
		RealTradingEnabled:       m.RealTradingEnabled,
		PrivateKey:               m.PrivateKey,
		NetworkMode:              m.NetworkMode,
		MaxGasPriceGwei:          m.MaxGasPriceGwei,
		MinProfitPercent:         m.MinProfitPercent,
		NotificationThresholdUSD: m.NotificationThresholdUSD,
		TelegramChatID:           m.TelegramChatID,
	}
}

func activityLogToModel(e *domain.ActivityLog) (*ActivityLogModel, error) {
	metadata := "{}"
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(raw)
	}
	return &ActivityLogModel{
		ID:        e.ID.String(),
		UserID:    e.UserID,
		Type:      string(e.Type),
		Level:     string(e.Level),
		Message:   e.Message,
		Metadata:  metadata,
		CreatedAt: e.CreatedAt,
	}, nil
}

func activityLogToDomain(m *ActivityLogModel) (*domain.ActivityLog, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("activity log id %q: %w", m.ID, err)
	}
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("activity log metadata: %w", err)
		}
	}
	return &domain.ActivityLog{
		ID:        id,
		UserID:    m.UserID,
		Type:      domain.ActivityType(m.Type),
		Level:     domain.ActivityLevel(m.Level),
		Message:   m.Message,
		Metadata:  metadata,
		CreatedAt: m.CreatedAt,
	}, nil
}

func transactionToModel(tx *domain.ArbitrageTransaction) *ArbitrageTransactionModel {
	return &ArbitrageTransactionModel{
		ID:             tx.ID.String(),
		UserID:         tx.UserID,
		OpportunityID:  tx.OpportunityID,
		TokenInSymbol:  tx.TokenInSymbol,
		TokenOutSymbol: tx.TokenOutSymbol,
		AmountIn:       tx.AmountIn,
		AmountOut:      tx.AmountOut,
		ProfitUSD:      tx.ProfitUSD,
		GasCostUSD:     tx.GasCostUSD,
		NetProfitUSD:   tx.NetProfitUSD,
		Status:         string(tx.Status),
		TxHash:         tx.TxHash,
		DEXPath:        tx.DEXPath,
		Simulated:      tx.Simulated,
		CreatedAt:      tx.CreatedAt,
	}
}

func transactionToDomain(m *ArbitrageTransactionModel) (*domain.ArbitrageTransaction, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("transaction id %q: %w", m.ID, err)
	}
	return &domain.ArbitrageTransaction{
		ID:             id,
		UserID:         m.UserID,
		OpportunityID:  m.OpportunityID,
		TokenInSymbol:  m.TokenInSymbol,
		TokenOutSymbol: m.TokenOutSymbol,
		AmountIn:       m.AmountIn,
		AmountOut:      m.AmountOut,
		ProfitUSD:      m.ProfitUSD,
		GasCostUSD:     m.GasCostUSD,
		NetProfitUSD:   m.NetProfitUSD,
		Status:         domain.TransactionStatus(m.Status),
		TxHash:         m.TxHash,
		DEXPath:        m.DEXPath,
		Simulated:      m.Simulated,
		CreatedAt:      m.CreatedAt,
	}, nil
}
