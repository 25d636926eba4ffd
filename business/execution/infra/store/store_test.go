package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/database"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: database.DriverSQLite, DSN: ":memory:"}, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	s := New(db, logger.NewDiscard())
	require.NoError(t, s.AutoMigrate(context.Background()))
	return s
}

func testOpportunity() *domain.Opportunity {
	return &domain.Opportunity{
		ID:                  "opp-1",
		TokenIn:             domain.Token{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
		TokenOut:            domain.Token{Symbol: "WETH", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
		BuyDEX:              "quickswap",
		SellDEX:             "sushiswap",
		FlashLoanAmount:     "1000",
		EstimatedProfitUSD:  decimal.NewFromInt(25),
		EstimatedGasCostUSD: decimal.NewFromInt(2),
		CreatedAt:           time.Now(),
	}
}

func TestStore_BotConfig(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	missing, err := s.GetBotConfig(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cfg := &domain.BotConfig{
		UserID:                   "user-1",
		RealTradingEnabled:       true,
		NetworkMode:              domain.NetworkTestnet,
		MaxGasPriceGwei:          decimal.NewFromInt(60),
		MinProfitPercent:         decimal.RequireFromString("0.25"),
		NotificationThresholdUSD: decimal.NewFromInt(10),
		TelegramChatID:           "42",
	}
	require.NoError(t, s.SaveBotConfig(ctx, cfg))

	got, err := s.GetBotConfig(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.RealTradingEnabled)
	assert.True(t, got.IsTestnet())
	assert.True(t, got.MaxGasPriceGwei.Equal(decimal.NewFromInt(60)))
	assert.True(t, got.MinProfitPercent.Equal(decimal.RequireFromString("0.25")))

	cfg.TelegramChatID = "43"
	require.NoError(t, s.SaveBotConfig(ctx, cfg))

	chat, err := s.ResolveChatID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "43", chat)

	chat, err = s.ResolveChatID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, chat)
}

func TestStore_ActivityLogs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := domain.NewActivityLog("user-1", domain.ActivityValidation, domain.LevelInfo, "start", map[string]any{"pair": "USDC/WETH"})
	second := domain.NewActivityLog("user-1", domain.ActivityExecution, domain.LevelError, "failed", nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, s.CreateActivityLog(ctx, first))
	require.NoError(t, s.CreateActivityLog(ctx, second))
	require.NoError(t, s.CreateActivityLog(ctx, domain.NewActivityLog("user-2", domain.ActivityExecution, domain.LevelInfo, "other", nil)))

	logs, err := s.ListActivityLogs(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "failed", logs[0].Message)
	assert.Equal(t, domain.LevelError, logs[0].Level)
	assert.Equal(t, "USDC/WETH", logs[1].Metadata["pair"])
	assert.Equal(t, first.ID, logs[1].ID)
}

func TestStore_ArbitrageTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	opp := testOpportunity()

	ok := domain.NewTransaction("user-1", opp, domain.StatusSuccess, true)
	ok.AmountOut = "1010"
	ok.ProfitUSD = decimal.NewFromInt(25)
	ok.NetProfitUSD = decimal.NewFromInt(23)
	ok.TxHash = "0xabc"

	failed := domain.NewTransaction("user-1", opp, domain.StatusFailed, false)
	failed.AmountOut = "0"
	failed.CreatedAt = ok.CreatedAt.Add(time.Second)

	require.NoError(t, s.CreateArbitrageTransaction(ctx, ok))
	require.NoError(t, s.CreateArbitrageTransaction(ctx, failed))
	require.NoError(t, s.CreateArbitrageTransaction(ctx, domain.NewTransaction("user-2", opp, domain.StatusPending, false)))

	txs, err := s.ListArbitrageTransactions(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.StatusFailed, txs[0].Status)
	assert.Equal(t, domain.StatusSuccess, txs[1].Status)
	assert.True(t, txs[1].NetProfitUSD.Equal(decimal.NewFromInt(23)))
	assert.Equal(t, "quickswap -> sushiswap", txs[1].DEXPath)
	assert.True(t, txs[1].Simulated)

	all, err := s.ListArbitrageTransactions(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListArbitrageTransactions(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_DuplicateTransactionID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tx := domain.NewTransaction("user-1", testOpportunity(), domain.StatusSuccess, true)
	require.NoError(t, s.CreateArbitrageTransaction(ctx, tx))

	err := s.CreateArbitrageTransaction(ctx, tx)
	require.Error(t, err)
}
