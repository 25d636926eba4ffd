// Package notification implements the notification bounded context: per-user
// Telegram messages about trade outcomes.
package notification

import (
	"context"

	"github.com/fd1az/flashloan-executor/business/notification/app"
	notifDI "github.com/fd1az/flashloan-executor/business/notification/di"
	"github.com/fd1az/flashloan-executor/business/notification/infra/telegram"
	"github.com/fd1az/flashloan-executor/internal/config"
	"github.com/fd1az/flashloan-executor/internal/di"
	"github.com/fd1az/flashloan-executor/internal/logger"
	"github.com/fd1az/flashloan-executor/internal/monolith"
)

// Module implements the notification bounded context.
type Module struct{}

// RegisterServices registers all notification services with the DI container.
// The chat resolver is looked up lazily under notifDI.ChatResolverKey.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, notifDI.NotificationService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		chats := sr.Get(notifDI.ChatResolverKey).(app.ChatResolver)

		var sender app.Sender
		if cfg.Telegram.Enabled {
			client, err := telegram.NewClient(telegram.Config{
				BaseURL:  cfg.Telegram.BaseURL,
				BotToken: cfg.Telegram.BotToken,
				Timeout:  cfg.Telegram.Timeout,
			}, log)
			if err != nil {
				panic("failed to create telegram client: " + err.Error())
			}
			sender = client
		}

		svc, err := app.NewService(sender, chats, log)
		if err != nil {
			panic("failed to create notification service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the notification module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := notifDI.GetNotificationService(mono.Services())
	if !svc.Enabled() {
		mono.Logger().Info(ctx, "telegram disabled, notifications are dropped")
	}
	mono.Logger().Info(ctx, "notification module started", "enabled", svc.Enabled())
	return nil
}
