// Package di contains dependency injection tokens for the notification context.
package di

import (
	"github.com/fd1az/flashloan-executor/business/notification/app"
	"github.com/fd1az/flashloan-executor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	NotificationService = di.NewToken[*app.Service]("notification.NotificationService")
)

// ChatResolverKey is provided by whichever module owns user settings.
const ChatResolverKey = "notification:chatResolver"

func GetNotificationService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, NotificationService)
}
