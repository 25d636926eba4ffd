// Package app contains the notification service and its ports.
package app

import (
	"context"

	"github.com/fd1az/flashloan-executor/business/notification/domain"
)

// ChatResolver maps a user to a chat. An empty id means the user has none.
type ChatResolver interface {
	ResolveChatID(ctx context.Context, userID string) (string, error)
}

// Sender delivers a message to a chat.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
}
