// Package domain contains the notification context's types.
package domain

// Category tags a message for routing and metrics.
type Category string

const (
	CategoryTradeExecuted  Category = "trade_executed"
	CategoryTradeSubmitted Category = "trade_submitted"
	CategoryTradeFailed    Category = "trade_failed"
)

// Message is one outbound chat message.
type Message struct {
	ChatID   string
	Text     string
	Category Category
}
