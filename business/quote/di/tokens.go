// Package di contains dependency injection tokens for the quote context.
package di

import (
	"github.com/fd1az/flashloan-executor/business/quote/app"
	"github.com/fd1az/flashloan-executor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.Service]("quote.QuoteService")
)

func GetQuoteService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, QuoteService)
}
