// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/flashloan-executor/business/execution/app"
	"github.com/fd1az/flashloan-executor/business/execution/infra/store"
	"github.com/fd1az/flashloan-executor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pipeline  = di.NewToken[*app.Pipeline]("execution.Pipeline")
	Validator = di.NewToken[*app.Validator]("execution.Validator")
	Store     = di.NewToken[*store.Store]("execution.Store")
)

func GetPipeline(c di.ServiceRegistry) *app.Pipeline {
	return di.GetToken(c, Pipeline)
}

func GetValidator(c di.ServiceRegistry) *app.Validator {
	return di.GetToken(c, Validator)
}

func GetStore(c di.ServiceRegistry) *store.Store {
	return di.GetToken(c, Store)
}
