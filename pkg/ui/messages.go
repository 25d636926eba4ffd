package ui

import (
	"github.com/fd1az/flashloan-executor/business/execution/app"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/pkg/ui/components"
)

// Message types for TUI updates

// StartupMsg reports module startup progress before the run begins.
type StartupMsg struct {
	Done bool
	Err  error
}

// StatusMsg updates one entry of the status bar.
type StatusMsg struct {
	Status components.ServiceStatus
}

// StepMsg is sent as each pipeline step finishes.
type StepMsg struct {
	Event app.StepEvent
}

// ResultMsg carries the final result of the run.
type ResultMsg struct {
	Result *domain.TradeExecutionResult
}

// ErrorMsg is sent when the run could not start at all.
type ErrorMsg struct {
	Error error
}

// StepObserver forwards pipeline step events to the running program.
func StepObserver() app.StepObserver {
	return func(ev app.StepEvent) {
		Send(StepMsg{Event: ev})
	}
}
