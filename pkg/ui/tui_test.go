package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/execution/app"
	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/pkg/ui/components"
)

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_StepProgress(t *testing.T) {
	m := New(Summary{OpportunityID: "opp-1", Simulated: true})
	if m.Phase() != PhaseStartup {
		t.Fatalf("phase = %s", m.Phase())
	}

	m = update(t, m,
		StartupMsg{Done: true},
		StepMsg{Event: app.StepEvent{Step: domain.StepAuditStart, Outcome: domain.OutcomePass}},
		StepMsg{Event: app.StepEvent{Step: domain.StepGasReserve, Outcome: domain.OutcomePass, Skipped: true}},
		StepMsg{Event: app.StepEvent{Step: domain.StepGasPrice, Outcome: domain.OutcomeFatal, Err: errors.New("gas too high")}},
	)
	if m.Phase() != PhaseRunning {
		t.Fatalf("phase = %s", m.Phase())
	}

	want := map[string]components.StepState{
		domain.StepAuditStart: components.StepPassed,
		domain.StepLoadConfig: components.StepPending,
		domain.StepGasReserve: components.StepSkipped,
		domain.StepGasPrice:   components.StepFailed,
	}
	for _, row := range m.Steps() {
		if state, ok := want[row.Name]; ok && row.State != state {
			t.Errorf("%s = %s, want %s", row.Name, row.State, state)
		}
		if row.Name == domain.StepGasPrice && row.Detail != "gas too high" {
			t.Errorf("gas_price detail = %q", row.Detail)
		}
	}
}

func TestModel_ResultFinishesPendingSteps(t *testing.T) {
	profit := decimal.NewFromFloat(12.5)
	m := update(t, New(Summary{}),
		StepMsg{Event: app.StepEvent{Step: domain.StepAuditStart, Outcome: domain.OutcomePass}},
		ResultMsg{Result: &domain.TradeExecutionResult{
			Success:       true,
			Message:       "Simulated trade executed",
			TxHash:        "0xabc",
			ProfitUSD:     &profit,
			ExecutionTime: 42 * time.Millisecond,
		}},
	)

	if m.Phase() != PhaseDone {
		t.Fatalf("phase = %s", m.Phase())
	}
	for _, row := range m.Steps()[1:] {
		if row.State != components.StepNotRun {
			t.Errorf("%s = %s, want not run", row.Name, row.State)
		}
	}

	view := m.View()
	for _, s := range []string{"Simulated trade executed", "$12.50", "42ms"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}
}

func TestModel_StartupError(t *testing.T) {
	m := update(t, New(Summary{}), StartupMsg{Err: errors.New("rpc unreachable")})

	if m.Phase() != PhaseDone {
		t.Fatalf("phase = %s", m.Phase())
	}
	if !strings.Contains(m.View(), "rpc unreachable") {
		t.Error("view should show the startup error")
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := New(Summary{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(next.View(), "Goodbye") {
		t.Error("expected goodbye view")
	}
}

func TestModel_SummaryToggle(t *testing.T) {
	m := New(Summary{OpportunityID: "opp-toggle"})
	if !strings.Contains(m.View(), "opp-toggle") {
		t.Fatal("summary should show by default")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if strings.Contains(m.View(), "opp-toggle") {
		t.Error("summary should be hidden after toggle")
	}
}

func TestHistoryTable(t *testing.T) {
	out := components.HistoryTable([]components.HistoryRow{{
		Time:      "2026-01-02 15:04:05",
		Pair:      "WMATIC/USDC",
		Path:      "quickswap -> sushiswap",
		NetProfit: "12.34",
		Status:    "success",
		TxHash:    "0x1234567890abcdef1234",
	}})
	for _, s := range []string{"WMATIC/USDC", "12.34", "0x123456…1234"} {
		if !strings.Contains(out, s) {
			t.Errorf("table missing %q:\n%s", s, out)
		}
	}

	if got := components.HistoryTable(nil); !strings.Contains(got, "No transactions") {
		t.Errorf("empty table = %q", got)
	}
}
