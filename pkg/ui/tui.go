package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseStartup Phase = "startup" // Modules starting
	PhaseRunning Phase = "running" // Pipeline in progress
	PhaseDone    Phase = "done"    // Result or startup error shown
)

// Summary is the opportunity being executed, formatted for the header.
type Summary struct {
	UserID          string
	OpportunityID   string
	Pair            string
	Path            string
	Principal       string
	EstimatedProfit string
	NetPercent      string
	Simulated       bool
}

// SummaryFor formats an opportunity for the header.
func SummaryFor(userID string, opp *domain.Opportunity, simulated bool) Summary {
	return Summary{
		UserID:          userID,
		OpportunityID:   opp.ID,
		Pair:            opp.Pair(),
		Path:            opp.DEXPath(),
		Principal:       opp.FlashLoanAmount + " " + opp.TokenIn.Symbol,
		EstimatedProfit: formatUSD(&opp.EstimatedProfitUSD),
		NetPercent:      opp.NetProfitPercent.StringFixed(3) + "%",
		Simulated:       simulated,
	}
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	steps   *components.StepsComponent
	status  *components.StatusComponent
	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	summary     Summary
	showSummary bool

	phase     Phase
	startedAt time.Time
	result    *components.ResultRow
	err       error
	width     int
	quitting  bool
}

// New creates a new TUI model for one execution.
func New(summary Summary) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		steps:       components.NewStepsComponent(domain.Steps),
		status:      components.NewStatusComponent(),
		spinner:     sp,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		summary:     summary,
		showSummary: true,
		phase:       PhaseStartup,
		startedAt:   time.Now(),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Steps returns the step rows as currently displayed.
func (m Model) Steps() []components.StepRow {
	return m.steps.Rows()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Summary):
			m.showSummary = !m.showSummary
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case spinner.TickMsg:
		if m.phase == PhaseDone {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StartupMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.steps.Finish()
			m.phase = PhaseDone
		} else if msg.Done {
			m.phase = PhaseRunning
		}

	case StatusMsg:
		m.status.Update(msg.Status)

	case StepMsg:
		m.phase = PhaseRunning
		state, detail := stepState(msg)
		m.steps.Set(msg.Event.Step, state, detail)

	case ResultMsg:
		m.steps.Finish()
		row := ResultRow(msg.Result)
		m.result = &row
		m.phase = PhaseDone

	case ErrorMsg:
		m.err = msg.Error
		m.steps.Finish()
		m.phase = PhaseDone
	}

	return m, nil
}

func stepState(msg StepMsg) (components.StepState, string) {
	ev := msg.Event
	switch {
	case ev.Skipped:
		return components.StepSkipped, "simulation"
	case ev.Outcome == domain.OutcomeSoft:
		return components.StepWarned, errText(ev.Err)
	case ev.Outcome == domain.OutcomeFatal:
		return components.StepFailed, errText(ev.Err)
	default:
		return components.StepPassed, ""
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ResultRow formats a pipeline result for display.
func ResultRow(r *domain.TradeExecutionResult) components.ResultRow {
	if r == nil {
		return components.ResultRow{Message: "No result"}
	}
	return components.ResultRow{
		Success: r.Success,
		Message: r.Message,
		Error:   r.Error,
		TxHash:  r.TxHash,
		Profit:  formatUSD(r.ProfitUSD),
		GasCost: formatUSD(r.GasCostUSD),
		Elapsed: r.ExecutionTime,
	}
}

func formatUSD(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return "$" + d.StringFixed(2)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ⚡ Flashloan Executor "))
	b.WriteString(" ")
	if m.summary.Simulated {
		b.WriteString(SimulationBadge.Render("SIMULATION"))
	} else {
		b.WriteString(RealBadge.Render("REAL"))
	}
	b.WriteString("\n\n")

	if bar := m.status.View(); bar != "" {
		b.WriteString(bar)
		b.WriteString("\n\n")
	}

	width := m.width - 4
	if width < 40 {
		width = 60
	}

	if m.showSummary {
		b.WriteString(BoxStyle.Width(width).Render(m.renderSummary()))
		b.WriteString("\n")
	}

	frame := ""
	if m.phase == PhaseRunning {
		frame = m.spinner.View()
	}
	b.WriteString(BoxStyle.Width(width).Render(m.steps.View(frame)))
	b.WriteString("\n")

	switch {
	case m.phase == PhaseStartup:
		b.WriteString(fmt.Sprintf("%s Starting modules... %s\n",
			m.spinner.View(), MutedValue.Render(time.Since(m.startedAt).Round(time.Second).String())))
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n")
	case m.result != nil:
		b.WriteString(BoxStyle.Width(width).Render(components.ResultView(*m.result)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderSummary() string {
	s := m.summary
	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(LabelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	row("Opportunity", s.OpportunityID)
	row("User", s.UserID)
	row("Pair", s.Pair)
	row("Route", s.Path)
	row("Flash loan", s.Principal)
	row("Est. profit", PositiveValue.Render(s.EstimatedProfit)+MutedValue.Render(" ("+s.NetPercent+" net)"))
	return strings.TrimRight(sb.String(), "\n")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
