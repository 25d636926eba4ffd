// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StepState is how far a pipeline step got.
type StepState string

const (
	StepPending StepState = "pending"
	StepPassed  StepState = "passed"
	StepSkipped StepState = "skipped"
	StepWarned  StepState = "warned"
	StepFailed  StepState = "failed"
	StepNotRun  StepState = "not run"
)

// StepRow is one line of the step list.
type StepRow struct {
	Name   string
	State  StepState
	Detail string
}

// StepsComponent renders the pre-flight checklist in pipeline order.
type StepsComponent struct {
	rows []StepRow
}

// NewStepsComponent creates a checklist with every step pending.
func NewStepsComponent(names []string) *StepsComponent {
	rows := make([]StepRow, 0, len(names))
	for _, n := range names {
		rows = append(rows, StepRow{Name: n, State: StepPending})
	}
	return &StepsComponent{rows: rows}
}

// Set updates a step. Unknown names are appended.
func (s *StepsComponent) Set(name string, state StepState, detail string) {
	for i := range s.rows {
		if s.rows[i].Name == name {
			s.rows[i].State = state
			s.rows[i].Detail = detail
			return
		}
	}
	s.rows = append(s.rows, StepRow{Name: name, State: state, Detail: detail})
}

// Finish marks every step that never reported as not run.
func (s *StepsComponent) Finish() {
	for i := range s.rows {
		if s.rows[i].State == StepPending {
			s.rows[i].State = StepNotRun
		}
	}
}

// Current returns the index of the first pending step, or -1.
func (s *StepsComponent) Current() int {
	for i, r := range s.rows {
		if r.State == StepPending {
			return i
		}
	}
	return -1
}

// Rows returns a copy of the rows.
func (s *StepsComponent) Rows() []StepRow {
	out := make([]StepRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// View renders the checklist. spinnerFrame is drawn next to the running step.
func (s *StepsComponent) View(spinnerFrame string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("PRE-FLIGHT"))
	sb.WriteString("\n\n")

	current := s.Current()
	for i, r := range s.rows {
		icon, style := stepIcon(r.State)
		if i == current && spinnerFrame != "" {
			icon = spinnerFrame
		}
		line := fmt.Sprintf("  %s %-14s", icon, strings.ReplaceAll(r.Name, "_", " "))
		sb.WriteString(style.Render(line))
		if r.Detail != "" {
			sb.WriteString(mutedStyle.Render(" " + r.Detail))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func stepIcon(state StepState) (string, lipgloss.Style) {
	switch state {
	case StepPassed:
		return "✓", lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	case StepSkipped:
		return "–", lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	case StepWarned:
		return "!", lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	case StepFailed:
		return "✗", lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	case StepNotRun:
		return "·", lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))
	default:
		return "○", lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	}
}
