package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ResultRow is the pre-formatted outcome of one execution.
type ResultRow struct {
	Success bool
	Message string
	Error   string
	TxHash  string
	Profit  string
	GasCost string
	Elapsed time.Duration
}

// ResultView renders the final outcome panel.
func ResultView(r ResultRow) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(10)
	okStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	if r.Success {
		sb.WriteString(okStyle.Render("✓ " + r.Message))
	} else {
		sb.WriteString(failStyle.Render("✗ " + r.Message))
	}
	sb.WriteString("\n\n")

	line := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	line("Tx", r.TxHash)
	line("Profit", r.Profit)
	line("Gas", r.GasCost)
	line("Elapsed", fmt.Sprintf("%dms", r.Elapsed.Milliseconds()))
	if r.Error != "" {
		sb.WriteString("\n")
		sb.WriteString(errStyle.Render(r.Error))
		sb.WriteString("\n")
	}
	return sb.String()
}
