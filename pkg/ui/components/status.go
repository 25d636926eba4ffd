package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ServiceStatus describes one collaborator the run depends on.
type ServiceStatus struct {
	Name   string
	Up     bool
	Detail string
}

// StatusComponent renders the collaborator status bar.
type StatusComponent struct {
	services []ServiceStatus
}

// NewStatusComponent creates an empty status bar.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces a service's status by name, or appends it.
func (s *StatusComponent) Update(status ServiceStatus) {
	for i, svc := range s.services {
		if svc.Name == status.Name {
			s.services[i] = status
			return
		}
	}
	s.services = append(s.services, status)
}

// View renders the status bar on one line.
func (s *StatusComponent) View() string {
	if len(s.services) == 0 {
		return ""
	}

	up := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	down := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	parts := make([]string, 0, len(s.services))
	for _, svc := range s.services {
		style, icon := up, "●"
		if !svc.Up {
			style, icon = down, "○"
		}
		text := icon + " " + svc.Name
		if svc.Detail != "" {
			text += " (" + svc.Detail + ")"
		}
		parts = append(parts, style.Render(text))
	}
	return strings.Join(parts, "  │  ")
}
