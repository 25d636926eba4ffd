package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// HistoryRow is one recorded transaction, already formatted for display.
type HistoryRow struct {
	Time      string
	Pair      string
	Path      string
	AmountIn  string
	NetProfit string
	Status    string
	Mode      string
	TxHash    string
}

var historyColumns = []table.Column{
	{Title: "Time", Width: 19},
	{Title: "Pair", Width: 12},
	{Title: "Path", Width: 24},
	{Title: "Amount", Width: 12},
	{Title: "Net USD", Width: 10},
	{Title: "Status", Width: 8},
	{Title: "Mode", Width: 6},
	{Title: "Tx", Width: 14},
}

// HistoryTable renders rows as a static table.
func HistoryTable(rows []HistoryRow) string {
	if len(rows) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("No transactions recorded")
	}

	data := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		data = append(data, table.Row{r.Time, r.Pair, r.Path, r.AmountIn, r.NetProfit, r.Status, r.Mode, shortHash(r.TxHash)})
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#374151")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))
	// Nothing is selectable in a printed table.
	styles.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(historyColumns),
		table.WithRows(data),
		table.WithHeight(len(data)+1),
		table.WithStyles(styles),
	)
	return t.View()
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:8] + "…" + h[len(h)-4:]
}
