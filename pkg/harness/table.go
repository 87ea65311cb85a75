package harness

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Winner labels.
const (
	LabelGeneral    = "LLM wins"
	LabelLocal      = "Agent wins"
	LabelTie        = "Tie"
	LabelBothFailed = "Both failed"
)

// Winner labels a pair of scores. Equal scores are a tie only when both
// earned credit.
func Winner(general, local float64) string {
	switch {
	case general > local:
		return LabelGeneral
	case local > general:
		return LabelLocal
	case general > 0:
		return LabelTie
	default:
		return LabelBothFailed
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	rowStyle    = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	sepStyle    = lipgloss.NewStyle().Faint(true)
)

// RenderTable renders one row per completed task plus an AVERAGE row.
func RenderTable(r *Report) string {
	headers := []string{"Task", "LLM", "Agent", "Status"}
	rows := make([][]string, 0, len(r.Results)+1)
	for _, tr := range r.Results {
		rows = append(rows, scoreRow(tr.Task, tr.GeneralProvider.Score, tr.LocalAgent.Score))
	}
	avg := scoreRow("AVERAGE", r.Summary.GeneralAvg, r.Summary.LocalAvg)

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range append(rows, avg) {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}
	divider := sepStyle.Render(strings.Repeat("-", total)) + "\n"

	var sb strings.Builder
	writeRow(&sb, headerStyle, widths, headers)
	sb.WriteString(divider)
	for _, row := range rows {
		writeRow(&sb, rowStyle, widths, row)
	}
	sb.WriteString(divider)
	writeRow(&sb, totalStyle, widths, avg)
	return sb.String()
}

func scoreRow(name string, general, local float64) []string {
	return []string{
		name,
		fmt.Sprintf("%5.2f", general),
		fmt.Sprintf("%5.2f", local),
		Winner(general, local),
	}
}

func writeRow(sb *strings.Builder, style lipgloss.Style, widths []int, cells []string) {
	for i, cell := range cells {
		sb.WriteString(style.Width(widths[i]).Render(cell))
		if i < len(cells)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")
}
