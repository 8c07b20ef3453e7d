package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"shorts-pipeline/internal/types"
)

var stdout io.Writer = os.Stdout

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusLabel(status string) string {
	switch status {
	case types.StatusPublished:
		return okStyle.Render(status)
	case types.StatusFailed:
		return errorStyle.Render(status)
	default:
		return mutedStyle.Render(status)
	}
}

// resultsTable renders one row per result, times shown in loc
func resultsTable(results []types.PublishResult, loc *time.Location) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		detail := r.VideoID
		if r.Failed() {
			detail = fmt.Sprintf("%s: %s", r.Kind, r.Error)
		} else if r.Retained {
			detail += " (file retained)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Slot.Index+1),
			r.Artifact.Name,
			r.Slot.At.In(loc).Format("2006-01-02 15:04 MST"),
			statusLabel(r.Status),
			detail,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "ARTIFACT", "PUBLISH AT", "STATUS", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func printSummary(sum types.Summary) {
	fmt.Fprintf(stdout, "%s planned=%d published=%s failed=%s\n",
		titleStyle.Render("summary:"),
		sum.Planned,
		okStyle.Render(fmt.Sprintf("%d", sum.Published)),
		errorStyle.Render(fmt.Sprintf("%d", sum.Failed)),
	)
}
