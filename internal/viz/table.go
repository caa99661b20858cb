package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/rdsweep/internal/storage"
	"github.com/san-kum/rdsweep/internal/sweep"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderStyle.Padding(0, 1)
			case row%2 == 0:
				return evenRow
			default:
				return oddRow
			}
		}).
		Headers(headers...)
}

// RenderTable draws a result table. limit caps the number of rows shown;
// zero shows all of them.
func RenderTable(t *sweep.Table, limit int) string {
	tbl := newTable(t.Header...)
	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, r := range rows {
		tbl.Row(r.Strings()...)
	}

	out := tbl.String()
	if len(rows) < len(t.Rows) {
		out += "\n" + Subtle.Render(fmt.Sprintf("… %d more rows", len(t.Rows)-len(rows)))
	}
	return out
}

func RenderRuns(runs []storage.RunMetadata) string {
	tbl := newTable("ID", "NAME", "STARTED", "PLAN", "POINTS", "SIM TIME", "STATUS")
	for _, run := range runs {
		status := "ok"
		if !run.Succeeded() {
			status = "failed"
		}
		tbl.Row(
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Plan,
			fmt.Sprintf("%d/%d", run.Completed, run.Points),
			fmt.Sprintf("%.1fs", run.SimulatorSec),
			status,
		)
	}
	return tbl.String()
}
