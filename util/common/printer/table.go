// Package printer renders tabular run results.
package printer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/internal/style"
)

// Table is a header row plus string rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Append adds one row; missing cells are rendered as "-".
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.Headers))
	for i := range row {
		row[i] = "-"
		if i < len(cells) && cells[i] != "" {
			row[i] = cells[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// renderStyledTable renders a table using lipgloss/table with the project's colour theme.
func renderStyledTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(style.Cyan).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Foreground(style.White).
		Padding(0, 1)

	dimCellStyle := lipgloss.NewStyle().
		Foreground(style.Dim).
		Padding(0, 1)

	t := lgtable.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(style.Dim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			if row%2 == 0 {
				return cellStyle
			}
			return dimCellStyle
		})

	for _, r := range rows {
		t = t.Row(r...)
	}
	return t.Render()
}

// renderPtermTable renders a plain boxed table for non-TTY / no-color output.
func renderPtermTable(headers []string, rows [][]string) (string, error) {
	data := pterm.TableData{headers}
	for _, r := range rows {
		data = append(data, r)
	}
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed(true).
		WithData(data).
		Srender()
}

// Print writes t to w. When colour is enabled it renders with lipgloss/table,
// otherwise with the pterm boxed table. An empty table prints nothing.
func Print(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		return nil
	}

	if t.Title != "" {
		fmt.Fprintln(w, style.Bold.Render(t.Title))
	}

	if style.Enabled {
		fmt.Fprintln(w, renderStyledTable(t.Headers, t.Rows))
		return nil
	}

	out, err := renderPtermTable(t.Headers, t.Rows)
	if err != nil {
		log.Error().Msgf("failed to render table: %v", err)
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}
