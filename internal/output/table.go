package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
)

// Table is a bordered table with a bold header row. Cells in a column can
// be restyled with Style.
type Table struct {
	headers []string
	rows    [][]string
	columns map[int]func(value string) lipgloss.Style
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, columns: map[int]func(string) lipgloss.Style{}}
}

// Row appends a row.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// Style sets the style of every body cell in column col, chosen by the
// cell's value.
func (t *Table) Style(col int, fn func(value string) lipgloss.Style) *Table {
	t.columns[col] = fn
	return t
}

func (t *Table) String() string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorder).
		Headers(t.headers...).
		Rows(t.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			if fn, ok := t.columns[col]; ok && row >= 0 && row < len(t.rows) && col < len(t.rows[row]) {
				return fn(t.rows[row][col]).Inherit(tableCell)
			}
			return tableCell
		})
	return tbl.String()
}

// UnitRow is one line of the build summary table.
type UnitRow struct {
	Function string
	Status   string
	Handler  string
	Size     string
	Digest   string
}

const (
	unitColStatus = 1
	unitColSize   = 3
)

// RenderUnitTable renders the per-function build summary. Status cells are
// colored like unit lines; sizes are right-aligned.
func RenderUnitTable(rows []UnitRow) string {
	t := NewTable("FUNCTION", "STATUS", "HANDLER", "SIZE", "DIGEST").
		Style(unitColStatus, statusStyle).
		Style(unitColSize, func(string) lipgloss.Style {
			return lipgloss.NewStyle().Align(lipgloss.Right)
		})

	for _, r := range rows {
		t.Row(r.Function, r.Status, r.Handler, r.Size, r.Digest)
	}
	return t.String()
}
