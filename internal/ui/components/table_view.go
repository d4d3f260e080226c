package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

const (
	minColumnWidth = 4
	maxColumnWidth = 40
)

// TableView renders a RecordTable with its selection rectangle. It only keeps
// scroll state; the data and selection live in the model.
type TableView struct {
	Width  int
	Height int
	Theme  theme.Theme

	// Virtual scrolling state
	TopRow  int
	LeftCol int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{Theme: th}
}

// VisibleRows is the number of data rows that fit below the header
func (tv *TableView) VisibleRows() int {
	rows := tv.Height - 3 // header, separator, status
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the loaded rows of rt followed by status
func (tv *TableView) View(rt *models.RecordTable, status string) string {
	if rt == nil || len(rt.Columns) == 0 {
		return tv.placeholder("No data") + "\n" + tv.renderStatus(status)
	}

	headers := rt.Headers()
	focus, hasFocus := rt.Focus()
	tv.scrollTo(focus, hasFocus, rt.RowCount())

	endRow := tv.TopRow + tv.VisibleRows()
	if endRow > rt.RowCount() {
		endRow = rt.RowCount()
	}
	widths := tv.columnWidths(rt, headers, tv.TopRow, endRow)
	lastCol := tv.fitColumns(widths, focus.Col, hasFocus)

	var b strings.Builder
	b.WriteString(tv.renderHeader(headers, widths, lastCol))
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator(widths, lastCol))
	b.WriteString("\n")

	if rt.RowCount() == 0 {
		b.WriteString(tv.placeholder("No rows"))
		b.WriteString("\n")
	}
	for r := tv.TopRow; r < endRow; r++ {
		b.WriteString(tv.renderRow(rt, r, widths, lastCol, focus, hasFocus))
		b.WriteString("\n")
	}

	b.WriteString(tv.renderStatus(status))
	return b.String()
}

// scrollTo moves the window so the focus cell is visible
func (tv *TableView) scrollTo(focus models.CellPos, hasFocus bool, rows int) {
	visible := tv.VisibleRows()
	if !hasFocus {
		tv.TopRow = 0
		tv.LeftCol = 0
		return
	}
	if focus.Row < tv.TopRow {
		tv.TopRow = focus.Row
	}
	if focus.Row >= tv.TopRow+visible {
		tv.TopRow = focus.Row - visible + 1
	}
	if maxTop := rows - visible; tv.TopRow > maxTop {
		tv.TopRow = maxTop
	}
	if tv.TopRow < 0 {
		tv.TopRow = 0
	}
	if focus.Col < tv.LeftCol {
		tv.LeftCol = focus.Col
	}
}

// columnWidths measures the headers and the visible rows
func (tv *TableView) columnWidths(rt *models.RecordTable, headers []string, from, to int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for r := from; r < to; r++ {
		for c := range widths {
			if w := lipgloss.Width(rt.Cell(r, c).Display); w > widths[c] {
				widths[c] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
		if widths[i] < minColumnWidth {
			widths[i] = minColumnWidth
		}
	}
	return widths
}

// fitColumns shifts LeftCol until the focus column fits and returns the last
// column that is drawn
func (tv *TableView) fitColumns(widths []int, focusCol int, hasFocus bool) int {
	if tv.LeftCol >= len(widths) {
		tv.LeftCol = len(widths) - 1
	}
	if tv.LeftCol < 0 {
		tv.LeftCol = 0
	}
	last := tv.lastFitting(widths)
	for hasFocus && focusCol > last && tv.LeftCol < focusCol {
		tv.LeftCol++
		last = tv.lastFitting(widths)
	}
	return last
}

func (tv *TableView) lastFitting(widths []int) int {
	used := 1
	last := tv.LeftCol
	for c := tv.LeftCol; c < len(widths); c++ {
		used += widths[c] + 3
		if used > tv.Width && c > tv.LeftCol {
			break
		}
		last = c
	}
	return last
}

func (tv *TableView) renderHeader(headers []string, widths []int, lastCol int) string {
	parts := make([]string, 0, lastCol-tv.LeftCol+1)
	for c := tv.LeftCol; c <= lastCol; c++ {
		parts = append(parts, pad(headers[c], widths[c]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator(widths []int, lastCol int) string {
	parts := make([]string, 0, lastCol-tv.LeftCol+1)
	for c := tv.LeftCol; c <= lastCol; c++ {
		parts = append(parts, strings.Repeat("─", widths[c]))
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(rt *models.RecordTable, r int, widths []int, lastCol int, focus models.CellPos, hasFocus bool) string {
	parts := make([]string, 0, lastCol-tv.LeftCol+1)
	for c := tv.LeftCol; c <= lastCol; c++ {
		cell := rt.Cell(r, c)
		style := lipgloss.NewStyle().Foreground(tv.Theme.Foreground)
		if cell.IsNull() {
			style = style.Foreground(tv.Theme.Null).Italic(true)
		}
		switch {
		case hasFocus && focus.Row == r && focus.Col == c:
			style = style.Background(tv.Theme.TableCellFocused).Bold(true)
		case rt.IsSelected(r, c):
			style = style.Background(tv.Theme.TableRowSelected)
		}
		parts = append(parts, style.Render(pad(cell.Display, widths[c])))
	}
	return " " + strings.Join(parts, " │ ") + " "
}

func (tv *TableView) renderStatus(status string) string {
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(status)
}

func (tv *TableView) placeholder(message string) string {
	return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render(message)
}

// RecordStatus formats the status line of a record grid
func RecordStatus(rt *models.RecordTable, engine models.Engine) string {
	if rt == nil {
		return ""
	}
	total := "-"
	if rt.TotalEstimate != nil {
		total = fmt.Sprintf("%d", *rt.TotalEstimate)
	}
	shown := rt.Offset + rt.RowCount()
	more := ""
	if rt.HasMore {
		more = "+"
	}
	status := fmt.Sprintf("rows: %d%s / %s, columns: %d, engine: %s", shown, more, total, len(rt.Columns), engine)
	if rt.Filter != "" {
		status += ", filter: " + rt.Filter
	}
	return status
}

// pad fits s into exactly width columns
func pad(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if w := lipgloss.Width(s); w > width {
		return truncate(s, width)
	} else if w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
