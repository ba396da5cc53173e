package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/lazyreport/internal/export"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/report"
	"github.com/rebeliceyang/lazyreport/internal/ui/theme"
)

// ReportGrid renders flattened report rows with virtual scrolling over
// variable row heights
type ReportGrid struct {
	Width  int
	Height int
	Theme  theme.Theme
	Dims   report.Dimensions

	// MaxCellDisplayLength caps cell text before it is fitted to the column
	MaxCellDisplayLength int

	rows    []models.Row
	columns map[int]models.DataExpression
	grouped bool
	totals  []any

	visible []int // result set indexes of the displayed columns
	widths  []int // display cells per visible column
	heights []int // display lines per row
	offsets []int // first line of each row

	// Virtual scrolling state, in lines
	ScrollTop   int
	SelectedRow int
	CursorCol   int
	LeftCol     int
}

// NewReportGrid creates an empty grid
func NewReportGrid(th theme.Theme, d report.Dimensions) *ReportGrid {
	return &ReportGrid{
		Theme:                th,
		Dims:                 d,
		MaxCellDisplayLength: 100,
		columns:              map[int]models.DataExpression{},
	}
}

// SetData replaces the grid contents with grouped report data
func (g *ReportGrid) SetData(columns map[int]models.DataExpression, groups []models.GroupedData, grouped bool) {
	g.columns = columns
	g.grouped = grouped
	g.rows = report.BuildRows(groups, 0)
	g.totals = nil
	if grouped {
		g.totals = report.GrandTotals(groups)
	}

	g.visible = report.VisibleColumns(columns)
	g.widths = make([]int, len(g.visible))
	for i, idx := range g.visible {
		g.widths[i] = report.CellWidth(report.ColumnWidth(i, grouped, columns[idx], g.Dims), g.Dims)
	}

	g.heights = make([]int, len(g.rows))
	g.offsets = make([]int, len(g.rows))
	line := 0
	for i, r := range g.rows {
		g.heights[i] = report.RowHeight(r, g.Dims)
		g.offsets[i] = line
		line += g.heights[i]
	}

	g.SelectedRow = clamp(g.SelectedRow, 0, len(g.rows)-1)
	g.CursorCol = clamp(g.CursorCol, 0, len(g.visible)-1)
	g.scrollToSelection()
}

// RowCount is the number of flattened rows, headers included
func (g *ReportGrid) RowCount() int { return len(g.rows) }

// ColumnCount is the number of displayed columns
func (g *ReportGrid) ColumnCount() int { return len(g.visible) }

// Rows returns the flattened rows
func (g *ReportGrid) Rows() []models.Row { return g.rows }

// VisibleRange returns the half-open range of rows that intersect the
// viewport [scrollTop, scrollTop+viewport) given each row's height
func VisibleRange(heights []int, scrollTop, viewport int) (start, end int) {
	top := 0
	for start < len(heights) && top+heights[start] <= scrollTop {
		top += heights[start]
		start++
	}
	end = start
	for end < len(heights) && top < scrollTop+viewport {
		top += heights[end]
		end++
	}
	return start, end
}

func (g *ReportGrid) viewportHeight() int {
	// header, separator and status line
	h := g.Height - 3
	if g.totals != nil {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (g *ReportGrid) totalLines() int {
	if len(g.rows) == 0 {
		return 0
	}
	last := len(g.rows) - 1
	return g.offsets[last] + g.heights[last]
}

// MoveSelection moves the selected row
func (g *ReportGrid) MoveSelection(delta int) {
	if len(g.rows) == 0 {
		return
	}
	g.SelectedRow = clamp(g.SelectedRow+delta, 0, len(g.rows)-1)
	g.scrollToSelection()
}

// PageUp moves up by one viewport
func (g *ReportGrid) PageUp() {
	start, end := VisibleRange(g.heights, g.ScrollTop, g.viewportHeight())
	g.MoveSelection(-max(end-start, 1))
}

// PageDown moves down by one viewport
func (g *ReportGrid) PageDown() {
	start, end := VisibleRange(g.heights, g.ScrollTop, g.viewportHeight())
	g.MoveSelection(max(end-start, 1))
}

// Home selects the first row
func (g *ReportGrid) Home() { g.MoveSelection(-len(g.rows)) }

// End selects the last row
func (g *ReportGrid) End() { g.MoveSelection(len(g.rows)) }

// MoveColumn moves the column cursor
func (g *ReportGrid) MoveColumn(delta int) {
	if len(g.visible) == 0 {
		return
	}
	g.CursorCol = clamp(g.CursorCol+delta, 0, len(g.visible)-1)
	if g.CursorCol < g.LeftCol {
		g.LeftCol = g.CursorCol
	}
	for g.LeftCol < g.CursorCol && g.spanWidth(g.LeftCol, g.CursorCol) > g.Width {
		g.LeftCol++
	}
}

func (g *ReportGrid) spanWidth(from, to int) int {
	w := 1
	for i := from; i <= to && i < len(g.widths); i++ {
		w += g.widths[i] + 3
	}
	return w
}

func (g *ReportGrid) scrollToSelection() {
	if len(g.rows) == 0 {
		g.ScrollTop = 0
		return
	}
	vh := g.viewportHeight()
	top := g.offsets[g.SelectedRow]
	bottom := top + g.heights[g.SelectedRow]
	if top < g.ScrollTop {
		g.ScrollTop = top
	}
	if bottom > g.ScrollTop+vh {
		g.ScrollTop = bottom - vh
	}
	if maxTop := g.totalLines() - vh; g.ScrollTop > maxTop {
		g.ScrollTop = max(maxTop, 0)
	}
}

// CurrentColumn returns the expression under the column cursor
func (g *ReportGrid) CurrentColumn() (models.DataExpression, bool) {
	if g.CursorCol < 0 || g.CursorCol >= len(g.visible) {
		return models.DataExpression{}, false
	}
	return g.columns[g.visible[g.CursorCol]], true
}

// CurrentRow returns the selected row
func (g *ReportGrid) CurrentRow() (models.Row, bool) {
	if g.SelectedRow < 0 || g.SelectedRow >= len(g.rows) {
		return models.Row{}, false
	}
	return g.rows[g.SelectedRow], true
}

// SelectedCell returns the text of the cell under the cursor
func (g *ReportGrid) SelectedCell() (string, bool) {
	row, ok := g.CurrentRow()
	if !ok || g.CursorCol >= len(g.visible) {
		return "", false
	}
	return g.cellText(row, g.CursorCol), true
}

func (g *ReportGrid) cellText(row models.Row, col int) string {
	idx := g.visible[col]
	if row.IsGroupHeader {
		if col == 0 {
			return groupLabel(row.Group)
		}
		return export.FormatCell(cellValue(row.Group.Subtotals, idx))
	}
	return export.FormatCell(cellValue(row.Data, idx))
}

func groupLabel(group *models.GroupedData) string {
	if group == nil || group.Info == nil {
		return ""
	}
	count := countRows(*group)
	return fmt.Sprintf("%s: %s (%d)", group.Info.DisplayName, export.FormatCell(group.Info.DisplayValue), count)
}

func countRows(g models.GroupedData) int {
	if len(g.Children) == 0 {
		return len(g.Data)
	}
	n := 0
	for _, c := range g.Children {
		n += countRows(c)
	}
	return n
}

func cellValue(values []any, idx int) any {
	if idx < 0 || idx >= len(values) {
		return nil
	}
	return values[idx]
}

// View renders the grid
func (g *ReportGrid) View() string {
	if len(g.visible) == 0 {
		return lipgloss.NewStyle().
			Foreground(g.Theme.Metadata).
			Width(g.Width).
			Height(g.Height).
			Render("No data")
	}

	lastCol := g.lastVisibleColumn()

	var b strings.Builder
	b.WriteString(g.renderHeader(lastCol))
	b.WriteString("\n")
	b.WriteString(g.renderSeparator(lastCol))
	b.WriteString("\n")

	vh := g.viewportHeight()
	start, end := VisibleRange(g.heights, g.ScrollTop, vh)

	var lines []string
	for i := start; i < end; i++ {
		lines = append(lines, g.renderRow(i, lastCol)...)
	}
	if start < len(g.offsets) {
		if skip := g.ScrollTop - g.offsets[start]; skip > 0 && skip < len(lines) {
			lines = lines[skip:]
		}
	}
	if len(lines) > vh {
		lines = lines[:vh]
	}
	for len(lines) < vh {
		lines = append(lines, "")
	}
	b.WriteString(strings.Join(lines, "\n"))

	if g.totals != nil {
		b.WriteString("\n")
		b.WriteString(g.renderTotals(lastCol))
	}

	b.WriteString("\n")
	b.WriteString(g.renderStatus(start, end))

	return lipgloss.NewStyle().Width(g.Width).Height(g.Height).Render(b.String())
}

func (g *ReportGrid) lastVisibleColumn() int {
	last := g.LeftCol
	for last+1 < len(g.visible) && g.spanWidth(g.LeftCol, last+1) <= g.Width {
		last++
	}
	return last
}

func (g *ReportGrid) renderHeader(lastCol int) string {
	var parts []string
	for i := g.LeftCol; i <= lastCol; i++ {
		parts = append(parts, g.fit(g.columns[g.visible[i]].DisplayName, g.widths[i]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(g.Theme.TableHeader).
		Background(g.Theme.Selection)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (g *ReportGrid) renderSeparator(lastCol int) string {
	var parts []string
	for i := g.LeftCol; i <= lastCol; i++ {
		parts = append(parts, strings.Repeat("─", g.widths[i]))
	}
	return lipgloss.NewStyle().
		Foreground(g.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

// renderRow returns the display lines of one row
func (g *ReportGrid) renderRow(i, lastCol int) []string {
	row := g.rows[i]
	indent := strings.Repeat("  ", row.Level)

	var parts []string
	for c := g.LeftCol; c <= lastCol; c++ {
		text := g.cellText(row, c)
		if c == 0 {
			if row.IsGroupHeader {
				text = indent + "▾ " + text
			} else if g.grouped {
				text = indent + "  " + text
			}
		}
		parts = append(parts, g.fit(text, g.widths[c]))
	}
	line := " " + strings.Join(parts, " │ ") + " "

	var style lipgloss.Style
	switch {
	case i == g.SelectedRow:
		style = lipgloss.NewStyle().Background(g.Theme.TableRowSelected).Foreground(lipgloss.Color("15")).Bold(true)
	case row.IsGroupHeader && row.Level == 0:
		style = lipgloss.NewStyle().Foreground(g.Theme.GroupHeader).Bold(true)
	case row.IsGroupHeader:
		style = lipgloss.NewStyle().Foreground(g.Theme.NestedHeader)
	default:
		style = lipgloss.NewStyle().Foreground(g.Theme.Foreground)
	}

	lines := []string{style.Render(line)}
	for extra := 1; extra < g.heights[i]; extra++ {
		lines = append(lines, "")
	}
	return lines
}

func (g *ReportGrid) renderTotals(lastCol int) string {
	var parts []string
	for c := g.LeftCol; c <= lastCol; c++ {
		text := export.FormatCell(cellValue(g.totals, g.visible[c]))
		if c == 0 && text == "" {
			text = "Total"
		}
		parts = append(parts, g.fit(text, g.widths[c]))
	}
	return lipgloss.NewStyle().
		Foreground(g.Theme.Subtotal).
		Bold(true).
		Render(" " + strings.Join(parts, " │ ") + " ")
}

func (g *ReportGrid) renderStatus(start, end int) string {
	showing := fmt.Sprintf(" rows %d-%d of %d · column %d/%d", min(start+1, end), end, len(g.rows), g.CursorCol+1, len(g.visible))
	return lipgloss.NewStyle().
		Foreground(g.Theme.Metadata).
		Italic(true).
		Render(showing)
}

// fit truncates or pads s to exactly width display cells
func (g *ReportGrid) fit(s string, width int) string {
	if g.MaxCellDisplayLength > 0 && runewidth.StringWidth(s) > g.MaxCellDisplayLength {
		s = runewidth.Truncate(s, g.MaxCellDisplayLength, "")
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
