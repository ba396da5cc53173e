package report

import (
	"sort"

	"github.com/rebeliceyang/lazyreport/internal/models"
)

// BuildRows flattens grouped data into the exact sequence of grid rows.
// Each group with Info contributes a header at level; groups with children
// recurse one level deeper, leaf groups contribute their data rows at level.
func BuildRows(groups []models.GroupedData, level int) []models.Row {
	rows := make([]models.Row, 0)

	for i := range groups {
		g := &groups[i]

		if g.Info != nil {
			rows = append(rows, models.Row{
				Level:         level,
				Group:         g,
				IsGroupHeader: true,
			})
		}

		if len(g.Children) > 0 {
			rows = append(rows, BuildRows(g.Children, level+1)...)
			continue
		}

		for j, item := range g.Data {
			rows = append(rows, models.Row{
				Level:        level,
				Data:         item,
				DataRowIndex: j,
			})
		}
	}

	return rows
}

// CountHeaders returns the number of group header rows a group tree produces
func CountHeaders(groups []models.GroupedData) int {
	n := 0
	for _, g := range groups {
		if g.Info != nil {
			n++
		}
		n += CountHeaders(g.Children)
	}
	return n
}

// Dimensions sizes grid rows and columns.
// Row heights are in display lines, column widths in pixels.
type Dimensions struct {
	TopHeaderRowHeight    int
	NestedHeaderRowHeight int
	DataRowHeight         int

	DefaultColumnWidth int
	GroupIndentWidth   int
	PixelsPerCell      int
}

// DefaultDimensions returns the grid sizing used when config leaves it unset
func DefaultDimensions() Dimensions {
	return Dimensions{
		TopHeaderRowHeight:    2,
		NestedHeaderRowHeight: 1,
		DataRowHeight:         1,
		DefaultColumnWidth:    150,
		GroupIndentWidth:      60,
		PixelsPerCell:         8,
	}
}

// RowHeight returns the height of one flattened row
func RowHeight(r models.Row, d Dimensions) int {
	if !r.IsGroupHeader {
		return d.DataRowHeight
	}
	if r.Level == 0 {
		return d.TopHeaderRowHeight
	}
	return d.NestedHeaderRowHeight
}

// ColumnWidth returns a column's width in pixels.
// A per-select width wins over the field default, which wins over the grid
// default. The first column of a grouped report is widened for indentation.
func ColumnWidth(index int, grouped bool, expr models.DataExpression, d Dimensions) int {
	width := d.DefaultColumnWidth
	switch {
	case expr.Width != nil:
		width = *expr.Width
	case expr.DataSourceField != nil && expr.DataSourceField.DefaultColumnWidthInPixels != nil:
		width = *expr.DataSourceField.DefaultColumnWidthInPixels
	}

	if grouped && index == 0 {
		width += d.GroupIndentWidth
	}
	return width
}

// CellWidth converts a pixel width into display cells
func CellWidth(pixels int, d Dimensions) int {
	if d.PixelsPerCell <= 0 {
		return pixels
	}
	cells := pixels / d.PixelsPerCell
	if cells < 1 {
		cells = 1
	}
	return cells
}

// VisibleColumns returns the result set indexes of non-hidden columns in order
func VisibleColumns(columns map[int]models.DataExpression) []int {
	indexes := make([]int, 0, len(columns))
	for idx, c := range columns {
		if c.Hidden {
			continue
		}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}
