// Package report turns a flat result set into grouped, subtotaled rows and
// flattens them for the virtualized grid.
package report

import (
	"sort"

	"github.com/rebeliceyang/lazyreport/internal/models"
)

// GroupAndSort restructures raw rows into groups.
//
// Without subtotal keys the rows form one ungrouped node, sorted by orderBy.
// With subtotal keys the first key splits rows into groups in the order each
// value is first encountered; the remaining keys recurse into every group.
// Sorting applies only inside the innermost groups.
func GroupAndSort(rows [][]any, columns map[int]models.DataExpression, orderBy []models.OrderByField, subtotalBy []models.SubtotalField) []models.GroupedData {
	if len(subtotalBy) == 0 {
		sorted := sortRows(rows, columns, orderBy)
		return []models.GroupedData{{
			Data:      sorted,
			Subtotals: SumAll(sorted),
		}}
	}

	current := subtotalBy[0]
	groupIdx := FindColumnIndex(columns, current.Expression)
	showIdx := groupIdx
	displayName := current.Expression.DisplayName
	if current.ShowExpression != nil {
		showIdx = FindColumnIndex(columns, *current.ShowExpression)
		displayName = current.ShowExpression.DisplayName
	}

	groups := make([]models.GroupedData, 0)
	positions := make(map[string]int)

	for _, row := range rows {
		groupByValue := cellAt(row, groupIdx)
		key := groupKey(groupByValue)

		pos, ok := positions[key]
		if !ok {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, models.GroupedData{
				Info: &models.GroupInfo{
					DisplayName:  displayName,
					DisplayValue: cellAt(row, showIdx),
					GroupByValue: groupByValue,
				},
			})
		}

		groups[pos].Data = append(groups[pos].Data, row)
		groups[pos].Subtotals = SumRows(groups[pos].Subtotals, row)
	}

	remaining := subtotalBy[1:]
	for i := range groups {
		if len(remaining) > 0 {
			groups[i].Children = GroupAndSort(groups[i].Data, columns, orderBy, remaining)
			continue
		}
		groups[i].Data = sortRows(groups[i].Data, columns, orderBy)
	}

	return groups
}

// FindColumnIndex resolves an expression to its column in the result set.
// The query language key is tried first. Failing that the display name is
// matched, which is how older report definitions without keys line up; two
// columns sharing a display name resolve to the lower index. With no match at
// all the first column is used.
func FindColumnIndex(columns map[int]models.DataExpression, expr models.DataExpression) int {
	if key := expr.Key(); key != "" {
		if idx := lowestIndex(columns, func(c models.DataExpression) bool { return c.Key() == key }); idx >= 0 {
			return idx
		}
	}

	if idx := lowestIndex(columns, func(c models.DataExpression) bool { return c.DisplayName == expr.DisplayName }); idx >= 0 {
		return idx
	}

	return 0
}

func lowestIndex(columns map[int]models.DataExpression, match func(models.DataExpression) bool) int {
	found := -1
	for idx, c := range columns {
		if !match(c) {
			continue
		}
		if found == -1 || idx < found {
			found = idx
		}
	}
	return found
}

type sortKey struct {
	index int
	desc  bool
}

// sortRows returns a stably sorted copy of rows
func sortRows(rows [][]any, columns map[int]models.DataExpression, orderBy []models.OrderByField) [][]any {
	sorted := make([][]any, len(rows))
	copy(sorted, rows)

	if len(orderBy) == 0 || len(sorted) < 2 {
		return sorted
	}

	keys := make([]sortKey, len(orderBy))
	for i, o := range orderBy {
		keys[i] = sortKey{
			index: FindColumnIndex(columns, o.Expression),
			desc:  o.Direction == models.Desc,
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return compareRows(sorted[i], sorted[j], keys) < 0
	})

	return sorted
}

func compareRows(a, b []any, keys []sortKey) int {
	for _, k := range keys {
		c := CompareValues(cellAt(a, k.index), cellAt(b, k.index))
		if c == 0 {
			continue
		}
		if k.desc {
			return -c
		}
		return c
	}
	return 0
}
