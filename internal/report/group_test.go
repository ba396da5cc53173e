package report

import (
	"testing"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dateExpr   = models.DataExpression{DisplayName: "Date", ExpressionAsQueryLanguage: "Date"}
	hoursExpr  = models.DataExpression{DisplayName: "Hours", ExpressionAsQueryLanguage: "Hours"}
	schoolExpr = models.DataExpression{DisplayName: "School", ExpressionAsQueryLanguage: "LocationId"}
	nameExpr   = models.DataExpression{DisplayName: "School Name", ExpressionAsQueryLanguage: "LocationName"}
	reasonExpr = models.DataExpression{DisplayName: "Reason", ExpressionAsQueryLanguage: "AbsenceReason"}
)

func columnMap(exprs ...models.DataExpression) map[int]models.DataExpression {
	m := make(map[int]models.DataExpression, len(exprs))
	for i, e := range exprs {
		m[i] = e
	}
	return m
}

func requireDecimal(t *testing.T, want int64, got any) {
	t.Helper()
	d, ok := got.(decimal.Decimal)
	require.Truef(t, ok, "expected decimal.Decimal, got %T", got)
	assert.Truef(t, d.Equal(decimal.NewFromInt(want)), "expected %d, got %s", want, d)
}

func TestGroupAndSort_SingleSchool(t *testing.T) {
	rows := [][]any{
		{"3/10/2020", 8, "A"},
		{"9/18/2019", 5, "A"},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)

	groups := GroupAndSort(rows, columns, nil, []models.SubtotalField{{Expression: schoolExpr}})

	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].Info)
	assert.Equal(t, "A", groups[0].Info.GroupByValue)
	assert.Equal(t, "School", groups[0].Info.DisplayName)
	assert.Len(t, groups[0].Data, 2)
	requireDecimal(t, 13, groups[0].Subtotals[1])
	assert.Nil(t, groups[0].Subtotals[0])
	assert.Nil(t, groups[0].Subtotals[2])
}

func TestGroupAndSort_SubtotalsMatchGroupSums(t *testing.T) {
	rows := [][]any{
		{"2020-01-01", 8, "A"},
		{"2020-01-02", 4, "B"},
		{"2020-01-03", 2, "A"},
		{"2020-01-04", 7, "C"},
		{"2020-01-05", 1, "B"},
		{"2020-01-06", 3, "A"},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)

	groups := GroupAndSort(rows, columns, nil, []models.SubtotalField{{Expression: schoolExpr}})

	require.Len(t, groups, 3)
	want := map[string]int64{"A": 13, "B": 5, "C": 7}
	for _, g := range groups {
		school := g.Info.GroupByValue.(string)

		var sum int64
		for _, r := range g.Data {
			assert.Equal(t, school, r[2])
			sum += int64(r[1].(int))
		}
		assert.Equal(t, want[school], sum)
		requireDecimal(t, want[school], g.Subtotals[1])
	}
}

func TestGroupAndSort_GroupsKeepEncounterOrder(t *testing.T) {
	rows := [][]any{
		{"x", 1, "C"},
		{"x", 1, "A"},
		{"x", 1, "B"},
		{"x", 1, "A"},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)
	orderBy := []models.OrderByField{{Expression: schoolExpr, Direction: models.Asc}}

	groups := GroupAndSort(rows, columns, orderBy, []models.SubtotalField{{Expression: schoolExpr}})

	require.Len(t, groups, 3)
	assert.Equal(t, "C", groups[0].Info.GroupByValue)
	assert.Equal(t, "A", groups[1].Info.GroupByValue)
	assert.Equal(t, "B", groups[2].Info.GroupByValue)
}

func TestGroupAndSort_SortsInsideLeafGroups(t *testing.T) {
	rows := [][]any{
		{"2020-03-01", 1, "A"},
		{"2020-01-01", 2, "B"},
		{"2020-02-01", 3, "A"},
		{"2020-01-15", 4, "A"},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)
	orderBy := []models.OrderByField{{Expression: dateExpr, Direction: models.Asc}}

	groups := GroupAndSort(rows, columns, orderBy, []models.SubtotalField{{Expression: schoolExpr}})

	require.Len(t, groups, 2)
	var dates []any
	for _, r := range groups[0].Data {
		dates = append(dates, r[0])
	}
	assert.Equal(t, []any{"2020-01-15", "2020-02-01", "2020-03-01"}, dates)
}

func TestGroupAndSort_NonNumericColumnsSubtotalToNil(t *testing.T) {
	rows := [][]any{
		{"a", 1, 2.5},
		{"b", "n/a", 1.5},
		{"c", 3, nil},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)

	groups := GroupAndSort(rows, columns, nil, nil)

	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].Subtotals[0])
	assert.Nil(t, groups[0].Subtotals[1])
	assert.Nil(t, groups[0].Subtotals[2])
}

func TestGroupAndSort_Ungrouped(t *testing.T) {
	rows := [][]any{
		{"2020-01-03", 1.25, "A"},
		{"2020-01-01", 2.5, "B"},
		{"2020-01-02", 4, "A"},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)
	orderBy := []models.OrderByField{{Expression: dateExpr, Direction: models.Desc}}

	groups := GroupAndSort(rows, columns, orderBy, nil)

	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].Info)
	assert.Empty(t, groups[0].Children)
	require.Len(t, groups[0].Data, 3)
	assert.Equal(t, "2020-01-03", groups[0].Data[0][0])
	assert.Equal(t, "2020-01-02", groups[0].Data[1][0])
	assert.Equal(t, "2020-01-01", groups[0].Data[2][0])

	total, ok := groups[0].Subtotals[1].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, total.Equal(decimal.RequireFromString("7.75")))

	// input is left untouched
	assert.Equal(t, "2020-01-03", rows[0][0])
}

func TestGroupAndSort_StableMultiKeySort(t *testing.T) {
	rows := [][]any{
		{"b", 1, "r1"},
		{"a", 2, "r2"},
		{"b", 3, "r3"},
		{"a", 1, "r4"},
		{"b", 2, "r5"},
	}
	colA := models.DataExpression{DisplayName: "A", ExpressionAsQueryLanguage: "A"}
	colB := models.DataExpression{DisplayName: "B", ExpressionAsQueryLanguage: "B"}
	colID := models.DataExpression{DisplayName: "Id", ExpressionAsQueryLanguage: "Id"}
	columns := columnMap(colA, colB, colID)

	twoKeys := GroupAndSort(rows, columns, []models.OrderByField{
		{Expression: colA, Direction: models.Asc},
		{Expression: colB, Direction: models.Desc},
	}, nil)[0].Data
	assert.Equal(t, []any{"r2", "r4", "r3", "r5", "r1"}, ids(twoKeys))

	resorted := GroupAndSort(twoKeys, columns, []models.OrderByField{{Expression: colA, Direction: models.Asc}}, nil)[0].Data
	assert.Equal(t, ids(twoKeys), ids(resorted))

	single := GroupAndSort(rows, columns, []models.OrderByField{{Expression: colA, Direction: models.Asc}}, nil)[0].Data
	assert.Equal(t, []any{"r2", "r4", "r1", "r3", "r5"}, ids(single))

	again := GroupAndSort(rows, columns, []models.OrderByField{{Expression: colA, Direction: models.Asc}}, nil)[0].Data
	assert.Equal(t, ids(single), ids(again))
}

func ids(rows [][]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[2]
	}
	return out
}

func TestGroupAndSort_NestedWithShowExpression(t *testing.T) {
	rows := [][]any{
		{10, "Lincoln", "Sick", 8},
		{20, "Adams", "Vacation", 4},
		{10, "Lincoln", "Vacation", 2},
		{10, "Lincoln", "Sick", 3},
	}
	hours := models.DataExpression{DisplayName: "Hours", ExpressionAsQueryLanguage: "Hours"}
	columns := columnMap(schoolExpr, nameExpr, reasonExpr, hours)
	show := nameExpr

	groups := GroupAndSort(rows, columns, nil, []models.SubtotalField{
		{Expression: schoolExpr, ShowExpression: &show},
		{Expression: reasonExpr},
	})

	require.Len(t, groups, 2)
	lincoln := groups[0]
	assert.Equal(t, "School Name", lincoln.Info.DisplayName)
	assert.Equal(t, "Lincoln", lincoln.Info.DisplayValue)
	assert.Equal(t, 10, lincoln.Info.GroupByValue)
	requireDecimal(t, 13, lincoln.Subtotals[3])

	require.Len(t, lincoln.Children, 2)
	assert.Equal(t, "Sick", lincoln.Children[0].Info.GroupByValue)
	assert.Len(t, lincoln.Children[0].Data, 2)
	requireDecimal(t, 11, lincoln.Children[0].Subtotals[3])
	requireDecimal(t, 2, lincoln.Children[1].Subtotals[3])

	require.Len(t, groups[1].Children, 1)
	requireDecimal(t, 4, groups[1].Subtotals[3])
}

func TestGroupAndSort_EqualValuesShareAGroup(t *testing.T) {
	utc := time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC)
	est := utc.In(time.FixedZone("EST", -5*60*60))
	rows := [][]any{
		{utc, 1, int32(7)},
		{est, 2, int64(7)},
	}
	columns := columnMap(dateExpr, hoursExpr, schoolExpr)

	byDate := GroupAndSort(rows, columns, nil, []models.SubtotalField{{Expression: dateExpr}})
	require.Len(t, byDate, 1)
	requireDecimal(t, 3, byDate[0].Subtotals[1])

	bySchool := GroupAndSort(rows, columns, nil, []models.SubtotalField{{Expression: schoolExpr}})
	require.Len(t, bySchool, 1)
	assert.Equal(t, int32(7), bySchool[0].Info.GroupByValue)
}

func TestGroupAndSort_Empty(t *testing.T) {
	columns := columnMap(dateExpr, hoursExpr)

	ungrouped := GroupAndSort(nil, columns, nil, nil)
	require.Len(t, ungrouped, 1)
	assert.Empty(t, ungrouped[0].Data)

	grouped := GroupAndSort(nil, columns, nil, []models.SubtotalField{{Expression: dateExpr}})
	assert.Empty(t, grouped)
}

func TestFindColumnIndex(t *testing.T) {
	first := models.DataExpression{DisplayName: "Name", ExpressionAsQueryLanguage: "Employee.Name"}
	second := models.DataExpression{DisplayName: "Name", ExpressionAsQueryLanguage: "Substitute.Name"}
	columns := columnMap(dateExpr, first, second)

	t.Run("matches on the expression key", func(t *testing.T) {
		assert.Equal(t, 2, FindColumnIndex(columns, second))
		assert.Equal(t, 1, FindColumnIndex(columns, first))
	})

	t.Run("falls back to the display name", func(t *testing.T) {
		byName := models.DataExpression{DisplayName: "Name"}
		assert.Equal(t, 1, FindColumnIndex(columns, byName))
	})

	t.Run("aliased expression matches its base form", func(t *testing.T) {
		aliased := models.DataExpression{
			DisplayName:                   "Employee",
			ExpressionAsQueryLanguage:     "Employee.Name AS 'Employee'",
			BaseExpressionAsQueryLanguage: "Employee.Name",
		}
		cols := columnMap(dateExpr, aliased)
		assert.Equal(t, 1, FindColumnIndex(cols, models.DataExpression{
			DisplayName:                   "Who",
			ExpressionAsQueryLanguage:     "Employee.Name AS 'Who'",
			BaseExpressionAsQueryLanguage: "Employee.Name",
		}))
	})

	t.Run("unknown column degrades to the first", func(t *testing.T) {
		assert.Equal(t, 0, FindColumnIndex(columns, models.DataExpression{DisplayName: "Missing", ExpressionAsQueryLanguage: "Missing"}))
	})
}

func TestCompareValues(t *testing.T) {
	early := time.Date(2019, 9, 18, 0, 0, 0, 0, time.UTC)
	late := time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", 1, 2, -1},
		{"mixed numeric", int64(3), 2.5, 1},
		{"decimal and int", decimal.NewFromInt(4), 4, 0},
		{"strings", "b", "a", 1},
		{"times", early, late, -1},
		{"bools", false, true, -1},
		{"nil first", nil, 0, -1},
		{"nil last", "a", nil, 1},
		{"both nil", nil, nil, 0},
		{"unrelated types", "a", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareValues(tt.a, tt.b))
		})
	}
}
