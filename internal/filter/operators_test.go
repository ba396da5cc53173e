package filter

import (
	"testing"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	isCertified = models.DataSourceField{DataSourceFieldName: "IsCertified", FilterType: models.FilterTypeBoolean}
	hours       = models.DataSourceField{DataSourceFieldName: "Hours", FilterType: models.FilterTypeDecimal}
	absenceDate = models.DataSourceField{DataSourceFieldName: "Date", FilterType: models.FilterTypeDate, IsRequiredFilter: true}
	status      = models.DataSourceField{
		DataSourceFieldName: "Status",
		FilterType:          models.FilterTypePredefinedSelection,
		PredefinedSelectOptions: []models.PredefinedOption{
			{DisplayText: "Filled", Value: 1},
			{DisplayText: "Unfilled", Value: 2},
		},
	}
	location = models.DataSourceField{
		DataSourceFieldName: "LocationId",
		FilterType:          models.FilterTypeCustom,
		FilterTypeDefinition: &models.CustomFilterDefinition{
			Key:                  "Location",
			SupportedExpressions: []models.ExpressionFunction{models.OpEqual, models.OpContainedIn},
		},
	}
)

func TestAvailableOperators(t *testing.T) {
	tests := []struct {
		name  string
		field models.DataSourceField
		want  []models.ExpressionFunction
	}{
		{"boolean", isCertified, []models.ExpressionFunction{models.OpEqual}},
		{"predefined", status, []models.ExpressionFunction{models.OpEqual, models.OpContainedIn}},
		{"decimal", hours, []models.ExpressionFunction{
			models.OpEqual, models.OpNotEqual,
			models.OpLessThan, models.OpLessThanOrEqual,
			models.OpGreaterThan, models.OpGreaterThanOrEqual,
		}},
		{"custom whitelist", location, []models.ExpressionFunction{models.OpEqual, models.OpContainedIn}},
		{"custom without definition", models.DataSourceField{FilterType: models.FilterTypeCustom}, []models.ExpressionFunction{models.OpEqual}},
		{"date", absenceDate, []models.ExpressionFunction{models.OpBetween, models.OpEqual, models.OpLessThan, models.OpGreaterThan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AvailableOperators(tt.field))
		})
	}
}

func TestAvailableOperators_ReturnsCopy(t *testing.T) {
	ops := AvailableOperators(location)
	ops[0] = models.OpBetween

	assert.Equal(t, models.OpEqual, location.FilterTypeDefinition.SupportedExpressions[0])
}

func TestSupportsOperator(t *testing.T) {
	assert.True(t, SupportsOperator(hours, models.OpGreaterThan))
	assert.False(t, SupportsOperator(isCertified, models.OpNotEqual))
	assert.False(t, SupportsOperator(location, models.OpBetween))
}

func TestDefaultOperator(t *testing.T) {
	between := models.OpBetween
	withDefault := absenceDate
	withDefault.DefaultExpressionFunction = &between

	assert.Equal(t, models.OpEqual, DefaultOperator(absenceDate))
	assert.Equal(t, models.OpBetween, DefaultOperator(withDefault))
}

func TestSetOnly(t *testing.T) {
	filters := []models.FilterField{
		{Field: isCertified, ExpressionFunction: models.OpEqual},
		{Field: isCertified, ExpressionFunction: models.OpEqual, Value: false},
		{Field: hours, ExpressionFunction: models.OpEqual, Value: 0},
		{Field: status, ExpressionFunction: models.OpEqual, Value: ""},
		{Field: location, ExpressionFunction: models.OpContainedIn},
	}

	set := SetOnly(filters)

	require.Len(t, set, 3)
	assert.Equal(t, false, set[0].Value)
	assert.Equal(t, 0, set[1].Value)
	assert.Equal(t, "", set[2].Value)
	assert.Empty(t, SetOnly(nil))
}

func TestRequiredFilters(t *testing.T) {
	between := models.OpBetween
	required := location
	required.IsRequiredFilter = true
	dated := absenceDate
	dated.DefaultExpressionFunction = &between

	fields := []models.DataSourceField{isCertified, dated, hours, required}
	defaults := map[string]any{"Date": models.Range{Start: "2024-07-01", End: "2025-06-30"}}

	filters := RequiredFilters(fields, defaults)

	require.Len(t, filters, 2)
	assert.Equal(t, "Date", filters[0].Field.DataSourceFieldName)
	assert.Equal(t, models.OpBetween, filters[0].ExpressionFunction)
	assert.True(t, filters[0].IsSet())
	assert.Equal(t, "LocationId", filters[1].Field.DataSourceFieldName)
	assert.Equal(t, models.OpEqual, filters[1].ExpressionFunction)
	assert.False(t, filters[1].IsSet())
}

func TestSplitFilters(t *testing.T) {
	filters := []models.FilterField{
		{Field: hours, Value: 1},
		{Field: absenceDate, Value: "2024-01-01"},
		{Field: status, Value: 2},
	}

	required, optional := SplitFilters(filters)

	require.Len(t, required, 1)
	require.Len(t, optional, 2)
	assert.Equal(t, "Date", required[0].Field.DataSourceFieldName)
	assert.Equal(t, "Hours", optional[0].Field.DataSourceFieldName)
	assert.Equal(t, "Status", optional[1].Field.DataSourceFieldName)
}

func TestInitialValue(t *testing.T) {
	assert.Equal(t, false, InitialValue(isCertified))
	assert.Nil(t, InitialValue(hours))
}

func TestFirstUnusedField(t *testing.T) {
	fields := []models.DataSourceField{absenceDate, hours, status}

	field, ok := FirstUnusedField(fields, []models.FilterField{{Field: hours}})
	require.True(t, ok)
	assert.Equal(t, "Status", field.DataSourceFieldName)

	_, ok = FirstUnusedField(fields, []models.FilterField{{Field: hours}, {Field: status}})
	assert.False(t, ok)
}
