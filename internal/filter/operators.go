package filter

import (
	"github.com/rebeliceyang/lazyreport/internal/models"
)

// AvailableOperators returns the comparison operators a field can be filtered with
func AvailableOperators(field models.DataSourceField) []models.ExpressionFunction {
	switch field.FilterType {
	case models.FilterTypeBoolean:
		return []models.ExpressionFunction{models.OpEqual}
	case models.FilterTypePredefinedSelection:
		return []models.ExpressionFunction{models.OpEqual, models.OpContainedIn}
	case models.FilterTypeNumber, models.FilterTypeDecimal:
		return []models.ExpressionFunction{
			models.OpEqual, models.OpNotEqual,
			models.OpLessThan, models.OpLessThanOrEqual,
			models.OpGreaterThan, models.OpGreaterThanOrEqual,
		}
	case models.FilterTypeDate, models.FilterTypeDateTime:
		return []models.ExpressionFunction{
			models.OpBetween, models.OpEqual,
			models.OpLessThan, models.OpGreaterThan,
		}
	case models.FilterTypeTime:
		return []models.ExpressionFunction{
			models.OpEqual,
			models.OpLessThan, models.OpLessThanOrEqual,
			models.OpGreaterThan, models.OpGreaterThanOrEqual,
		}
	case models.FilterTypeCustom:
		if field.FilterTypeDefinition == nil || len(field.FilterTypeDefinition.SupportedExpressions) == 0 {
			return []models.ExpressionFunction{models.OpEqual}
		}
		ops := make([]models.ExpressionFunction, len(field.FilterTypeDefinition.SupportedExpressions))
		copy(ops, field.FilterTypeDefinition.SupportedExpressions)
		return ops
	default:
		return []models.ExpressionFunction{models.OpEqual}
	}
}

// SupportsOperator reports whether op is valid for the field
func SupportsOperator(field models.DataSourceField, op models.ExpressionFunction) bool {
	for _, candidate := range AvailableOperators(field) {
		if candidate == op {
			return true
		}
	}
	return false
}

// DefaultOperator returns the field's declared default operator, or Equal
func DefaultOperator(field models.DataSourceField) models.ExpressionFunction {
	if field.DefaultExpressionFunction != nil {
		return *field.DefaultExpressionFunction
	}
	return models.OpEqual
}

// SetOnly drops filters that have no value yet. Only the result may be sent
// to a report source.
func SetOnly(filters []models.FilterField) []models.FilterField {
	out := make([]models.FilterField, 0, len(filters))
	for _, f := range filters {
		if f.IsSet() {
			out = append(out, f)
		}
	}
	return out
}

// RequiredFilters derives one filter per required field, in field order.
// defaults holds definition provided values keyed by field name.
func RequiredFilters(fields []models.DataSourceField, defaults map[string]any) []models.FilterField {
	out := make([]models.FilterField, 0)
	for _, field := range fields {
		if !field.IsRequiredFilter {
			continue
		}
		out = append(out, models.FilterField{
			Field:              field,
			ExpressionFunction: DefaultOperator(field),
			Value:              defaults[field.DataSourceFieldName],
		})
	}
	return out
}

// SplitFilters partitions definition filters into required and optional
func SplitFilters(filters []models.FilterField) (required, optional []models.FilterField) {
	required = make([]models.FilterField, 0)
	optional = make([]models.FilterField, 0)
	for _, f := range filters {
		if f.Field.IsRequiredFilter {
			required = append(required, f)
			continue
		}
		optional = append(optional, f)
	}
	return required, optional
}

// InitialValue is the value a filter starts with when its field is chosen.
// Boolean filters start at false, everything else starts unset.
func InitialValue(field models.DataSourceField) any {
	if field.FilterType == models.FilterTypeBoolean {
		return false
	}
	return nil
}

// FirstUnusedField returns the first optional filterable field not already
// used by one of the filters
func FirstUnusedField(fields []models.DataSourceField, filters []models.FilterField) (models.DataSourceField, bool) {
	used := make(map[string]bool, len(filters))
	for _, f := range filters {
		used[f.Field.DataSourceFieldName] = true
	}
	for _, field := range fields {
		if field.IsRequiredFilter || used[field.DataSourceFieldName] {
			continue
		}
		return field, true
	}
	return models.DataSourceField{}, false
}
