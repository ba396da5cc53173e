package models

// FilterType tags how a data source field is filtered and which widget edits it
type FilterType string

const (
	FilterTypeBoolean             FilterType = "Boolean"
	FilterTypeNumber              FilterType = "Number"
	FilterTypeDecimal             FilterType = "Decimal"
	FilterTypeDate                FilterType = "Date"
	FilterTypeTime                FilterType = "Time"
	FilterTypeDateTime            FilterType = "DateTime"
	FilterTypePredefinedSelection FilterType = "PredefinedSelection"
	FilterTypeCustom              FilterType = "Custom"
)

// ExpressionFunction represents a filter comparison operator
type ExpressionFunction string

const (
	OpEqual              ExpressionFunction = "Equal"
	OpNotEqual           ExpressionFunction = "NotEqual"
	OpGreaterThan        ExpressionFunction = "GreaterThan"
	OpGreaterThanOrEqual ExpressionFunction = "GreaterThanOrEqual"
	OpLessThan           ExpressionFunction = "LessThan"
	OpLessThanOrEqual    ExpressionFunction = "LessThanOrEqual"
	OpContainedIn        ExpressionFunction = "ContainedIn"
	OpBetween            ExpressionFunction = "Between"
	OpStartsWith         ExpressionFunction = "StartsWith"
	OpEndsWith           ExpressionFunction = "EndsWith"
	OpContains           ExpressionFunction = "Contains"
)

// CustomFilterDefinition names a domain specific picker and the operators it supports
type CustomFilterDefinition struct {
	Key                  string               `json:"key" yaml:"key"`
	SupportedExpressions []ExpressionFunction `json:"supportedExpressions" yaml:"supported_expressions"`
}

// PredefinedOption is one entry of a static selection list
type PredefinedOption struct {
	DisplayText string `json:"displayText" yaml:"display_text"`
	Value       any    `json:"value" yaml:"value"`
}

// DataSourceField describes one queryable column of the server schema
type DataSourceField struct {
	DataSourceFieldName        string                  `json:"dataSourceFieldName" yaml:"name"`
	FriendlyName               string                  `json:"friendlyName" yaml:"friendly_name"`
	FilterType                 FilterType              `json:"filterType" yaml:"filter_type"`
	DefaultExpressionFunction  *ExpressionFunction     `json:"defaultExpressionFunction,omitempty" yaml:"default_expression_function,omitempty"`
	FilterTypeDefinition       *CustomFilterDefinition `json:"filterTypeDefinition,omitempty" yaml:"filter_type_definition,omitempty"`
	PredefinedSelectOptions    []PredefinedOption      `json:"predefinedSelectOptions,omitempty" yaml:"predefined_select_options,omitempty"`
	IsRequiredFilter           bool                    `json:"isRequiredFilter" yaml:"is_required_filter"`
	DefaultColumnWidthInPixels *int                    `json:"defaultColumnWidthInPixels,omitempty" yaml:"default_column_width_in_pixels,omitempty"`
	IsGroupable                bool                    `json:"isGroupable" yaml:"is_groupable"`
}

// CustomKey returns the custom picker key, or "" for non-custom fields
func (f DataSourceField) CustomKey() string {
	if f.FilterType != FilterTypeCustom || f.FilterTypeDefinition == nil {
		return ""
	}
	return f.FilterTypeDefinition.Key
}

// FilterField is one active filter
type FilterField struct {
	Field              DataSourceField    `json:"field" yaml:"field"`
	ExpressionFunction ExpressionFunction `json:"expressionFunction" yaml:"expression_function"`
	// Value is a scalar, a slice for ContainedIn, or a Range for Between.
	// nil means the user has not supplied a value yet.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

// IsSet reports whether the filter carries a value; false and 0 count as set
func (f FilterField) IsSet() bool {
	return f.Value != nil
}

// Range is the value of a Between filter
type Range struct {
	Start any `json:"start" yaml:"start"`
	End   any `json:"end" yaml:"end"`
}

// AsRange reads a Between value. Besides Range it accepts a two element slice
// and the start/end map a Range decodes to from JSON or YAML.
func AsRange(v any) (Range, bool) {
	switch r := v.(type) {
	case Range:
		return r, true
	case *Range:
		if r == nil {
			return Range{}, false
		}
		return *r, true
	case []any:
		if len(r) != 2 {
			return Range{}, false
		}
		return Range{Start: r[0], End: r[1]}, true
	case map[string]any:
		start, sok := r["start"]
		end, eok := r["end"]
		if !sok || !eok {
			return Range{}, false
		}
		return Range{Start: start, End: end}, true
	}
	return Range{}, false
}
