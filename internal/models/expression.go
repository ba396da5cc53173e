package models

// DataExpression is a selected or orderable column of a report
type DataExpression struct {
	DisplayName                   string           `json:"displayName" yaml:"display_name"`
	ExpressionAsQueryLanguage     string           `json:"expressionAsQueryLanguage" yaml:"expression"`
	BaseExpressionAsQueryLanguage string           `json:"baseExpressionAsQueryLanguage,omitempty" yaml:"base_expression,omitempty"`
	DataSourceField               *DataSourceField `json:"dataSourceField,omitempty" yaml:"data_source_field,omitempty"`
	Width                         *int             `json:"width,omitempty" yaml:"width,omitempty"`
	Hidden                        bool             `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Key returns the identity of the expression within one select list.
// The base form wins when present so aliased expressions still match.
func (e DataExpression) Key() string {
	if e.BaseExpressionAsQueryLanguage != "" {
		return e.BaseExpressionAsQueryLanguage
	}
	return e.ExpressionAsQueryLanguage
}

// Direction is a sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderByField is one sort key; a slice of them is ordered by priority
type OrderByField struct {
	Expression DataExpression `json:"expression" yaml:"expression"`
	Direction  Direction      `json:"direction" yaml:"direction"`
}

// SubtotalField is one grouping level; the first entry is the outermost group
type SubtotalField struct {
	Expression DataExpression `json:"expression" yaml:"expression"`
	// ShowExpression is displayed in the group header instead of the grouping key
	ShowExpression *DataExpression `json:"showExpression,omitempty" yaml:"show_expression,omitempty"`
}

// IndexOfExpression returns the position of the expression with the given key, or -1
func IndexOfExpression(exprs []DataExpression, key string) int {
	for i, e := range exprs {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

// IndexOfOrderBy returns the position of the sort key with the given expression key, or -1
func IndexOfOrderBy(orderBy []OrderByField, key string) int {
	for i, o := range orderBy {
		if o.Expression.Key() == key {
			return i
		}
	}
	return -1
}
