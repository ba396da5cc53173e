// Package query serializes a report query model into the report service's
// query language.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/shopspring/decimal"
)

// Model is the committed query of one report session
type Model struct {
	From       string
	Filters    []models.FilterField
	Select     []models.DataExpression
	OrderBy    []models.OrderByField
	SubtotalBy []models.SubtotalField
}

type options struct {
	export bool
}

// Option changes how a query is built
type Option func(*options)

// WithExport builds the export form: hidden columns are left out and the
// export flag is appended
func WithExport() Option {
	return func(o *options) {
		o.export = true
	}
}

// Build serializes the model. Clauses without content are left out and
// unset filters are never written.
func Build(m Model, opts ...Option) string {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var sb strings.Builder
	sb.WriteString("QUERY FROM ")
	sb.WriteString(m.From)

	if filters := filter.SetOnly(m.Filters); len(filters) > 0 {
		parts := make([]string, len(filters))
		for i, f := range filters {
			parts[i] = Predicate(f)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	selected := make([]string, 0, len(m.Select))
	for _, e := range m.Select {
		if o.export && e.Hidden {
			continue
		}
		selected = append(selected, e.ExpressionAsQueryLanguage)
	}
	if len(selected) > 0 {
		sb.WriteString(" SELECT ")
		sb.WriteString(strings.Join(selected, ", "))
	}

	if len(m.OrderBy) > 0 {
		parts := make([]string, len(m.OrderBy))
		for i, ob := range m.OrderBy {
			parts[i] = ob.Expression.Key() + " " + ob.Direction.String()
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if len(m.SubtotalBy) > 0 {
		parts := make([]string, len(m.SubtotalBy))
		for i, st := range m.SubtotalBy {
			parts[i] = st.Expression.Key()
			if st.ShowExpression != nil {
				parts[i] += " SHOW " + st.ShowExpression.Key()
			}
		}
		sb.WriteString(" SUBTOTAL BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if o.export {
		sb.WriteString(" WITH (EXPORT)")
	}

	return sb.String()
}

// Predicate renders one filter as a query language condition
func Predicate(f models.FilterField) string {
	field := f.Field.DataSourceFieldName

	switch f.ExpressionFunction {
	case models.OpNotEqual:
		return field + " != " + Literal(f.Value)
	case models.OpGreaterThan:
		return field + " > " + Literal(f.Value)
	case models.OpGreaterThanOrEqual:
		return field + " >= " + Literal(f.Value)
	case models.OpLessThan:
		return field + " < " + Literal(f.Value)
	case models.OpLessThanOrEqual:
		return field + " <= " + Literal(f.Value)
	case models.OpContainedIn:
		if !isList(f.Value) {
			return field + " IN (" + Literal(f.Value) + ")"
		}
		return field + " IN " + Literal(f.Value)
	case models.OpBetween:
		if r, ok := models.AsRange(f.Value); ok {
			return field + " BETWEEN " + Literal(r.Start) + " AND " + Literal(r.End)
		}
		return field + " BETWEEN " + Literal(f.Value)
	case models.OpStartsWith:
		return field + " STARTS WITH " + Literal(f.Value)
	case models.OpEndsWith:
		return field + " ENDS WITH " + Literal(f.Value)
	case models.OpContains:
		return field + " CONTAINS " + Literal(f.Value)
	default:
		return field + " = " + Literal(f.Value)
	}
}

// isList reports whether Literal renders v as a parenthesized list
func isList(v any) bool {
	switch v.(type) {
	case []any, []string, []int64:
		return true
	}
	return false
}

// Literal renders a filter value: strings single quoted, dates as ISO text,
// lists in parentheses and ranges as "a AND b"
func Literal(v any) string {
	if r, ok := models.AsRange(v); ok {
		if _, pair := v.([]any); !pair {
			return Literal(r.Start) + " AND " + Literal(r.End)
		}
	}

	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(t)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return quote(t.Format("2006-01-02"))
		}
		return quote(t.Format("2006-01-02T15:04:05"))
	case decimal.Decimal:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = Literal(item)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case []string:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = quote(item)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case []int64:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = fmt.Sprint(item)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprint(v)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
