// Package filter holds the rules for report filters: which operators a field
// accepts, how values are edited, and how set filters become SQL predicates.
package filter

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
)

// Builder generates Postgres WHERE clauses from report filters
type Builder struct{}

// NewBuilder creates a new filter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildWhere generates a WHERE clause with positional parameters from the set
// filters. Unset filters are skipped, so no filters yields an empty clause.
func (b *Builder) BuildWhere(filters []models.FilterField) (string, []any, error) {
	set := SetOnly(filters)
	if len(set) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(set))
	args := make([]any, 0, len(set))

	for _, f := range set {
		clause, condArgs, err := b.buildCondition(f, len(args)+1)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(f models.FilterField, paramIndex int) (string, []any, error) {
	column := pgx.Identifier{f.Field.DataSourceFieldName}.Sanitize()

	switch f.ExpressionFunction {
	case models.OpEqual, models.OpNotEqual, models.OpGreaterThan, models.OpGreaterThanOrEqual,
		models.OpLessThan, models.OpLessThanOrEqual:
		return fmt.Sprintf("%s %s $%d", column, sqlOperator(f.ExpressionFunction), paramIndex), []any{f.Value}, nil
	case models.OpContainedIn:
		values, ok := f.Value.([]any)
		if !ok {
			values = []any{f.Value}
		}
		return fmt.Sprintf("%s = ANY($%d)", column, paramIndex), []any{values}, nil
	case models.OpBetween:
		r, ok := models.AsRange(f.Value)
		if !ok {
			return "", nil, errors.Errorf("filter on %s: between needs a start and an end", f.Field.DataSourceFieldName)
		}
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", column, paramIndex, paramIndex+1), []any{r.Start, r.End}, nil
	case models.OpStartsWith:
		return fmt.Sprintf("%s LIKE $%d", column, paramIndex), []any{escapeLike(f.Value) + "%"}, nil
	case models.OpEndsWith:
		return fmt.Sprintf("%s LIKE $%d", column, paramIndex), []any{"%" + escapeLike(f.Value)}, nil
	case models.OpContains:
		return fmt.Sprintf("%s LIKE $%d", column, paramIndex), []any{"%" + escapeLike(f.Value) + "%"}, nil
	default:
		return "", nil, errors.Errorf("unsupported operator: %s", f.ExpressionFunction)
	}
}

func sqlOperator(op models.ExpressionFunction) string {
	switch op {
	case models.OpNotEqual:
		return "<>"
	case models.OpGreaterThan:
		return ">"
	case models.OpGreaterThanOrEqual:
		return ">="
	case models.OpLessThan:
		return "<"
	case models.OpLessThanOrEqual:
		return "<="
	default:
		return "="
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v any) string {
	return likeEscaper.Replace(fmt.Sprint(v))
}
