// Package metadata derives report field descriptions from the database catalog
package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/db/connection"
	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
)

// Querier runs a query and returns its rows
type Querier interface {
	Rows(ctx context.Context, sql string, args ...any) (*connection.Result, error)
}

const columnsQuery = `
	SELECT
		column_name,
		data_type,
		udt_name,
		is_nullable
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position
`

// Fields lists a table's columns as report fields. Non nullable date columns
// become required filters, so a report never scans a whole table by default.
func Fields(ctx context.Context, q Querier, schema, table string) ([]models.DataSourceField, error) {
	res, err := q.Rows(ctx, columnsQuery, schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, "get columns of %s.%s", schema, table)
	}
	if len(res.Rows) == 0 {
		return nil, errors.Errorf("table %s.%s not found or has no columns", schema, table)
	}

	fields := make([]models.DataSourceField, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 4 {
			continue
		}
		name := toString(row[0])
		dataType := toString(row[1])
		filterType := FilterTypeFor(dataType)

		field := models.DataSourceField{
			DataSourceFieldName: name,
			FriendlyName:        FriendlyName(name),
			FilterType:          filterType,
			IsRequiredFilter:    filterType == models.FilterTypeDate && toString(row[3]) == "NO",
			IsGroupable:         filterType != models.FilterTypeDecimal && filterType != models.FilterTypeDateTime,
		}
		if filterType == models.FilterTypeCustom {
			field.FilterTypeDefinition = filter.TextDefinition()
		}
		fields = append(fields, field)
	}

	return fields, nil
}

var integerTypes = map[string]bool{
	"smallint": true, "integer": true, "bigint": true,
	"int2": true, "int4": true, "int8": true,
}

// FilterTypeFor maps a Postgres data type to the filter type used to edit it
func FilterTypeFor(dataType string) models.FilterType {
	dataType = strings.ToLower(dataType)
	switch {
	case strings.Contains(dataType, "bool"):
		return models.FilterTypeBoolean
	case integerTypes[dataType]:
		return models.FilterTypeNumber
	case strings.Contains(dataType, "numeric") || strings.Contains(dataType, "real") ||
		strings.Contains(dataType, "double") || strings.Contains(dataType, "money"):
		return models.FilterTypeDecimal
	case strings.HasPrefix(dataType, "timestamp"):
		return models.FilterTypeDateTime
	case dataType == "date":
		return models.FilterTypeDate
	case strings.HasPrefix(dataType, "time"):
		return models.FilterTypeTime
	default:
		// text and anything else is matched as text
		return models.FilterTypeCustom
	}
}

// FriendlyName turns a snake_case column name into a title
func FriendlyName(column string) string {
	words := strings.FieldsFunc(column, func(r rune) bool { return r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
