package metadata

import (
	"context"

	"github.com/pkg/errors"
)

// Table is a table a report can be opened on
type Table struct {
	Schema string
	Name   string
	Size   string
	// Rows is the planner estimate, -1 when the table was never analyzed
	Rows int64
}

const tablesQuery = `
	SELECT
		t.schemaname,
		t.tablename,
		pg_catalog.pg_size_pretty(pg_catalog.pg_total_relation_size(c.oid)),
		c.reltuples::bigint
	FROM pg_catalog.pg_tables t
	JOIN pg_catalog.pg_namespace n ON n.nspname = t.schemaname
	JOIN pg_catalog.pg_class c ON c.relnamespace = n.oid AND c.relname = t.tablename
	WHERE t.schemaname = $1
	ORDER BY t.tablename`

// Tables lists the tables of schema with their size and estimated row count
func Tables(ctx context.Context, q Querier, schema string) ([]Table, error) {
	res, err := q.Rows(ctx, tablesQuery, schema)
	if err != nil {
		return nil, errors.Wrapf(err, "list tables of %s", schema)
	}

	tables := make([]Table, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 4 {
			continue
		}
		table := Table{
			Schema: toString(row[0]),
			Name:   toString(row[1]),
			Size:   toString(row[2]),
			Rows:   -1,
		}
		if n, ok := row[3].(int64); ok && n >= 0 {
			table.Rows = n
		}
		tables = append(tables, table)
	}
	return tables, nil
}
