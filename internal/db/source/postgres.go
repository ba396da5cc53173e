// Package source runs report queries directly against a Postgres database
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/client"
	"github.com/rebeliceyang/lazyreport/internal/db/metadata"
	"github.com/rebeliceyang/lazyreport/internal/export"
	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
	"github.com/sirupsen/logrus"
)

// DefaultRowLimit caps the rows a direct query returns
const DefaultRowLimit = 50000

// Postgres serves reports from tables of one schema. Select expressions and
// sort keys name columns; grouping and subtotals happen client side.
type Postgres struct {
	q        metadata.Querier
	schema   string
	rowLimit int
	builder  *filter.Builder
	log      *logrus.Entry
}

// NewPostgres creates a source reading tables of schema through q
func NewPostgres(q metadata.Querier, schema string, rowLimit int, log *logrus.Entry) *Postgres {
	if schema == "" {
		schema = "public"
	}
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Postgres{
		q:        q,
		schema:   schema,
		rowLimit: rowLimit,
		builder:  filter.NewBuilder(),
		log:      log.WithField("component", "postgres-source"),
	}
}

var _ client.Source = (*Postgres)(nil)

// Definition describes a table as a report selecting every column
func (p *Postgres) Definition(ctx context.Context, table string) (models.ReportDefinition, error) {
	fields, err := metadata.Fields(ctx, p.q, p.schema, table)
	if err != nil {
		return models.ReportDefinition{}, err
	}

	selects := make([]models.DataExpression, len(fields))
	for i := range fields {
		f := fields[i]
		selects[i] = models.DataExpression{
			DisplayName:               f.FriendlyName,
			ExpressionAsQueryLanguage: f.DataSourceFieldName,
			DataSourceField:           &f,
		}
	}

	return models.ReportDefinition{
		Name:   metadata.FriendlyName(table),
		From:   table,
		Fields: fields,
		Select: selects,
	}, nil
}

// BuildSQL turns a query model into a parameterized SELECT
func (p *Postgres) BuildSQL(m query.Model) (string, []any, error) {
	if m.From == "" {
		return "", nil, errors.New("query has no table")
	}
	if len(m.Select) == 0 {
		return "", nil, errors.New("query selects no columns")
	}

	columns := make([]string, len(m.Select))
	for i, e := range m.Select {
		columns[i] = pgx.Identifier{e.Key()}.Sanitize()
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(pgx.Identifier{p.schema, m.From}.Sanitize())

	where, args, err := p.builder.BuildWhere(m.Filters)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" ")
		sb.WriteString(where)
	}

	// subtotal keys lead so that rows of one group arrive together
	order := make([]string, 0, len(m.SubtotalBy)+len(m.OrderBy))
	seen := make(map[string]bool)
	for _, st := range m.SubtotalBy {
		key := st.Expression.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		order = append(order, pgx.Identifier{key}.Sanitize())
	}
	for _, o := range m.OrderBy {
		key := o.Expression.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		order = append(order, pgx.Identifier{key}.Sanitize()+" "+o.Direction.String())
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
	}

	fmt.Fprintf(&sb, " LIMIT %d", p.rowLimit)
	return sb.String(), args, nil
}

// GetReport runs the query against the database
func (p *Postgres) GetReport(ctx context.Context, req client.Request) (*models.ReportData, error) {
	sql, args, err := p.BuildSQL(req.Query)
	if err != nil {
		return nil, err
	}

	res, err := p.q.Rows(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "run report %s", req.Query.From)
	}

	p.log.WithFields(logrus.Fields{
		"table":       req.Query.From,
		"rows":        len(res.Rows),
		"duration_ms": res.Duration.Milliseconds(),
	}).Debug("report query done")

	indexMap := make(map[int]models.DataExpression, len(req.Query.Select))
	for i, e := range req.Query.Select {
		indexMap[i] = e
	}

	return &models.ReportData{
		RawData:            res.Rows,
		DataColumnIndexMap: indexMap,
		Metadata: models.ReportMetadata{
			Query: models.ReportDefinition{
				From:       req.Query.From,
				Select:     req.Query.Select,
				Filters:    req.Query.Filters,
				OrderBy:    req.Query.OrderBy,
				SubtotalBy: req.Query.SubtotalBy,
			},
			NumberOfColumns: len(req.Query.Select),
		},
	}, nil
}

// ExportReport runs the query and renders the visible columns as CSV
func (p *Postgres) ExportReport(ctx context.Context, req client.Request, _ string) ([]byte, error) {
	data, err := p.GetReport(ctx, req)
	if err != nil {
		return nil, err
	}
	return export.ReportToCSV(data)
}
