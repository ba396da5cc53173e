package source

import (
	"context"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/client"
	"github.com/rebeliceyang/lazyreport/internal/db/connection"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQuerier struct {
	results []*connection.Result
	sql     []string
	args    [][]any
}

func (r *recordingQuerier) Rows(_ context.Context, sql string, args ...any) (*connection.Result, error) {
	r.sql = append(r.sql, sql)
	r.args = append(r.args, args)
	res := r.results[0]
	r.results = r.results[1:]
	return res, nil
}

var (
	dateField   = models.DataSourceField{DataSourceFieldName: "absence_date", FilterType: models.FilterTypeDate}
	schoolField = models.DataSourceField{DataSourceFieldName: "school_id", FilterType: models.FilterTypeNumber}

	dateExpr   = models.DataExpression{DisplayName: "Absence Date", ExpressionAsQueryLanguage: "absence_date"}
	schoolExpr = models.DataExpression{DisplayName: "School Id", ExpressionAsQueryLanguage: "school_id", Hidden: true}
	nameExpr   = models.DataExpression{DisplayName: "School Name", ExpressionAsQueryLanguage: "school_name"}
	hoursExpr  = models.DataExpression{DisplayName: "Hours", ExpressionAsQueryLanguage: "hours"}
)

func absenceQuery() query.Model {
	return query.Model{
		From: "absence",
		Filters: []models.FilterField{
			{Field: dateField, ExpressionFunction: models.OpBetween, Value: models.Range{Start: "2025-01-01", End: "2025-01-31"}},
			{Field: schoolField, ExpressionFunction: models.OpContainedIn},
		},
		Select:     []models.DataExpression{dateExpr, schoolExpr, nameExpr, hoursExpr},
		OrderBy:    []models.OrderByField{{Expression: hoursExpr, Direction: models.Desc}, {Expression: schoolExpr}},
		SubtotalBy: []models.SubtotalField{{Expression: schoolExpr, ShowExpression: &nameExpr}},
	}
}

func TestPostgres_BuildSQL(t *testing.T) {
	p := NewPostgres(nil, "district", 100, nil)

	sql, args, err := p.BuildSQL(absenceQuery())

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "absence_date", "school_id", "school_name", "hours" FROM "district"."absence"`+
			` WHERE "absence_date" BETWEEN $1 AND $2`+
			` ORDER BY "school_id", "hours" DESC LIMIT 100`,
		sql)
	assert.Equal(t, []any{"2025-01-01", "2025-01-31"}, args)
}

func TestPostgres_BuildSQLErrors(t *testing.T) {
	p := NewPostgres(nil, "", 0, nil)

	_, _, err := p.BuildSQL(query.Model{Select: []models.DataExpression{dateExpr}})
	assert.Error(t, err)

	_, _, err = p.BuildSQL(query.Model{From: "absence"})
	assert.Error(t, err)
}

func TestPostgres_GetReport(t *testing.T) {
	q := &recordingQuerier{results: []*connection.Result{{
		Columns: []string{"absence_date", "school_id", "school_name", "hours"},
		Rows: [][]any{
			{time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), int64(4), "Lincoln", 7.5},
		},
	}}}
	p := NewPostgres(q, "district", 0, nil)

	data, err := p.GetReport(context.Background(), client.Request{Query: absenceQuery()})

	require.NoError(t, err)
	require.Len(t, q.sql, 1)
	assert.Contains(t, q.sql[0], "LIMIT 50000")
	assert.Len(t, data.RawData, 1)
	assert.Equal(t, "School Name", data.DataColumnIndexMap[2].DisplayName)
	assert.Equal(t, 4, data.Metadata.NumberOfColumns)
}

func TestPostgres_ExportReportSkipsHiddenColumns(t *testing.T) {
	q := &recordingQuerier{results: []*connection.Result{{
		Rows: [][]any{
			{time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), int64(4), "Lincoln", 7.5},
			{time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), int64(4), "Lincoln, North", nil},
		},
	}}}
	p := NewPostgres(q, "district", 0, nil)

	b, err := p.ExportReport(context.Background(), client.Request{Query: absenceQuery()}, "absences.csv")

	require.NoError(t, err)
	assert.Equal(t,
		"Absence Date,School Name,Hours\n"+
			"2025-01-06,Lincoln,7.5\n"+
			"2025-01-07,\"Lincoln, North\",\n",
		string(b))
}

func TestPostgres_Definition(t *testing.T) {
	q := &recordingQuerier{results: []*connection.Result{{
		Rows: [][]any{
			{"absence_date", "date", "date", "NO"},
			{"hours", "numeric", "numeric", "YES"},
		},
	}}}
	p := NewPostgres(q, "district", 0, nil)

	def, err := p.Definition(context.Background(), "absence_detail")

	require.NoError(t, err)
	assert.Equal(t, "Absence Detail", def.Name)
	assert.Equal(t, "absence_detail", def.From)
	require.Len(t, def.Select, 2)
	assert.Equal(t, "Absence Date", def.Select[0].DisplayName)
	assert.Equal(t, "hours", def.Select[1].DataSourceField.DataSourceFieldName)
	assert.Equal(t, []any{"district", "absence_detail"}, q.args[0])
}
