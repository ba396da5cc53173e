package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/rebeliceyang/lazyreport/internal/db/connection"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	result *connection.Result
	err    error
	args   []any
}

func (f *fakeQuerier) Rows(_ context.Context, _ string, args ...any) (*connection.Result, error) {
	f.args = args
	return f.result, f.err
}

func TestFields(t *testing.T) {
	q := &fakeQuerier{result: &connection.Result{
		Columns: []string{"column_name", "data_type", "udt_name", "is_nullable"},
		Rows: [][]any{
			{"absence_id", "bigint", "int8", "NO"},
			{"absence_date", "date", "date", "NO"},
			{"hours", "numeric", "numeric", "YES"},
			{"is_filled", "boolean", "bool", "YES"},
			{"employee_name", "character varying", "varchar", "YES"},
			{"created_at", "timestamp with time zone", "timestamptz", "NO"},
		},
	}}

	fields, err := Fields(context.Background(), q, "public", "absence")

	require.NoError(t, err)
	assert.Equal(t, []any{"public", "absence"}, q.args)
	require.Len(t, fields, 6)

	assert.Equal(t, models.FilterTypeNumber, fields[0].FilterType)
	assert.Equal(t, "Absence Id", fields[0].FriendlyName)

	assert.Equal(t, models.FilterTypeDate, fields[1].FilterType)
	assert.True(t, fields[1].IsRequiredFilter)

	assert.Equal(t, models.FilterTypeDecimal, fields[2].FilterType)
	assert.False(t, fields[2].IsGroupable)
	assert.Equal(t, models.FilterTypeBoolean, fields[3].FilterType)

	assert.Equal(t, models.FilterTypeCustom, fields[4].FilterType)
	require.NotNil(t, fields[4].FilterTypeDefinition)
	assert.Equal(t, "Text", fields[4].CustomKey())

	assert.Equal(t, models.FilterTypeDateTime, fields[5].FilterType)
	assert.False(t, fields[5].IsRequiredFilter)
}

func TestFields_Errors(t *testing.T) {
	_, err := Fields(context.Background(), &fakeQuerier{err: errors.New("connection reset")}, "public", "absence")
	assert.ErrorContains(t, err, "connection reset")

	_, err = Fields(context.Background(), &fakeQuerier{result: &connection.Result{}}, "public", "missing")
	assert.ErrorContains(t, err, "public.missing")
}

func TestFilterTypeFor(t *testing.T) {
	tests := map[string]models.FilterType{
		"integer":                     models.FilterTypeNumber,
		"smallint":                    models.FilterTypeNumber,
		"interval":                    models.FilterTypeCustom,
		"double precision":            models.FilterTypeDecimal,
		"money":                       models.FilterTypeDecimal,
		"date":                        models.FilterTypeDate,
		"time without time zone":      models.FilterTypeTime,
		"timestamp without time zone": models.FilterTypeDateTime,
		"text":                        models.FilterTypeCustom,
		"point":                       models.FilterTypeCustom,
	}

	for dataType, want := range tests {
		assert.Equal(t, want, FilterTypeFor(dataType), dataType)
	}
}
