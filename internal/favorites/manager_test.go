package favorites

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hoursBySchool = models.SavedQuery{
	Columns: []models.DataExpression{
		{DisplayName: "School", ExpressionAsQueryLanguage: "LocationName"},
		{DisplayName: "Hours", ExpressionAsQueryLanguage: "Hours"},
	},
	OptionalFilters: []models.FilterField{{
		Field:              models.DataSourceField{DataSourceFieldName: "IsFilled", FilterType: models.FilterTypeBoolean},
		ExpressionFunction: models.OpEqual,
		Value:              false,
	}},
	OrderBy:    []models.OrderByField{{Expression: models.DataExpression{ExpressionAsQueryLanguage: "Hours"}, Direction: models.Desc}},
	SubtotalBy: []models.SubtotalField{{Expression: models.DataExpression{DisplayName: "School", ExpressionAsQueryLanguage: "LocationName"}}},
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	return m, dir
}

func TestManager_AddPersists(t *testing.T) {
	m, dir := newManager(t)

	saved, err := m.Add(" Hours by school ", "monthly", "Absences", "QUERY FROM Absence", hoursBySchool, []string{"monthly"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Hours by school", saved.Name)

	reloaded, err := NewManager(dir)
	require.NoError(t, err)
	got, err := reloaded.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Absences", got.Report)
	assert.Equal(t, models.Desc, got.Query.OrderBy[0].Direction)
	require.Len(t, got.Query.OptionalFilters, 1)
	assert.Equal(t, false, got.Query.OptionalFilters[0].Value)
	assert.Equal(t, "LocationName", got.Query.SubtotalBy[0].Expression.ExpressionAsQueryLanguage)
}

func TestManager_AddValidates(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Add("  ", "", "Absences", "", hoursBySchool, nil)
	assert.Error(t, err)

	_, err = m.Add("Empty", "", "Absences", "", models.SavedQuery{}, nil)
	assert.Error(t, err)

	_, err = m.Add("Hours", "", "Absences", "", hoursBySchool, nil)
	require.NoError(t, err)
	_, err = m.Add("HOURS", "", "Absences", "", hoursBySchool, nil)
	assert.Error(t, err, "names are unique ignoring case")
}

func TestManager_UpdateDelete(t *testing.T) {
	m, _ := newManager(t)
	a, err := m.Add("A", "", "Absences", "", hoursBySchool, nil)
	require.NoError(t, err)
	b, err := m.Add("B", "", "Vacancies", "", hoursBySchool, nil)
	require.NoError(t, err)

	assert.Error(t, m.Update(b.ID, "a", "", "", hoursBySchool, nil))
	require.NoError(t, m.Update(b.ID, "B2", "renamed", "QUERY FROM Vacancy", hoursBySchool, []string{"x"}))

	got, err := m.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B2", got.Name)
	assert.Equal(t, "QUERY FROM Vacancy", got.QueryText)

	require.NoError(t, m.Delete(a.ID))
	_, err = m.Get(a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(m.Delete(a.ID), ErrNotFound))
	assert.Len(t, m.List(""), 1)
}

func TestManager_ListSearchAndUsage(t *testing.T) {
	m, _ := newManager(t)
	clock := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	a, err := m.Add("Unfilled vacancies", "daily check", "Vacancies", "", hoursBySchool, []string{"subs"})
	require.NoError(t, err)
	b, err := m.Add("Hours by school", "", "Absences", "", hoursBySchool, []string{"monthly"})
	require.NoError(t, err)

	assert.Len(t, m.List("Absences"), 1)
	assert.Len(t, m.Search("DAILY"), 1)
	assert.Len(t, m.Search("month"), 1)
	assert.Len(t, m.Search(""), 2)

	require.NoError(t, m.MarkUsed(b.ID))
	require.NoError(t, m.MarkUsed(b.ID))
	require.NoError(t, m.MarkUsed(a.ID))

	most := m.MostUsed(1)
	require.Len(t, most, 1)
	assert.Equal(t, b.ID, most[0].ID)
	assert.Equal(t, 2, most[0].UsageCount)
	assert.Equal(t, clock, most[0].LastUsed)
}

func TestManager_Export(t *testing.T) {
	m, dir := newManager(t)

	_, err := m.ExportToCSV()
	assert.Error(t, err)

	_, err = m.Add("Hours by school", "", "Absences", "QUERY FROM Absence", hoursBySchool, nil)
	require.NoError(t, err)

	csvPath, err := m.ExportToCSV()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "saved_reports.csv"), csvPath)
	assert.FileExists(t, csvPath)

	jsonPath, err := m.ExportToJSON(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hours by school")
}

func TestManager_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saved_reports.yaml"), []byte("{not: [valid"), 0644))

	_, err := NewManager(dir)
	assert.Error(t, err)
}
