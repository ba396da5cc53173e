package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRegistry() *Registry {
	r := DefaultRegistry()
	r.SetClock(func() time.Time { return wednesday })
	return r
}

func TestRegistry_DispatchByFilterType(t *testing.T) {
	r := fixedRegistry()

	tests := []struct {
		field models.DataSourceField
		want  Kind
	}{
		{isCertified, KindCheckbox},
		{hours, KindNumeric},
		{models.DataSourceField{FilterType: models.FilterTypeNumber}, KindNumeric},
		{absenceDate, KindDateRange},
		{models.DataSourceField{FilterType: models.FilterTypeDateTime}, KindDateRange},
		{models.DataSourceField{FilterType: models.FilterTypeTime}, KindTime},
		{status, KindSelect},
		{location, KindIDList},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, r.For(models.FilterField{Field: tt.field}).Kind())
		})
	}
}

func TestRegistry_UnknownCustomKey(t *testing.T) {
	r := fixedRegistry()
	field := models.DataSourceField{
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: &models.CustomFilterDefinition{Key: "BusRoute"},
	}

	w := r.For(models.FilterField{Field: field})
	require.NotNil(t, w)
	assert.Equal(t, KindNotFound, w.Kind())

	_, err := w.Parse("12", models.OpEqual)
	assert.True(t, errors.Is(err, ErrNoWidget))
	assert.Equal(t, "", w.Format(12))
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := fixedRegistry()
	r.Register("Location", func(models.DataSourceField) Widget { return TimeWidget{} })

	assert.Equal(t, KindTime, r.For(models.FilterField{Field: location}).Kind())
	assert.ElementsMatch(t, append([]string{TextKey}, DomainPickerKeys...), r.Keys())
}

func TestTextWidget(t *testing.T) {
	r := fixedRegistry()
	field := models.DataSourceField{FilterType: models.FilterTypeCustom, FilterTypeDefinition: TextDefinition()}

	w := r.For(models.FilterField{Field: field})
	require.Equal(t, KindText, w.Kind())

	v, err := w.Parse(" Mc", models.OpStartsWith)
	require.NoError(t, err)
	assert.Equal(t, " Mc", v)

	v, err = w.Parse("   ", models.OpEqual)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.True(t, SupportsOperator(field, models.OpContains))
}

func TestCheckboxWidget(t *testing.T) {
	w := CheckboxWidget{}

	v, err := w.Parse("Yes", models.OpEqual)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = w.Parse("", models.OpEqual)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = w.Parse("maybe", models.OpEqual)
	assert.Error(t, err)

	assert.Equal(t, "yes", w.Format(true))
	assert.Equal(t, "no", w.Format(false))
}

func TestNumericWidget(t *testing.T) {
	v, err := NumericWidget{}.Parse(" 42 ", models.OpGreaterThan)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = NumericWidget{}.Parse("4.5", models.OpEqual)
	assert.Error(t, err)

	v, err = NumericWidget{Decimal: true}.Parse("4.5", models.OpEqual)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4.5").Equal(v.(decimal.Decimal)))

	v, err = NumericWidget{}.Parse("1..8", models.OpBetween)
	require.NoError(t, err)
	assert.Equal(t, models.Range{Start: int64(1), End: int64(8)}, v)
	assert.Equal(t, "1..8", NumericWidget{}.Format(v))

	v, err = NumericWidget{}.Parse("", models.OpEqual)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDateRangeWidget_Parse(t *testing.T) {
	w := DateRangeWidget{Now: func() time.Time { return wednesday }}

	v, err := w.Parse("2025-01-02..2025-01-09", models.OpBetween)
	require.NoError(t, err)
	assert.Equal(t, models.Range{Start: day(2025, 1, 2), End: day(2025, 1, 9)}, v)

	v, err = w.Parse("last week", models.OpBetween)
	require.NoError(t, err)
	assert.Equal(t, models.Range{Start: day(2025, 1, 5), End: day(2025, 1, 11)}, v)

	v, err = w.Parse("2025-03-01", models.OpLessThan)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 3, 1), v)

	_, err = w.Parse("2025-01-09..2025-01-02", models.OpBetween)
	assert.Error(t, err)

	_, err = w.Parse("01/09/2025", models.OpEqual)
	assert.Error(t, err)
}

func TestDateRangeWidget_FormatPrefersRelativeName(t *testing.T) {
	w := DateRangeWidget{Now: func() time.Time { return wednesday }}

	start, end := ThisSchoolYear.Range(wednesday)
	assert.Equal(t, "This school year", w.Format(models.Range{Start: start, End: end}))
	assert.Equal(t, "2025-01-03..2025-01-09", w.Format(models.Range{Start: day(2025, 1, 3), End: day(2025, 1, 9)}))
	assert.Equal(t, "2025-01-03", w.Format(day(2025, 1, 3)))
}

func TestTimeWidget(t *testing.T) {
	v, err := TimeWidget{}.Parse("7:30", models.OpGreaterThan)
	require.NoError(t, err)
	assert.Equal(t, "07:30", v)

	_, err = TimeWidget{}.Parse("half past", models.OpEqual)
	assert.Error(t, err)
}

func TestSelectWidget(t *testing.T) {
	w := SelectWidget{Options: status.PredefinedSelectOptions}

	v, err := w.Parse("filled", models.OpEqual)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = w.Parse("Filled, Unfilled", models.OpContainedIn)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)
	assert.Equal(t, "Filled, Unfilled", w.Format(v))

	_, err = w.Parse("Cancelled", models.OpEqual)
	assert.Error(t, err)
}

func TestIDListWidget(t *testing.T) {
	w := IDListWidget{Name: "Location"}

	v, err := w.Parse("12, 15,abc", models.OpContainedIn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(12), int64(15), "abc"}, v)
	assert.Equal(t, "12, 15, abc", w.Format(v))

	v, err = w.Parse("12", models.OpEqual)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	_, err = w.Parse("12,13", models.OpEqual)
	assert.Error(t, err)

	v, err = w.Parse(" , ", models.OpContainedIn)
	require.NoError(t, err)
	assert.Nil(t, v)
}
