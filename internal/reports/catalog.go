// Package reports holds the report definitions the terminal can open when the
// report service is the data source
package reports

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrUnknownReport is returned when no definition carries the requested name
var ErrUnknownReport = errors.New("unknown report")

type catalogFile struct {
	Reports []models.ReportDefinition `yaml:"reports"`
}

// LoadFile reads report definitions from a YAML file with a top level
// "reports" list
func LoadFile(path string) ([]models.ReportDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read reports file")
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "parse reports file %s", path)
	}
	for i, def := range file.Reports {
		if strings.TrimSpace(def.Name) == "" || strings.TrimSpace(def.From) == "" {
			return nil, errors.Errorf("report %d in %s needs a name and a from", i+1, path)
		}
	}
	return file.Reports, nil
}

// Find returns the definition named name, ignoring case
func Find(defs []models.ReportDefinition, name string) (models.ReportDefinition, error) {
	for _, def := range defs {
		if strings.EqualFold(def.Name, strings.TrimSpace(name)) {
			return def, nil
		}
	}
	return models.ReportDefinition{}, errors.Wrapf(ErrUnknownReport, "%q", name)
}

// Names lists the names of defs in order
func Names(defs []models.ReportDefinition) []string {
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Builtin returns the absence and vacancy reports. Their required date filter
// starts on the current month.
func Builtin(now time.Time) []models.ReportDefinition {
	return []models.ReportDefinition{absences(now), vacancies(now)}
}

func ptr[T any](v T) *T {
	return &v
}

func custom(key string, ops ...models.ExpressionFunction) *models.CustomFilterDefinition {
	if len(ops) == 0 {
		ops = []models.ExpressionFunction{models.OpContainedIn, models.OpEqual}
	}
	return &models.CustomFilterDefinition{Key: key, SupportedExpressions: ops}
}

func column(f models.DataSourceField) models.DataExpression {
	return models.DataExpression{
		DisplayName:               f.FriendlyName,
		ExpressionAsQueryLanguage: f.DataSourceFieldName,
		DataSourceField:           &f,
	}
}

func thisMonth(field models.DataSourceField, now time.Time) models.FilterField {
	start, end := filter.ThisMonth.Range(now)
	return models.FilterField{
		Field:              field,
		ExpressionFunction: models.OpBetween,
		Value:              models.Range{Start: start, End: end},
	}
}

func absences(now time.Time) models.ReportDefinition {
	date := models.DataSourceField{
		DataSourceFieldName:        "Date",
		FriendlyName:               "Date",
		FilterType:                 models.FilterTypeDate,
		DefaultExpressionFunction:  ptr(models.OpBetween),
		IsRequiredFilter:           true,
		DefaultColumnWidthInPixels: ptr(110),
	}
	employee := models.DataSourceField{
		DataSourceFieldName:  "EmployeeName",
		FriendlyName:         "Employee",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("Employee"),
		IsGroupable:          true,
	}
	location := models.DataSourceField{
		DataSourceFieldName:  "LocationName",
		FriendlyName:         "School",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("Location"),
		IsGroupable:          true,
	}
	positionType := models.DataSourceField{
		DataSourceFieldName:  "PositionTypeName",
		FriendlyName:         "Position Type",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("PositionType"),
		IsGroupable:          true,
	}
	reason := models.DataSourceField{
		DataSourceFieldName:  "AbsenceReasonName",
		FriendlyName:         "Reason",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("AbsenceReason"),
		IsGroupable:          true,
	}
	filled := models.DataSourceField{
		DataSourceFieldName: "IsFilled",
		FriendlyName:        "Filled",
		FilterType:          models.FilterTypeBoolean,
	}
	approval := models.DataSourceField{
		DataSourceFieldName: "ApprovalStatus",
		FriendlyName:        "Approval",
		FilterType:          models.FilterTypePredefinedSelection,
		PredefinedSelectOptions: []models.PredefinedOption{
			{DisplayText: "Pending", Value: "Pending"},
			{DisplayText: "Approved", Value: "Approved"},
			{DisplayText: "Denied", Value: "Denied"},
		},
		IsGroupable: true,
	}
	startTime := models.DataSourceField{
		DataSourceFieldName: "StartTime",
		FriendlyName:        "Start",
		FilterType:          models.FilterTypeTime,
	}
	hours := models.DataSourceField{
		DataSourceFieldName: "Hours",
		FriendlyName:        "Hours",
		FilterType:          models.FilterTypeDecimal,
	}
	days := models.DataSourceField{
		DataSourceFieldName: "Days",
		FriendlyName:        "Days",
		FilterType:          models.FilterTypeDecimal,
	}
	id := models.DataSourceField{
		DataSourceFieldName:  "AbsenceId",
		FriendlyName:         "Absence #",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("AbsenceId", models.OpContainedIn),
	}

	idColumn := column(id)
	idColumn.Hidden = true

	return models.ReportDefinition{
		Name: "Absences",
		From: "Absence",
		Fields: []models.DataSourceField{
			date, employee, location, positionType, reason,
			filled, approval, startTime, hours, days, id,
		},
		Select: []models.DataExpression{
			column(date), column(employee), column(location),
			column(reason), column(hours), column(days), idColumn,
		},
		Filters: []models.FilterField{thisMonth(date, now)},
		OrderBy: []models.OrderByField{{Expression: column(date), Direction: models.Asc}},
		AllowedGroupByFields: []models.DataExpression{
			column(location), column(reason), column(positionType),
			column(employee), column(approval),
		},
	}
}

func vacancies(now time.Time) models.ReportDefinition {
	date := models.DataSourceField{
		DataSourceFieldName:       "Date",
		FriendlyName:              "Date",
		FilterType:                models.FilterTypeDate,
		DefaultExpressionFunction: ptr(models.OpBetween),
		IsRequiredFilter:          true,
	}
	location := models.DataSourceField{
		DataSourceFieldName:  "LocationName",
		FriendlyName:         "School",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("Location"),
		IsGroupable:          true,
	}
	reason := models.DataSourceField{
		DataSourceFieldName:  "VacancyReasonName",
		FriendlyName:         "Reason",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("VacancyReason"),
		IsGroupable:          true,
	}
	substitute := models.DataSourceField{
		DataSourceFieldName:  "SubstituteName",
		FriendlyName:         "Substitute",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("Substitute"),
		IsGroupable:          true,
	}
	filled := models.DataSourceField{
		DataSourceFieldName: "IsFilled",
		FriendlyName:        "Filled",
		FilterType:          models.FilterTypeBoolean,
	}
	payCode := models.DataSourceField{
		DataSourceFieldName:  "PayCodeName",
		FriendlyName:         "Pay Code",
		FilterType:           models.FilterTypeCustom,
		FilterTypeDefinition: custom("PayCode"),
		IsGroupable:          true,
	}
	hours := models.DataSourceField{
		DataSourceFieldName: "Hours",
		FriendlyName:        "Hours",
		FilterType:          models.FilterTypeDecimal,
	}
	pay := models.DataSourceField{
		DataSourceFieldName: "PayAmount",
		FriendlyName:        "Pay",
		FilterType:          models.FilterTypeDecimal,
	}

	return models.ReportDefinition{
		Name: "Vacancies",
		From: "Vacancy",
		Fields: []models.DataSourceField{
			date, location, reason, substitute, filled, payCode, hours, pay,
		},
		Select: []models.DataExpression{
			column(date), column(location), column(substitute),
			column(reason), column(hours), column(pay),
		},
		Filters: []models.FilterField{thisMonth(date, now)},
		OrderBy: []models.OrderByField{{Expression: column(date), Direction: models.Asc}},
		AllowedGroupByFields: []models.DataExpression{
			column(location), column(reason), column(substitute), column(payCode),
		},
	}
}
