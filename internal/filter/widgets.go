package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/shopspring/decimal"
)

// DateLayout is the text form of a date filter value
const DateLayout = "2006-01-02"

// TimeLayout is the text form of a time filter value
const TimeLayout = "15:04"

// ErrNoWidget is returned by the widget standing in for an unknown custom key
var ErrNoWidget = errors.New("no filter widget registered")

// Kind identifies how a widget is rendered
type Kind string

const (
	KindCheckbox  Kind = "checkbox"
	KindNumeric   Kind = "numeric"
	KindDateRange Kind = "date-range"
	KindTime      Kind = "time"
	KindSelect    Kind = "select"
	KindIDList    Kind = "id-list"
	KindText      Kind = "text"
	KindNotFound  Kind = "not-found"
)

// Widget edits the value of one filter as text
type Widget interface {
	Kind() Kind
	// Parse converts text typed by the user into a filter value for op.
	// Empty input yields a nil value.
	Parse(input string, op models.ExpressionFunction) (any, error)
	// Format renders a filter value back to editable text
	Format(value any) string
}

// WidgetFactory builds the widget for one field
type WidgetFactory func(field models.DataSourceField) Widget

// Registry dispatches filters to widgets by filter type, and custom filters
// by their picker key
type Registry struct {
	custom map[string]WidgetFactory
	now    func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		custom: make(map[string]WidgetFactory),
		now:    time.Now,
	}
}

// DomainPickerKeys are the custom filter keys served by the default registry
var DomainPickerKeys = []string{
	"Location",
	"PositionType",
	"Employee",
	"Substitute",
	"AbsenceReason",
	"AbsenceReasonCategory",
	"VacancyReason",
	"Endorsement",
	"SchoolYear",
	"SourceOrganization",
	"PayCode",
	"AccountingCode",
	"AbsenceReasonTrackingType",
}

// TextKey is the custom key of free text filters
const TextKey = "Text"

// TextDefinition describes a free text filter
func TextDefinition() *models.CustomFilterDefinition {
	return &models.CustomFilterDefinition{
		Key: TextKey,
		SupportedExpressions: []models.ExpressionFunction{
			models.OpEqual, models.OpNotEqual,
			models.OpStartsWith, models.OpEndsWith, models.OpContains,
		},
	}
}

// DefaultRegistry registers every domain picker as an ID list, plus free text
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, key := range DomainPickerKeys {
		r.Register(key, func(field models.DataSourceField) Widget {
			return IDListWidget{Name: field.CustomKey()}
		})
	}
	r.Register(TextKey, func(models.DataSourceField) Widget {
		return TextWidget{}
	})
	return r
}

// Register binds a custom filter key to a widget factory, replacing any previous one
func (r *Registry) Register(key string, factory WidgetFactory) {
	r.custom[key] = factory
}

// SetClock overrides the clock used to resolve relative dates
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Keys returns the registered custom keys
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.custom))
	for k := range r.custom {
		keys = append(keys, k)
	}
	return keys
}

// For returns the widget editing the filter. Unknown custom keys get a
// NotFound widget rather than nil.
func (r *Registry) For(f models.FilterField) Widget {
	field := f.Field
	switch field.FilterType {
	case models.FilterTypeBoolean:
		return CheckboxWidget{}
	case models.FilterTypeNumber:
		return NumericWidget{}
	case models.FilterTypeDecimal:
		return NumericWidget{Decimal: true}
	case models.FilterTypeDate, models.FilterTypeDateTime:
		return DateRangeWidget{Now: r.now}
	case models.FilterTypeTime:
		return TimeWidget{}
	case models.FilterTypePredefinedSelection:
		return SelectWidget{Options: field.PredefinedSelectOptions}
	case models.FilterTypeCustom:
		if factory, ok := r.custom[field.CustomKey()]; ok {
			return factory(field)
		}
		return NotFoundWidget{Key: field.CustomKey()}
	}
	return NotFoundWidget{Key: string(field.FilterType)}
}

// CheckboxWidget edits boolean filters
type CheckboxWidget struct{}

func (CheckboxWidget) Kind() Kind { return KindCheckbox }

func (CheckboxWidget) Parse(input string, _ models.ExpressionFunction) (any, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "false", "no", "n", "0", "off":
		return false, nil
	case "true", "yes", "y", "1", "on", "x":
		return true, nil
	}
	return nil, errors.Errorf("%q is not yes or no", input)
}

func (CheckboxWidget) Format(value any) string {
	if b, ok := value.(bool); ok && b {
		return "yes"
	}
	return "no"
}

// NumericWidget edits Number and Decimal filters
type NumericWidget struct {
	Decimal bool
}

func (w NumericWidget) Kind() Kind { return KindNumeric }

func (w NumericWidget) Parse(input string, op models.ExpressionFunction) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if op == models.OpBetween {
		start, end, ok := splitRange(input)
		if !ok {
			return nil, errors.Errorf("%q is not a range, use a..b", input)
		}
		s, err := w.parseOne(start)
		if err != nil {
			return nil, err
		}
		e, err := w.parseOne(end)
		if err != nil {
			return nil, err
		}
		return models.Range{Start: s, End: e}, nil
	}
	return w.parseOne(input)
}

func (w NumericWidget) parseOne(s string) (any, error) {
	s = strings.TrimSpace(s)
	if w.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not a number", s)
		}
		return d, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errors.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

func (w NumericWidget) Format(value any) string {
	if r, ok := models.AsRange(value); ok {
		return formatScalar(r.Start) + ".." + formatScalar(r.End)
	}
	return formatScalar(value)
}

// DateRangeWidget edits Date and DateTime filters. Between accepts either a
// literal pair of days or a relative date name such as "last week".
type DateRangeWidget struct {
	Now func() time.Time
}

func (w DateRangeWidget) Kind() Kind { return KindDateRange }

func (w DateRangeWidget) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w DateRangeWidget) Parse(input string, op models.ExpressionFunction) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	now := w.now()

	if op != models.OpBetween {
		return parseDate(input, now.Location())
	}

	if rel, err := ParseRelativeDate(input); err == nil {
		start, end := rel.Range(now)
		return models.Range{Start: start, End: end}, nil
	}

	startText, endText, ok := splitRange(input)
	if !ok {
		d, err := parseDate(input, now.Location())
		if err != nil {
			return nil, err
		}
		return models.Range{Start: d, End: d}, nil
	}
	start, err := parseDate(startText, now.Location())
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endText, now.Location())
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.Errorf("range ends before it starts: %s", input)
	}
	return models.Range{Start: start, End: end}, nil
}

func (w DateRangeWidget) Format(value any) string {
	if r, ok := models.AsRange(value); ok {
		start, sok := r.Start.(time.Time)
		end, eok := r.End.(time.Time)
		if sok && eok {
			if rel, ok := RelativeFromRange(start, end, w.now()); ok {
				return rel.String()
			}
		}
		return formatScalar(r.Start) + ".." + formatScalar(r.End)
	}
	return formatScalar(value)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, errors.Errorf("%q is not a date, use YYYY-MM-DD", s)
	}
	return t, nil
}

// TimeWidget edits time of day filters, kept as HH:MM text
type TimeWidget struct{}

func (TimeWidget) Kind() Kind { return KindTime }

func (TimeWidget) Parse(input string, _ models.ExpressionFunction) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	t, err := time.Parse(TimeLayout, input)
	if err != nil {
		return nil, errors.Errorf("%q is not a time, use HH:MM", input)
	}
	return t.Format(TimeLayout), nil
}

func (TimeWidget) Format(value any) string {
	return formatScalar(value)
}

// SelectWidget picks one or several of a field's predefined options by display text
type SelectWidget struct {
	Options []models.PredefinedOption
}

func (w SelectWidget) Kind() Kind { return KindSelect }

func (w SelectWidget) Parse(input string, op models.ExpressionFunction) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if op == models.OpContainedIn {
		values := make([]any, 0)
		for _, part := range splitList(input) {
			v, err := w.lookup(part)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	}
	return w.lookup(input)
}

func (w SelectWidget) lookup(text string) (any, error) {
	for _, o := range w.Options {
		if strings.EqualFold(o.DisplayText, text) {
			return o.Value, nil
		}
	}
	return nil, errors.Errorf("%q is not one of the options", text)
}

func (w SelectWidget) Format(value any) string {
	if values, ok := value.([]any); ok {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = w.display(v)
		}
		return strings.Join(parts, ", ")
	}
	return w.display(value)
}

func (w SelectWidget) display(v any) string {
	for _, o := range w.Options {
		if fmt.Sprint(o.Value) == fmt.Sprint(v) {
			return o.DisplayText
		}
	}
	return formatScalar(v)
}

// IDListWidget edits a domain picker filter as a comma separated list of ids
type IDListWidget struct {
	Name string
}

func (w IDListWidget) Kind() Kind { return KindIDList }

func (w IDListWidget) Parse(input string, op models.ExpressionFunction) (any, error) {
	parts := splitList(input)
	if len(parts) == 0 {
		return nil, nil
	}
	ids := make([]any, len(parts))
	for i, p := range parts {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids[i] = n
			continue
		}
		ids[i] = p
	}
	if op == models.OpContainedIn {
		return ids, nil
	}
	if len(ids) > 1 {
		return nil, errors.Errorf("%s takes a single id with %s", w.Name, op)
	}
	return ids[0], nil
}

func (w IDListWidget) Format(value any) string {
	if values, ok := value.([]any); ok {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = formatScalar(v)
		}
		return strings.Join(parts, ", ")
	}
	return formatScalar(value)
}

// TextWidget edits free text filters
type TextWidget struct{}

func (TextWidget) Kind() Kind { return KindText }

func (TextWidget) Parse(input string, _ models.ExpressionFunction) (any, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	return input, nil
}

func (TextWidget) Format(value any) string {
	return formatScalar(value)
}

// NotFoundWidget stands in for a custom key nothing is registered for
type NotFoundWidget struct {
	Key string
}

func (NotFoundWidget) Kind() Kind { return KindNotFound }

func (w NotFoundWidget) Parse(string, models.ExpressionFunction) (any, error) {
	return nil, errors.Wrapf(ErrNoWidget, "filter key %q", w.Key)
}

func (NotFoundWidget) Format(any) string { return "" }

func splitRange(s string) (string, string, bool) {
	for _, sep := range []string{"..", " to ", " - "} {
		if start, end, ok := strings.Cut(s, sep); ok {
			return strings.TrimSpace(start), strings.TrimSpace(end), true
		}
	}
	return "", "", false
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(DateLayout)
	case decimal.Decimal:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
