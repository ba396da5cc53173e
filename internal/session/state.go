// Package session owns the editable query of one report session. Every change
// goes through a named action applied by Reduce, which never touches its input.
package session

import (
	"slices"

	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
)

// State is the committed query model plus the drafts being edited in popovers
type State struct {
	Definition models.ReportDefinition

	RequiredFilters []models.FilterField
	OptionalFilters []models.FilterField
	OrderBy         []models.OrderByField
	Columns         []models.DataExpression
	SubtotalBy      []models.SubtotalField

	Draft Draft
}

// Draft holds staged edits that only reach the query once applied
type Draft struct {
	RequiredFilters []models.FilterField
	OptionalFilters []models.FilterField
	OrderBy         []models.OrderByField
}

// New starts a session from a report definition. Required fields without a
// filter in the definition get one with the field's default operator.
func New(def models.ReportDefinition) State {
	required, optional := filter.SplitFilters(def.Filters)

	byField := make(map[string]models.FilterField, len(required))
	for _, f := range required {
		byField[f.Field.DataSourceFieldName] = f
	}

	requiredFilters := filter.RequiredFilters(def.Fields, nil)
	for i, f := range requiredFilters {
		if declared, ok := byField[f.Field.DataSourceFieldName]; ok {
			requiredFilters[i] = declared
			delete(byField, f.Field.DataSourceFieldName)
		}
	}
	// required filters on fields the definition does not list
	for _, f := range required {
		if _, ok := byField[f.Field.DataSourceFieldName]; ok {
			requiredFilters = append(requiredFilters, f)
		}
	}

	s := State{
		Definition:      def,
		RequiredFilters: requiredFilters,
		OptionalFilters: filter.SetOnly(optional),
		OrderBy:         uniqueOrderBy(def.OrderBy),
		Columns:         slices.Clone(def.Select),
		SubtotalBy:      slices.Clone(def.SubtotalBy),
	}
	s.Draft = s.committedDraft()
	return s
}

func (s State) committedDraft() Draft {
	return Draft{
		RequiredFilters: slices.Clone(s.RequiredFilters),
		OptionalFilters: slices.Clone(s.OptionalFilters),
		OrderBy:         slices.Clone(s.OrderBy),
	}
}

// Grouped reports whether the report is subtotaled
func (s State) Grouped() bool {
	return len(s.SubtotalBy) > 0
}

// Filters returns the committed filters that carry a value, required first
func (s State) Filters() []models.FilterField {
	out := filter.SetOnly(s.RequiredFilters)
	return append(out, filter.SetOnly(s.OptionalFilters)...)
}

// QueryModel projects the committed state for serialization
func (s State) QueryModel() query.Model {
	return query.Model{
		From:       s.Definition.From,
		Filters:    s.Filters(),
		Select:     slices.Clone(s.Columns),
		OrderBy:    slices.Clone(s.OrderBy),
		SubtotalBy: slices.Clone(s.SubtotalBy),
	}
}

// QueryText is the live fetch query of the committed state
func (s State) QueryText() string {
	return query.Build(s.QueryModel())
}

// ExportText is the export query of the committed state
func (s State) ExportText() string {
	return query.Build(s.QueryModel(), query.WithExport())
}

func uniqueOrderBy(orderBy []models.OrderByField) []models.OrderByField {
	out := make([]models.OrderByField, 0, len(orderBy))
	seen := make(map[string]bool, len(orderBy))
	for _, o := range orderBy {
		key := o.Expression.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}

// Saved captures the committed query so it can be restored later
func (s State) Saved() models.SavedQuery {
	return models.SavedQuery{
		RequiredFilters: slices.Clone(s.RequiredFilters),
		OptionalFilters: slices.Clone(s.OptionalFilters),
		Columns:         slices.Clone(s.Columns),
		OrderBy:         slices.Clone(s.OrderBy),
		SubtotalBy:      slices.Clone(s.SubtotalBy),
	}
}

// Restore starts a session from a definition and replaces its committed
// query with a saved one. Saved required filters only replace filters on
// fields the session already requires.
func Restore(def models.ReportDefinition, q models.SavedQuery) State {
	s := New(def)

	required := slices.Clone(s.RequiredFilters)
	for _, saved := range q.RequiredFilters {
		for i, f := range required {
			if f.Field.DataSourceFieldName == saved.Field.DataSourceFieldName {
				required[i] = saved
			}
		}
	}
	s.RequiredFilters = required
	s.OptionalFilters = filter.SetOnly(q.OptionalFilters)
	if len(q.Columns) > 0 {
		s.Columns = slices.Clone(q.Columns)
	}
	s.OrderBy = uniqueOrderBy(q.OrderBy)
	s.SubtotalBy = slices.Clone(q.SubtotalBy)
	s.Draft = s.committedDraft()
	return s
}
