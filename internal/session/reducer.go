package session

import (
	"slices"

	"github.com/rebeliceyang/lazyreport/internal/filter"
	"github.com/rebeliceyang/lazyreport/internal/models"
)

// Reduce applies an action and returns the new state with the effect it asks
// for. The input state is not modified. Actions that refer to an index out of
// range, or would break a uniqueness rule, leave the state as it was.
func Reduce(s State, a Action) (State, Effect) {
	switch a := a.(type) {
	case AddOptionalFilter:
		field, ok := filter.FirstUnusedField(s.Definition.Fields, s.Draft.OptionalFilters)
		if !ok {
			return s, Effect{}
		}
		s.Draft.OptionalFilters = append(slices.Clone(s.Draft.OptionalFilters), models.FilterField{
			Field:              field,
			ExpressionFunction: models.OpEqual,
			Value:              filter.InitialValue(field),
		})
		return s, Effect{}

	case RemoveOptionalFilter:
		if !inRange(s.Draft.OptionalFilters, a.Index) {
			return s, Effect{}
		}
		s.Draft.OptionalFilters = slices.Delete(slices.Clone(s.Draft.OptionalFilters), a.Index, a.Index+1)
		return s, Effect{}

	case ChangeFilterField:
		if !inRange(s.Draft.OptionalFilters, a.Index) {
			return s, Effect{}
		}
		field, ok := s.Definition.FieldByName(a.FieldName)
		if !ok || field.IsRequiredFilter {
			return s, Effect{}
		}
		filters := slices.Clone(s.Draft.OptionalFilters)
		filters[a.Index] = models.FilterField{
			Field:              field,
			ExpressionFunction: models.OpEqual,
			Value:              filter.InitialValue(field),
		}
		s.Draft.OptionalFilters = filters
		return s, Effect{}

	case ChangeFilterOperator:
		filters := s.Draft.OptionalFilters
		if a.Required {
			filters = s.Draft.RequiredFilters
		}
		if !inRange(filters, a.Index) || !filter.SupportsOperator(filters[a.Index].Field, a.Op) {
			return s, Effect{}
		}
		filters = slices.Clone(filters)
		f := filters[a.Index]
		if valueShape(f.ExpressionFunction) != valueShape(a.Op) {
			f.Value = filter.InitialValue(f.Field)
		}
		f.ExpressionFunction = a.Op
		filters[a.Index] = f
		s.setDraftFilters(a.Required, filters)
		return s, Effect{}

	case ChangeFilterValue:
		filters := s.Draft.OptionalFilters
		if a.Required {
			filters = s.Draft.RequiredFilters
		}
		if !inRange(filters, a.Index) {
			return s, Effect{}
		}
		filters = slices.Clone(filters)
		filters[a.Index].Value = a.Value
		s.setDraftFilters(a.Required, filters)
		return s, Effect{}

	case ApplyFilters:
		if a.Required {
			return s.commitFilters(true, s.Draft.RequiredFilters), Effect{Refresh: true}
		}
		return s.commitFilters(false, s.Draft.OptionalFilters), Effect{Refresh: true}

	case SetFilters:
		return s.commitFilters(a.Required, a.Filters), Effect{Refresh: a.Refresh}

	case DiscardDrafts:
		s.Draft = s.committedDraft()
		return s, Effect{}

	case AddOrderBy:
		for _, c := range s.Columns {
			if models.IndexOfOrderBy(s.Draft.OrderBy, c.Key()) >= 0 {
				continue
			}
			s.Draft.OrderBy = append(slices.Clone(s.Draft.OrderBy), models.OrderByField{Expression: c, Direction: models.Asc})
			return s, Effect{}
		}
		return s, Effect{}

	case RemoveOrderBy:
		if !inRange(s.Draft.OrderBy, a.Index) {
			return s, Effect{}
		}
		s.Draft.OrderBy = slices.Delete(slices.Clone(s.Draft.OrderBy), a.Index, a.Index+1)
		return s, Effect{}

	case ChangeOrderBy:
		if !inRange(s.Draft.OrderBy, a.Index) {
			return s, Effect{}
		}
		col := models.IndexOfExpression(s.Columns, a.Key)
		if col < 0 {
			return s, Effect{}
		}
		if existing := models.IndexOfOrderBy(s.Draft.OrderBy, a.Key); existing >= 0 && existing != a.Index {
			return s, Effect{}
		}
		orderBy := slices.Clone(s.Draft.OrderBy)
		orderBy[a.Index] = models.OrderByField{Expression: s.Columns[col], Direction: a.Direction}
		s.Draft.OrderBy = orderBy
		return s, Effect{}

	case MoveOrderBy:
		moved, ok := move(s.Draft.OrderBy, a.From, a.To)
		if !ok {
			return s, Effect{}
		}
		s.Draft.OrderBy = moved
		return s, Effect{}

	case ApplyOrderBy:
		s.OrderBy = uniqueOrderBy(s.Draft.OrderBy)
		s.Draft.OrderBy = slices.Clone(s.OrderBy)
		return s, Effect{Refresh: true}

	case SetOrderBy:
		s.OrderBy = uniqueOrderBy(a.OrderBy)
		s.Draft.OrderBy = slices.Clone(s.OrderBy)
		return s, Effect{Refresh: true}

	case AddColumns:
		return s.addColumns(a)

	case RemoveColumn:
		if !inRange(s.Columns, a.Index) {
			return s, Effect{}
		}
		key := s.Columns[a.Index].Key()
		s.Columns = slices.Delete(slices.Clone(s.Columns), a.Index, a.Index+1)
		s.OrderBy = withoutOrderBy(s.OrderBy, key)
		s.Draft.OrderBy = withoutOrderBy(s.Draft.OrderBy, key)
		return s, Effect{Refresh: true}

	case MoveColumn:
		moved, ok := move(s.Columns, a.From, a.To)
		if !ok {
			return s, Effect{}
		}
		s.Columns = moved
		return s, Effect{Refresh: true}

	case SetColumns:
		s.Columns = slices.Clone(a.Columns)
		return s, Effect{Refresh: true}

	case SetSubtotals:
		s.SubtotalBy = slices.Clone(a.SubtotalBy)
		return s, Effect{Refresh: true}
	}

	return s, Effect{}
}

func (s *State) setDraftFilters(required bool, filters []models.FilterField) {
	if required {
		s.Draft.RequiredFilters = filters
		return
	}
	s.Draft.OptionalFilters = filters
}

// commitFilters stores a filter collection. Optional filters without a value
// are dropped; required filters stay so they keep being shown.
func (s State) commitFilters(required bool, filters []models.FilterField) State {
	if required {
		s.RequiredFilters = slices.Clone(filters)
		s.Draft.RequiredFilters = slices.Clone(filters)
		return s
	}
	s.OptionalFilters = filter.SetOnly(filters)
	s.Draft.OptionalFilters = slices.Clone(s.OptionalFilters)
	return s
}

func (s State) addColumns(a AddColumns) (State, Effect) {
	at := len(s.Columns)
	switch a.Position {
	case Head:
		at = 0
	case Before:
		if !inRange(s.Columns, a.Index) {
			return s, Effect{}
		}
		at = a.Index
	case After:
		if !inRange(s.Columns, a.Index) {
			return s, Effect{}
		}
		at = a.Index + 1
	}

	added := make([]models.DataExpression, 0, len(a.Expressions))
	for _, e := range a.Expressions {
		if models.IndexOfExpression(s.Columns, e.Key()) >= 0 || models.IndexOfExpression(added, e.Key()) >= 0 {
			continue
		}
		added = append(added, e)
	}
	if len(added) == 0 {
		return s, Effect{}
	}

	s.Columns = slices.Insert(slices.Clone(s.Columns), at, added...)
	return s, Effect{Refresh: true}
}

// valueShape groups operators by the kind of value they take
func valueShape(op models.ExpressionFunction) int {
	switch op {
	case models.OpBetween:
		return 1
	case models.OpContainedIn:
		return 2
	default:
		return 0
	}
}

func withoutOrderBy(orderBy []models.OrderByField, key string) []models.OrderByField {
	return slices.DeleteFunc(slices.Clone(orderBy), func(o models.OrderByField) bool {
		return o.Expression.Key() == key
	})
}

func inRange[T any](s []T, i int) bool {
	return i >= 0 && i < len(s)
}

// move takes the element at from out and reinserts it at to
func move[T any](s []T, from, to int) ([]T, bool) {
	if !inRange(s, from) || !inRange(s, to) || from == to {
		return s, false
	}
	out := slices.Clone(s)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, item)
	return out, true
}
