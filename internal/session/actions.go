package session

import "github.com/rebeliceyang/lazyreport/internal/models"

// Action is a named change to a session. The set is closed.
type Action interface {
	isAction()
}

// Effect is the side effect a reduction asks the caller to perform
type Effect struct {
	// Refresh asks for the report to be fetched again with the new query
	Refresh bool
}

// Position says where AddColumns inserts
type Position int

const (
	Tail Position = iota
	Head
	Before
	After
)

// AddOptionalFilter drafts a filter on the first unused optional field
type AddOptionalFilter struct{}

// RemoveOptionalFilter drops a drafted optional filter
type RemoveOptionalFilter struct {
	Index int
}

// ChangeFilterField points a drafted optional filter at another field
type ChangeFilterField struct {
	Index     int
	FieldName string
}

// ChangeFilterOperator sets the operator of a drafted filter
type ChangeFilterOperator struct {
	Required bool
	Index    int
	Op       models.ExpressionFunction
}

// ChangeFilterValue sets the value of a drafted filter. A nil value unsets it.
type ChangeFilterValue struct {
	Required bool
	Index    int
	Value    any
}

// ApplyFilters commits one drafted filter collection
type ApplyFilters struct {
	Required bool
}

// SetFilters replaces one filter collection outright
type SetFilters struct {
	Filters  []models.FilterField
	Required bool
	Refresh  bool
}

// DiscardDrafts drops every staged edit
type DiscardDrafts struct{}

// AddOrderBy drafts a sort on the first column not already sorted on
type AddOrderBy struct{}

// RemoveOrderBy drops a drafted sort key
type RemoveOrderBy struct {
	Index int
}

// ChangeOrderBy points a drafted sort key at a column and direction
type ChangeOrderBy struct {
	Index     int
	Key       string
	Direction models.Direction
}

// MoveOrderBy changes the priority of a drafted sort key
type MoveOrderBy struct {
	From int
	To   int
}

// ApplyOrderBy commits the drafted sort keys
type ApplyOrderBy struct{}

// SetOrderBy replaces the sort keys outright
type SetOrderBy struct {
	OrderBy []models.OrderByField
}

// AddColumns inserts columns relative to Index for Before and After
type AddColumns struct {
	Expressions []models.DataExpression
	Position    Position
	Index       int
}

// RemoveColumn drops a column and any sort on it
type RemoveColumn struct {
	Index int
}

// MoveColumn reorders a column
type MoveColumn struct {
	From int
	To   int
}

// SetColumns replaces the select list
type SetColumns struct {
	Columns []models.DataExpression
}

// SetSubtotals replaces the grouping levels
type SetSubtotals struct {
	SubtotalBy []models.SubtotalField
}

func (AddOptionalFilter) isAction()    {}
func (RemoveOptionalFilter) isAction() {}
func (ChangeFilterField) isAction()    {}
func (ChangeFilterOperator) isAction() {}
func (ChangeFilterValue) isAction()    {}
func (ApplyFilters) isAction()         {}
func (SetFilters) isAction()           {}
func (DiscardDrafts) isAction()        {}
func (AddOrderBy) isAction()           {}
func (RemoveOrderBy) isAction()        {}
func (ChangeOrderBy) isAction()        {}
func (MoveOrderBy) isAction()          {}
func (ApplyOrderBy) isAction()         {}
func (SetOrderBy) isAction()           {}
func (AddColumns) isAction()           {}
func (RemoveColumn) isAction()         {}
func (MoveColumn) isAction()           {}
func (SetColumns) isAction()           {}
func (SetSubtotals) isAction()         {}
