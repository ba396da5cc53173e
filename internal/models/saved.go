package models

import "time"

// SavedQuery is the part of a report session that can be restored later
type SavedQuery struct {
	RequiredFilters []FilterField    `json:"requiredFilters,omitempty" yaml:"required_filters,omitempty"`
	OptionalFilters []FilterField    `json:"optionalFilters,omitempty" yaml:"optional_filters,omitempty"`
	Columns         []DataExpression `json:"columns" yaml:"columns"`
	OrderBy         []OrderByField   `json:"orderBy,omitempty" yaml:"order_by,omitempty"`
	SubtotalBy      []SubtotalField  `json:"subtotalBy,omitempty" yaml:"subtotal_by,omitempty"`
}

// SavedReport is a named query a user keeps for reuse
type SavedReport struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Report      string     `json:"report" yaml:"report"`
	QueryText   string     `json:"queryText" yaml:"query_text"`
	Query       SavedQuery `json:"query" yaml:"query"`
	Tags        []string   `json:"tags" yaml:"tags"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updated_at"`
	LastUsed    time.Time  `json:"lastUsed" yaml:"last_used"`
	UsageCount  int        `json:"usageCount" yaml:"usage_count"`
}
