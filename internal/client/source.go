// Package client fetches report data from a report source and tracks which
// fetch is current so superseded responses can be dropped.
package client

import (
	"context"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
)

// Request is one report run
type Request struct {
	Report string
	OrgIDs []string
	Query  query.Model
}

// Source runs report queries
type Source interface {
	// GetReport returns the flat result set of the query
	GetReport(ctx context.Context, req Request) (*models.ReportData, error)
	// ExportReport returns the report rendered as CSV
	ExportReport(ctx context.Context, req Request, filename string) ([]byte, error)
}
