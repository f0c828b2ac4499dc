// Package store keeps a local history of submitted fetches.
package store

import (
	"context"
	"time"

	"github.com/sells-group/webfetch/internal/model"
)

// FetchFilter specifies criteria for listing fetches.
type FetchFilter struct {
	Status  model.FetchStatus `json:"status,omitempty"`
	Service model.Service     `json:"service,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Offset  int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for fetch history.
type Store interface {
	RecordFetch(ctx context.Context, rec model.FetchRecord) error
	GetFetch(ctx context.Context, id string) (*model.FetchRecord, error)
	ListFetches(ctx context.Context, filter FetchFilter) ([]model.FetchRecord, error)
	// DeleteFetchesBefore removes records created before t and returns how
	// many were removed.
	DeleteFetchesBefore(ctx context.Context, t time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
