package analytics

import (
	"context"
	"time"
)

// Repository defines the interface for analytics data access
type Repository interface {
	Create(ctx context.Context, e *Event) error

	// Stats aggregates events created in [from, to)
	Stats(ctx context.Context, from, to time.Time, topN int) (*Stats, error)
}
