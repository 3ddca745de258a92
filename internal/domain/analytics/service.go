package analytics

import (
	"context"
	"time"
)

// Service defines event tracking and reporting
type Service interface {
	Track(ctx context.Context, e *Event) error
	Stats(ctx context.Context, from, to time.Time) (*Stats, error)
	Overview(ctx context.Context) (*Overview, error)
}
