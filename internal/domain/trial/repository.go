package trial

import (
	"context"
	"time"
)

// Repository defines the interface for trial data access
type Repository interface {
	Create(ctx context.Context, t *Trial) error
	GetByID(ctx context.Context, id int64) (*Trial, error)

	// GetByUserProduct returns the single trial a user ever had for a product
	GetByUserProduct(ctx context.Context, userID, productID int64) (*Trial, error)

	List(ctx context.Context, filter Filter) ([]*Trial, int64, error)
	Update(ctx context.Context, t *Trial) error

	// ExpireDue marks active trials expiring at or before now as expired
	ExpireDue(ctx context.Context, now time.Time) ([]*Trial, error)

	// DueForReminder returns active trials expiring before cutoff that were not reminded yet
	DueForReminder(ctx context.Context, now, cutoff time.Time) ([]*Trial, error)

	CountByStatus(ctx context.Context, asOf time.Time) (map[Status]int64, error)
}
