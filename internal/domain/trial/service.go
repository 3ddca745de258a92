package trial

import (
	"context"
	"time"
)

// Service defines trial lifecycle management
type Service interface {
	Start(ctx context.Context, userID, productID int64) (*Trial, error)
	ListMine(ctx context.Context, userID int64) ([]*Trial, error)
	GetMine(ctx context.Context, userID, productID int64) (*Trial, error)
	CheckAccess(ctx context.Context, userID, productID int64) (*AccessStatus, error)

	ListAll(ctx context.Context, filter Filter) ([]*Trial, int64, error)
	Stats(ctx context.Context) (*Stats, error)

	// Extend pushes the expiry out by days; an expired trial is revived when the new expiry is in the future
	Extend(ctx context.Context, id int64, days int) (*Trial, error)
	Cancel(ctx context.Context, id int64) (*Trial, error)

	// Convert marks the active trial of a user for a product as converted; no trial is not an error
	Convert(ctx context.Context, userID, productID int64) error

	ExpireDue(ctx context.Context, now time.Time) (int, error)
	SendReminders(ctx context.Context, now time.Time) (int, error)
}
