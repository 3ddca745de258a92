package order

import (
	"context"
	"time"
)

// Repository defines the interface for order data access
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, int64, error)

	// Update persists status, payment reference, checkout URL and timestamps
	Update(ctx context.Context, o *Order) error

	// Transition persists o only while the stored status is still from.
	// It reports false when another writer moved the order first.
	Transition(ctx context.Context, o *Order, from Status) (bool, error)

	// HasPaid reports whether the user has a paid order for the product
	HasPaid(ctx context.Context, userID, productID int64) (bool, error)

	// Stats aggregates orders; revenue after since feeds RevenueLast30Days
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}
