package subscription

import (
	"context"
	"time"
)

// Repository defines the interface for subscription data access
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByID(ctx context.Context, id int64) (*Subscription, error)
	GetByOrderID(ctx context.Context, orderID int64) (*Subscription, error)

	// GetLive returns the active or paused subscription of a user for a product
	GetLive(ctx context.Context, userID, productID int64) (*Subscription, error)

	List(ctx context.Context, filter Filter) ([]*Subscription, int64, error)
	Update(ctx context.Context, s *Subscription) error

	// ExpireDue moves active subscriptions whose period ended before now to expired
	ExpireDue(ctx context.Context, now time.Time) (int64, error)

	CountByStatus(ctx context.Context, status Status) (int64, error)
}
