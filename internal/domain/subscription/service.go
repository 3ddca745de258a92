package subscription

import (
	"context"
	"time"
)

// Service defines the subscription state machine
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Subscription, int64, error)
	Get(ctx context.Context, id int64) (*Subscription, error)

	// Create starts a subscription; interval defaults to the product's billing interval
	Create(ctx context.Context, userID, productID int64, interval string, orderID *int64) (*Subscription, error)

	// Cancel cancels an active or paused subscription; non-admin callers only their own
	Cancel(ctx context.Context, actorID int64, isAdmin bool, id int64) (*Subscription, error)

	Pause(ctx context.Context, id int64) (*Subscription, error)

	// Resume reactivates a paused subscription, extending its period by the paused time
	Resume(ctx context.Context, id int64) (*Subscription, error)

	// CancelForOrder cancels the subscription created by an order, if any
	CancelForOrder(ctx context.Context, orderID int64) error

	// ExpireDue expires subscriptions whose period has ended
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
