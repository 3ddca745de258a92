package access

import "context"

// Reasons access was granted
const (
	ReasonAdmin        = "admin"
	ReasonPurchase     = "purchase"
	ReasonSubscription = "subscription"
	ReasonTrial        = "trial"
	ReasonNone         = "none"
)

// Grant is the outcome of an access check
type Grant struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Checker decides whether a user may use a product
type Checker interface {
	// HasAccess is true for admins, paid orders, active subscriptions and live trials
	HasAccess(ctx context.Context, userID, productID int64) (Grant, error)
}
