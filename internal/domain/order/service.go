package order

import "context"

// Checkout is the result of starting a payment
type Checkout struct {
	Order       *Order  `json:"order"`
	CheckoutURL *string `json:"checkoutUrl,omitempty"`
}

// Service defines order placement and payment confirmation
type Service interface {
	// Create places a pending order and starts the gateway checkout
	Create(ctx context.Context, userID, productID int64, method PaymentMethod) (*Checkout, error)

	// Get returns an order; non-admin callers only see their own
	Get(ctx context.Context, actorID int64, isAdmin bool, id int64) (*Order, error)

	List(ctx context.Context, filter Filter) ([]*Order, int64, error)

	// Confirm marks a pending order paid and grants the product
	Confirm(ctx context.Context, id int64, reference string) (*Order, error)

	// Cancel cancels a pending order; non-admin callers only their own
	Cancel(ctx context.Context, actorID int64, isAdmin bool, id int64) (*Order, error)

	// Refund marks a paid order refunded and cancels any linked subscription
	Refund(ctx context.Context, id int64) (*Order, error)

	Stats(ctx context.Context) (*Stats, error)

	// HandleStripeWebhook verifies and applies a Stripe event
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}
