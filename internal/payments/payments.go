package payments

import (
	"context"
	"errors"
)

// CheckoutRequest describes what the customer is paying for
type CheckoutRequest struct {
	OrderID       int64
	ProductName   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

// Checkout is a hosted payment page the customer is redirected to
type Checkout struct {
	SessionID string
	URL       string
}

// Gateway starts payments for one payment method
type Gateway interface {
	Name() string

	// CreateCheckout returns nil when the method is confirmed out of band
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
}

// Webhook event kinds understood by the order service
const (
	EventCheckoutCompleted = "checkout.completed"
	EventIgnored           = "ignored"
)

// WebhookEvent is a verified, gateway-neutral payment notification
type WebhookEvent struct {
	Kind      string
	OrderID   int64
	Reference string
	Paid      bool
}

// WebhookVerifier authenticates and decodes gateway callbacks
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// ErrInvalidSignature is returned for webhooks that fail verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrNotConfigured is returned when a gateway has no credentials
var ErrNotConfigured = errors.New("payment gateway not configured")

// Manual is a gateway whose payments are confirmed by an administrator
type Manual struct {
	name string
}

// NewManual creates a manual gateway such as paypal or crypto
func NewManual(name string) *Manual {
	return &Manual{name: name}
}

// Name returns the payment method name
func (m *Manual) Name() string { return m.name }

// CreateCheckout returns no hosted page; the order stays pending
func (m *Manual) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	return nil, nil
}
