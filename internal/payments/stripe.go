package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/spartanofurioso/platform/internal/config"
)

// Stripe creates Checkout Sessions and verifies Stripe webhooks
type Stripe struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripe creates a Stripe gateway from payment settings
func NewStripe(cfg config.PaymentsConfig) *Stripe {
	s := &Stripe{
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
	if cfg.StripeSecretKey != "" {
		s.api = &client.API{}
		s.api.Init(cfg.StripeSecretKey, nil)
	}
	return s
}

// Name returns the payment method name
func (s *Stripe) Name() string { return "stripe" }

// CreateCheckout opens a one-off Checkout Session for the order
func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}

	orderID := strconv.FormatInt(req.OrderID, 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(expandOrderURL(s.successURL, orderID)),
		CancelURL:         stripe.String(expandOrderURL(s.cancelURL, orderID)),
		ClientReferenceID: stripe.String(orderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("order_id", orderID)
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

type checkoutSessionObject struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	PaymentStatus     string `json:"payment_status"`
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout completions
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if string(event.Type) != "checkout.session.completed" {
		return &WebhookEvent{Kind: EventIgnored}, nil
	}

	var sess checkoutSessionObject
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	orderID, err := strconv.ParseInt(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("checkout session %s has no order reference", sess.ID)
	}

	return &WebhookEvent{
		Kind:      EventCheckoutCompleted,
		OrderID:   orderID,
		Reference: sess.ID,
		Paid:      sess.PaymentStatus == "paid",
	}, nil
}

// expandOrderURL substitutes {ORDER_ID} in redirect URLs
func expandOrderURL(raw, orderID string) string {
	return strings.ReplaceAll(raw, "{ORDER_ID}", orderID)
}
