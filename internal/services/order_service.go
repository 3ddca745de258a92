package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/payments"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// OrderService implements order.Service
type OrderService struct {
	repo          order.Repository
	products      product.Repository
	users         user.Repository
	subscriptions subscription.Service
	trials        trial.Service
	gateways      map[order.PaymentMethod]payments.Gateway
	webhooks      payments.WebhookVerifier
	mailer        mailer.Mailer
	publisher     events.Publisher
	logger        *logger.Logger
	now           func() time.Time
}

// OrderServiceDeps groups the collaborators of the order service
type OrderServiceDeps struct {
	Orders        order.Repository
	Products      product.Repository
	Users         user.Repository
	Subscriptions subscription.Service
	Trials        trial.Service
	Gateways      []payments.Gateway
	Webhooks      payments.WebhookVerifier
	Mailer        mailer.Mailer
	Publisher     events.Publisher
}

// NewOrderService creates a new order service
func NewOrderService(deps OrderServiceDeps, log *logger.Logger) order.Service {
	gateways := make(map[order.PaymentMethod]payments.Gateway, len(deps.Gateways))
	for _, g := range deps.Gateways {
		gateways[order.PaymentMethod(g.Name())] = g
	}
	return &OrderService{
		repo:          deps.Orders,
		products:      deps.Products,
		users:         deps.Users,
		subscriptions: deps.Subscriptions,
		trials:        deps.Trials,
		gateways:      gateways,
		webhooks:      deps.Webhooks,
		mailer:        deps.Mailer,
		publisher:     deps.Publisher,
		logger:        log,
		now:           time.Now,
	}
}

// Create places a pending order and starts the gateway checkout
func (s *OrderService) Create(ctx context.Context, userID, productID int64, method order.PaymentMethod) (*order.Checkout, error) {
	if !method.IsValid() {
		return nil, errors.BadRequest("Invalid payment method")
	}
	gateway, ok := s.gateways[method]
	if !ok {
		return nil, errors.BadRequest("Payment method is not available")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, errors.BadRequest("Product is not available")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !p.IsRecurring() {
		owned, err := s.repo.HasPaid(ctx, userID, productID)
		if err != nil {
			return nil, err
		}
		if owned {
			return nil, errors.Conflict("You already own this product")
		}
	}

	o := &order.Order{
		UserID:        userID,
		ProductID:     productID,
		ProductName:   p.Name,
		UserEmail:     u.Email,
		AmountCents:   p.PriceCents,
		Currency:      p.Currency,
		PaymentMethod: method,
		Status:        order.StatusPending,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	metrics.RecordOrder(string(order.StatusPending), string(method))

	checkout, err := gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		OrderID:       o.ID,
		ProductName:   p.Name,
		AmountCents:   p.PriceCents,
		Currency:      p.Currency,
		CustomerEmail: u.Email,
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"order_id": o.ID,
			"gateway":  gateway.Name(),
		}).ErrorWithErr(err, "Checkout creation failed")
		s.abandon(ctx, o)
		if stderrors.Is(err, payments.ErrNotConfigured) {
			return nil, errors.ServiceUnavailable("Payment method is not configured")
		}
		return nil, errors.PaymentError(gateway.Name(), err)
	}

	result := &order.Checkout{Order: o}
	if checkout != nil {
		o.CheckoutURL = &checkout.URL
		o.PaymentReference = &checkout.SessionID
		if err := s.repo.Update(ctx, o); err != nil {
			return nil, err
		}
		result.CheckoutURL = o.CheckoutURL
	}

	s.logger.WithFields(map[string]interface{}{
		"order_id":       o.ID,
		"user_id":        userID,
		"product_id":     productID,
		"payment_method": method,
	}).Info("Order created")
	return result, nil
}

// abandon cancels an order whose checkout could not be started
func (s *OrderService) abandon(ctx context.Context, o *order.Order) {
	now := s.now()
	o.Status = order.StatusCancelled
	o.CancelledAt = &now
	if err := s.repo.Update(ctx, o); err != nil {
		s.logger.WarnWithErr(err, "Failed to cancel abandoned order")
	}
}

// Get returns an order; other users' orders read as not found
func (s *OrderService) Get(ctx context.Context, actorID int64, isAdmin bool, id int64) (*order.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != actorID {
		return nil, errors.NotFound("Order")
	}
	return o, nil
}

// List lists orders
func (s *OrderService) List(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, errors.BadRequest("Invalid order status")
	}
	return s.repo.List(ctx, filter)
}

// Confirm marks a pending order paid and grants the product
func (s *OrderService) Confirm(ctx context.Context, id int64, reference string) (*order.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.CanTransition(o.Status, order.StatusPaid) {
		return nil, errors.InvalidTransition("order", string(o.Status), "confirm")
	}

	from := o.Status
	now := s.now()
	o.Status = order.StatusPaid
	o.PaidAt = &now
	if reference != "" {
		o.PaymentReference = &reference
	}
	if err := s.transition(ctx, o, from, "confirm"); err != nil {
		return nil, err
	}

	metrics.RecordOrder(string(order.StatusPaid), string(o.PaymentMethod))
	metrics.RecordRevenue(o.Currency, o.AmountCents)

	s.fulfil(ctx, o)

	s.logger.WithFields(map[string]interface{}{
		"order_id": o.ID,
		"user_id":  o.UserID,
		"amount":   o.AmountCents,
		"currency": o.Currency,
	}).Info("Order paid")
	return o, nil
}

// transition persists a status change; losing a race to another writer is an invalid transition
func (s *OrderService) transition(ctx context.Context, o *order.Order, from order.Status, action string) error {
	ok, err := s.repo.Transition(ctx, o, from)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	current, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	return errors.InvalidTransition("order", string(current.Status), action)
}

// fulfil runs the side effects of a paid order; failures are logged, the payment stands
func (s *OrderService) fulfil(ctx context.Context, o *order.Order) {
	log := s.logger.With("order_id", o.ID)

	if err := s.trials.Convert(ctx, o.UserID, o.ProductID); err != nil {
		log.WarnWithErr(err, "Failed to convert trial")
	}

	p, err := s.products.GetByID(ctx, o.ProductID)
	if err != nil {
		log.WarnWithErr(err, "Failed to load product for fulfilment")
	} else if p.Type == product.TypeSubscription {
		orderID := o.ID
		if _, err := s.subscriptions.Create(ctx, o.UserID, o.ProductID, "", &orderID); err != nil {
			log.WarnWithErr(err, "Failed to create subscription for order")
		}
	}

	if err := s.publisher.Publish(ctx, events.OrderPaid, map[string]interface{}{
		"orderId":     o.ID,
		"userId":      o.UserID,
		"productId":   o.ProductID,
		"amountCents": o.AmountCents,
		"currency":    o.Currency,
	}); err != nil {
		log.WarnWithErr(err, "Failed to publish order.paid")
	}

	if o.UserEmail != "" {
		msg := mailer.OrderConfirmation(o.UserEmail, o.ProductName, o.ID, o.AmountCents, o.Currency)
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.WarnWithErr(err, "Failed to send order confirmation")
		}
	}
}

// Cancel cancels a pending order
func (s *OrderService) Cancel(ctx context.Context, actorID int64, isAdmin bool, id int64) (*order.Order, error) {
	o, err := s.Get(ctx, actorID, isAdmin, id)
	if err != nil {
		return nil, err
	}
	if !order.CanTransition(o.Status, order.StatusCancelled) {
		return nil, errors.InvalidTransition("order", string(o.Status), "cancel")
	}

	from := o.Status
	now := s.now()
	o.Status = order.StatusCancelled
	o.CancelledAt = &now
	if err := s.transition(ctx, o, from, "cancel"); err != nil {
		return nil, err
	}

	metrics.RecordOrder(string(order.StatusCancelled), string(o.PaymentMethod))
	if err := s.publisher.Publish(ctx, events.OrderCancelled, map[string]interface{}{
		"orderId": o.ID,
		"userId":  o.UserID,
	}); err != nil {
		s.logger.WarnWithErr(err, "Failed to publish order.cancelled")
	}
	return o, nil
}

// Refund marks a paid order refunded and cancels its subscription
func (s *OrderService) Refund(ctx context.Context, id int64) (*order.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.CanTransition(o.Status, order.StatusRefunded) {
		return nil, errors.InvalidTransition("order", string(o.Status), "refund")
	}

	// the subscription goes first so a failure leaves the order paid and retryable
	if err := s.subscriptions.CancelForOrder(ctx, o.ID); err != nil {
		return nil, err
	}

	o.Status = order.StatusRefunded
	if err := s.transition(ctx, o, order.StatusPaid, "refund"); err != nil {
		return nil, err
	}

	metrics.RecordOrder(string(order.StatusRefunded), string(o.PaymentMethod))
	if err := s.publisher.Publish(ctx, events.OrderRefunded, map[string]interface{}{
		"orderId": o.ID,
		"userId":  o.UserID,
	}); err != nil {
		s.logger.WarnWithErr(err, "Failed to publish order.refunded")
	}

	s.logger.WithFields(map[string]interface{}{"order_id": o.ID}).Info("Order refunded")
	return o, nil
}

// Stats aggregates orders and revenue over the last 30 days
func (s *OrderService) Stats(ctx context.Context) (*order.Stats, error) {
	return s.repo.Stats(ctx, s.now().AddDate(0, 0, -30))
}

// HandleStripeWebhook verifies and applies a Stripe event
func (s *OrderService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhooks == nil {
		return errors.ServiceUnavailable("Stripe webhooks are not configured")
	}

	event, err := s.webhooks.ParseWebhook(payload, signature)
	if err != nil {
		switch {
		case stderrors.Is(err, payments.ErrInvalidSignature):
			return errors.BadRequest("Invalid webhook signature")
		case stderrors.Is(err, payments.ErrNotConfigured):
			return errors.ServiceUnavailable("Stripe webhooks are not configured")
		}
		return errors.BadRequest("Invalid webhook payload")
	}

	if event.Kind != payments.EventCheckoutCompleted || !event.Paid {
		return nil
	}

	o, err := s.repo.GetByID(ctx, event.OrderID)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.With("order_id", event.OrderID).Warn("Stripe webhook for unknown order")
			return nil
		}
		return err
	}
	if o.Status == order.StatusPaid {
		return nil
	}

	_, err = s.Confirm(ctx, o.ID, event.Reference)
	if err == nil || !errors.IsCode(err, errors.ErrCodeInvalidTransition) {
		return err
	}

	// acknowledge so Stripe stops retrying; a concurrent confirm may have won
	current, getErr := s.repo.GetByID(ctx, o.ID)
	if getErr != nil {
		return getErr
	}
	if current.Status == order.StatusPaid {
		return nil
	}
	s.flagForRefund(ctx, current, event.Reference)
	return nil
}

// flagForRefund reports money captured for an order that can no longer be paid
func (s *OrderService) flagForRefund(ctx context.Context, o *order.Order, reference string) {
	s.logger.WithFields(map[string]interface{}{
		"order_id":  o.ID,
		"status":    o.Status,
		"reference": reference,
		"amount":    o.AmountCents,
		"currency":  o.Currency,
	}).Error("Payment captured for an order that is not pending, refund required")

	if err := s.publisher.Publish(ctx, events.OrderRefundRequired, map[string]interface{}{
		"orderId":          o.ID,
		"userId":           o.UserID,
		"status":           o.Status,
		"paymentReference": reference,
		"amountCents":      o.AmountCents,
		"currency":         o.Currency,
	}); err != nil {
		s.logger.WarnWithErr(err, "Failed to publish order.refund_required")
	}
}
