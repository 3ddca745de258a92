package services

import (
	"context"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// SubscriptionService implements subscription.Service
type SubscriptionService struct {
	repo      subscription.Repository
	products  product.Repository
	publisher events.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(repo subscription.Repository, products product.Repository, pub events.Publisher, log *logger.Logger) subscription.Service {
	return &SubscriptionService{
		repo:      repo,
		products:  products,
		publisher: pub,
		logger:    log,
		now:       time.Now,
	}
}

// List lists subscriptions with derived days remaining
func (s *SubscriptionService) List(ctx context.Context, filter subscription.Filter) ([]*subscription.Subscription, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, errors.BadRequest("Invalid subscription status")
	}
	subs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for _, sub := range subs {
		sub.ComputeDaysRemaining(now)
	}
	return subs, total, nil
}

// Get retrieves a subscription
func (s *SubscriptionService) Get(ctx context.Context, id int64) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.ComputeDaysRemaining(s.now())
	return sub, nil
}

// Create starts a subscription for a recurring product
func (s *SubscriptionService) Create(ctx context.Context, userID, productID int64, interval string, orderID *int64) (*subscription.Subscription, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsRecurring() {
		return nil, errors.BadRequest("Product is not sold as a subscription")
	}

	if interval == "" {
		interval = p.BillingInterval
	}
	if interval != subscription.IntervalMonth && interval != subscription.IntervalYear {
		return nil, errors.BadRequest("Interval must be month or year")
	}

	if _, err := s.repo.GetLive(ctx, userID, productID); err == nil {
		return nil, errors.Conflict("User already has an active subscription to this product")
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	sub := &subscription.Subscription{
		UserID:             userID,
		ProductID:          productID,
		OrderID:            orderID,
		Status:             subscription.StatusActive,
		Interval:           interval,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   subscription.PeriodEnd(now, interval),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	sub.ProductName = p.Name
	sub.ComputeDaysRemaining(now)

	metrics.RecordSubscriptionEvent("created", 1)
	s.logger.WithFields(map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         userID,
		"product_id":      productID,
	}).Info("Subscription created")
	return sub, nil
}

// Cancel cancels an active or paused subscription
func (s *SubscriptionService) Cancel(ctx context.Context, actorID int64, isAdmin bool, id int64) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && sub.UserID != actorID {
		return nil, errors.NotFound("Subscription")
	}
	return s.cancel(ctx, sub)
}

func (s *SubscriptionService) cancel(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	if !subscription.CanTransition(sub.Status, subscription.StatusCancelled) {
		return nil, errors.InvalidTransition("subscription", string(sub.Status), "cancel")
	}

	now := s.now()
	sub.Status = subscription.StatusCancelled
	sub.CancelledAt = &now
	sub.PausedAt = nil
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	sub.ComputeDaysRemaining(now)

	metrics.RecordSubscriptionEvent("cancelled", 1)
	if err := s.publisher.Publish(ctx, events.SubscriptionCancelled, map[string]interface{}{
		"subscriptionId": sub.ID,
		"userId":         sub.UserID,
		"productId":      sub.ProductID,
	}); err != nil {
		s.logger.WarnWithErr(err, "Failed to publish subscription.cancelled")
	}
	return sub, nil
}

// Pause pauses an active subscription
func (s *SubscriptionService) Pause(ctx context.Context, id int64) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !subscription.CanTransition(sub.Status, subscription.StatusPaused) {
		return nil, errors.InvalidTransition("subscription", string(sub.Status), "pause")
	}

	now := s.now()
	sub.Status = subscription.StatusPaused
	sub.PausedAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	sub.ComputeDaysRemaining(now)

	metrics.RecordSubscriptionEvent("paused", 1)
	return sub, nil
}

// Resume reactivates a paused subscription and extends the period by the time spent paused
func (s *SubscriptionService) Resume(ctx context.Context, id int64) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != subscription.StatusPaused {
		return nil, errors.InvalidTransition("subscription", string(sub.Status), "resume")
	}

	now := s.now()
	if sub.PausedAt != nil {
		if paused := now.Sub(*sub.PausedAt); paused > 0 {
			sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.Add(paused)
		}
	}
	sub.Status = subscription.StatusActive
	sub.PausedAt = nil
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	sub.ComputeDaysRemaining(now)

	metrics.RecordSubscriptionEvent("resumed", 1)
	return sub, nil
}

// CancelForOrder cancels the live subscription created by an order
func (s *SubscriptionService) CancelForOrder(ctx context.Context, orderID int64) error {
	sub, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !sub.Status.IsLive() {
		return nil
	}
	_, err = s.cancel(ctx, sub)
	return err
}

// ExpireDue expires active subscriptions whose period has ended
func (s *SubscriptionService) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.RecordSubscriptionEvent("expired", int(n))
		s.logger.WithFields(map[string]interface{}{"count": n}).Info("Subscriptions expired")
	}
	return n, nil
}
