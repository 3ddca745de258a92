package services

import (
	"context"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/access"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// AccessService implements access.Checker
type AccessService struct {
	users         user.Repository
	orders        order.Repository
	subscriptions subscription.Repository
	trials        trial.Repository
	now           func() time.Time
}

// NewAccessService creates a new access checker
func NewAccessService(users user.Repository, orders order.Repository, subs subscription.Repository, trials trial.Repository) access.Checker {
	return &AccessService{
		users:         users,
		orders:        orders,
		subscriptions: subs,
		trials:        trials,
		now:           time.Now,
	}
}

// HasAccess checks each grant source in turn, cheapest first
func (s *AccessService) HasAccess(ctx context.Context, userID, productID int64) (access.Grant, error) {
	deny := access.Grant{Reason: access.ReasonNone}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return deny, nil
		}
		return deny, err
	}
	if !u.IsActive {
		return deny, nil
	}
	if u.IsAdmin() {
		return access.Grant{Allowed: true, Reason: access.ReasonAdmin}, nil
	}

	paid, err := s.orders.HasPaid(ctx, userID, productID)
	if err != nil {
		return deny, err
	}
	if paid {
		return access.Grant{Allowed: true, Reason: access.ReasonPurchase}, nil
	}

	sub, err := s.subscriptions.GetLive(ctx, userID, productID)
	if err != nil && !errors.IsNotFound(err) {
		return deny, err
	}
	if sub != nil && sub.Status == subscription.StatusActive {
		return access.Grant{Allowed: true, Reason: access.ReasonSubscription}, nil
	}

	t, err := s.trials.GetByUserProduct(ctx, userID, productID)
	if err != nil && !errors.IsNotFound(err) {
		return deny, err
	}
	if t != nil && t.IsLive(s.now()) {
		return access.Grant{Allowed: true, Reason: access.ReasonTrial}, nil
	}

	return deny, nil
}
