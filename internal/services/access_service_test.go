package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/domain/access"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
)

func TestAccessService_HasAccess(t *testing.T) {
	env := newTestEnv(t)
	checker := env.accessChecker()
	ctx := context.Background()
	now := time.Now()

	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	club := env.seedProduct(t, "Signals Club", product.TypeSubscription, 4900, true)

	admin := env.seedUser(t, "admin@example.com", user.RoleAdmin)
	buyer := env.seedUser(t, "buyer@example.com", user.RoleUser)
	member := env.seedUser(t, "member@example.com", user.RoleUser)
	paused := env.seedUser(t, "paused@example.com", user.RoleUser)
	trialist := env.seedUser(t, "trial@example.com", user.RoleUser)
	lapsed := env.seedUser(t, "lapsed@example.com", user.RoleUser)
	pending := env.seedUser(t, "pending@example.com", user.RoleUser)
	banned := env.seedUser(t, "banned@example.com", user.RoleUser)

	banned.IsActive = false
	require.NoError(t, env.users.Update(ctx, banned))

	for _, o := range []*order.Order{
		{UserID: buyer.ID, ProductID: bot.ID, Status: order.StatusPaid},
		{UserID: banned.ID, ProductID: bot.ID, Status: order.StatusPaid},
		{UserID: pending.ID, ProductID: bot.ID, Status: order.StatusPending},
	} {
		o.AmountCents, o.Currency, o.PaymentMethod = 29900, "EUR", order.MethodPayPal
		require.NoError(t, env.orders.Create(ctx, o))
	}

	pausedAt := now
	for _, s := range []*subscription.Subscription{
		{UserID: member.ID, ProductID: club.ID, Status: subscription.StatusActive},
		{UserID: paused.ID, ProductID: club.ID, Status: subscription.StatusPaused, PausedAt: &pausedAt},
	} {
		s.Interval = subscription.IntervalMonth
		s.CurrentPeriodStart = now
		s.CurrentPeriodEnd = now.AddDate(0, 1, 0)
		require.NoError(t, env.subscriptions.Create(ctx, s))
	}

	for _, tr := range []*trial.Trial{
		{UserID: trialist.ID, ProductID: bot.ID, Status: trial.StatusActive, StartedAt: now, ExpiresAt: now.AddDate(0, 0, 10)},
		{UserID: lapsed.ID, ProductID: bot.ID, Status: trial.StatusActive, StartedAt: now.AddDate(0, 0, -61), ExpiresAt: now.Add(-time.Hour)},
	} {
		require.NoError(t, env.trials.Create(ctx, tr))
	}

	tests := []struct {
		name       string
		userID     int64
		productID  int64
		wantAccess bool
		wantReason string
	}{
		{"admin", admin.ID, bot.ID, true, access.ReasonAdmin},
		{"buyer", buyer.ID, bot.ID, true, access.ReasonPurchase},
		{"buyer other product", buyer.ID, club.ID, false, access.ReasonNone},
		{"active subscription", member.ID, club.ID, true, access.ReasonSubscription},
		{"paused subscription", paused.ID, club.ID, false, access.ReasonNone},
		{"live trial", trialist.ID, bot.ID, true, access.ReasonTrial},
		{"trial past expiry", lapsed.ID, bot.ID, false, access.ReasonNone},
		{"pending order", pending.ID, bot.ID, false, access.ReasonNone},
		{"inactive account", banned.ID, bot.ID, false, access.ReasonNone},
		{"unknown user", 999, bot.ID, false, access.ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grant, err := checker.HasAccess(ctx, tt.userID, tt.productID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, grant.Allowed)
			assert.Equal(t, tt.wantReason, grant.Reason)
		})
	}
}
