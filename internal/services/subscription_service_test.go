package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

func TestSubscriptionService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc := env.subscriptionService()
	ctx := context.Background()

	u := env.seedUser(t, "member@example.com", user.RoleUser)
	club := env.seedProduct(t, "Signals Club", product.TypeSubscription, 4900, false)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, false)

	start := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sub, err := svc.Create(ctx, u.ID, club.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Equal(t, subscription.IntervalMonth, sub.Interval)
	assert.True(t, sub.CurrentPeriodEnd.Equal(start.AddDate(0, 1, 0)))

	tests := []struct {
		name      string
		productID int64
		interval  string
		wantCode  string
	}{
		{name: "already subscribed", productID: club.ID, wantCode: errors.ErrCodeConflict},
		{name: "one-time product", productID: bot.ID, wantCode: errors.ErrCodeBadRequest},
		{name: "bad interval", productID: club.ID, interval: "week", wantCode: errors.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, u.ID, tt.productID, tt.interval, nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.From(err).Code)
		})
	}
}

func TestSubscriptionService_StateMachine(t *testing.T) {
	env := newTestEnv(t)
	svc := env.subscriptionService()
	ctx := context.Background()

	u := env.seedUser(t, "member@example.com", user.RoleUser)
	other := env.seedUser(t, "other@example.com", user.RoleUser)
	club := env.seedProduct(t, "Signals Club", product.TypeSubscription, 4900, false)

	start := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return start }

	sub, err := svc.Create(ctx, u.ID, club.ID, subscription.IntervalYear, nil)
	require.NoError(t, err)
	end := sub.CurrentPeriodEnd

	_, err = svc.Resume(ctx, sub.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)

	paused, err := svc.Pause(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPaused, paused.Status)

	// ten days later the period end moves by the paused time
	svc.now = func() time.Time { return start.Add(10 * 24 * time.Hour) }
	resumed, err := svc.Resume(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, resumed.Status)
	assert.True(t, resumed.CurrentPeriodEnd.Equal(end.Add(10*24*time.Hour)))

	_, err = svc.Cancel(ctx, other.ID, false, sub.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	cancelled, err := svc.Cancel(ctx, u.ID, false, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, cancelled.DaysRemaining)
	assert.Contains(t, env.publisher.Types(), events.SubscriptionCancelled)

	_, err = svc.Pause(ctx, sub.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)

	// a new subscription is allowed once the previous one ended
	_, err = svc.Create(ctx, u.ID, club.ID, "", nil)
	require.NoError(t, err)
}

func TestSubscriptionService_ExpireDue(t *testing.T) {
	env := newTestEnv(t)
	svc := env.subscriptionService()
	ctx := context.Background()

	u := env.seedUser(t, "member@example.com", user.RoleUser)
	club := env.seedProduct(t, "Signals Club", product.TypeSubscription, 4900, false)

	start := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return start }
	sub, err := svc.Create(ctx, u.ID, club.ID, "", nil)
	require.NoError(t, err)

	n, err := svc.ExpireDue(ctx, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.ExpireDue(ctx, start.AddDate(0, 2, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, got.Status)

	list, total, err := svc.List(ctx, subscription.Filter{Status: subscription.StatusExpired})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = svc.List(ctx, subscription.Filter{Status: "bogus"})
	assert.Error(t, err)
}

func TestSubscription_ComputeDaysRemaining(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	pausedAt := now.Add(-5 * 24 * time.Hour)

	tests := []struct {
		name string
		sub  subscription.Subscription
		want int
	}{
		{
			name: "active",
			sub:  subscription.Subscription{Status: subscription.StatusActive, CurrentPeriodEnd: now.Add(36 * time.Hour)},
			want: 2,
		},
		{
			name: "paused does not consume days",
			sub: subscription.Subscription{
				Status:           subscription.StatusPaused,
				CurrentPeriodEnd: now.Add(24 * time.Hour),
				PausedAt:         &pausedAt,
			},
			want: 6,
		},
		{
			name: "cancelled",
			sub:  subscription.Subscription{Status: subscription.StatusCancelled, CurrentPeriodEnd: now.Add(48 * time.Hour)},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sub.ComputeDaysRemaining(now)
			assert.Equal(t, tt.want, tt.sub.DaysRemaining)
		})
	}
}
