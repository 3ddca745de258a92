package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/cache"
	"github.com/spartanofurioso/platform/internal/domain/analytics"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/user"
)

func newAnalyticsService(env *testEnv, c cache.Cache) *AnalyticsService {
	return NewAnalyticsService(AnalyticsServiceDeps{
		Events:        env.analytics,
		Users:         env.users,
		Orders:        env.orders,
		Subscriptions: env.subscriptions,
		Trials:        env.trials,
		Newsletter:    env.newsletter,
		Cache:         c,
	}, env.log).(*AnalyticsService)
}

func TestAnalyticsService_Track(t *testing.T) {
	env := newTestEnv(t)
	svc := newAnalyticsService(env, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		event    analytics.Event
		wantErr  bool
		wantType analytics.EventType
	}{
		{
			name:     "page view",
			event:    analytics.Event{SessionID: "s-1", Type: "page_view", Path: "/bots"},
			wantType: analytics.EventPageView,
		},
		{
			name:     "unknown type becomes custom",
			event:    analytics.Event{SessionID: "s-1", Type: "hover", Path: "/"},
			wantType: analytics.EventCustom,
		},
		{
			name:    "missing session",
			event:   analytics.Event{Type: "click"},
			wantErr: true,
		},
		{
			name:    "invalid metadata",
			event:   analytics.Event{SessionID: "s-1", Type: "click", Metadata: json.RawMessage(`{nope`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.event
			err := svc.Track(ctx, &e)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, e.ID)
			assert.Equal(t, tt.wantType, e.Type)
		})
	}

	long := analytics.Event{SessionID: "s-2", Type: "page_view", Path: "/" + strings.Repeat("a", 600)}
	require.NoError(t, svc.Track(ctx, &long))
	assert.Len(t, long.Path, analytics.MaxPathLength)
}

func TestAnalyticsService_Stats(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc := newAnalyticsService(env, cache.NewRedisFromClient(client))
	ctx := context.Background()

	uid := int64(7)
	for _, e := range []analytics.Event{
		{SessionID: "a", Type: "page_view", Path: "/"},
		{SessionID: "a", Type: "page_view", Path: "/bots"},
		{SessionID: "b", Type: "page_view", Path: "/"},
		{SessionID: "b", UserID: &uid, Type: "signup", Path: "/register"},
	} {
		e := e
		require.NoError(t, svc.Track(ctx, &e))
	}

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	stats, err := svc.Stats(ctx, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalEvents)
	assert.EqualValues(t, 3, stats.PageViews)
	assert.EqualValues(t, 2, stats.UniqueSessions)
	assert.EqualValues(t, 1, stats.UniqueUsers)
	require.NotEmpty(t, stats.TopPages)
	assert.Equal(t, "/", stats.TopPages[0].Path)
	assert.EqualValues(t, 2, stats.TopPages[0].Views)
	assert.EqualValues(t, 1, stats.ByType[analytics.EventSignup])
	assert.Len(t, mr.Keys(), 1)

	// served from cache until the entry expires
	extra := analytics.Event{SessionID: "c", Type: "click", Path: "/"}
	require.NoError(t, svc.Track(ctx, &extra))
	cached, err := svc.Stats(ctx, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 4, cached.TotalEvents)

	mr.FastForward(2 * time.Minute)
	fresh, err := svc.Stats(ctx, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 5, fresh.TotalEvents)

	_, err = svc.Stats(ctx, to, from)
	assert.Error(t, err)
	_, err = svc.Stats(ctx, from.AddDate(-2, 0, 0), to)
	assert.Error(t, err)
}

func TestAnalyticsService_Overview(t *testing.T) {
	env := newTestEnv(t)
	svc := newAnalyticsService(env, nil)
	trials := env.trialService()
	subs := env.subscriptionService()
	news := newNewsletterService(env, nil)
	ctx := context.Background()

	u := env.seedUser(t, "a@example.com", user.RoleUser)
	env.seedUser(t, "admin@example.com", user.RoleAdmin)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	club := env.seedProduct(t, "Signals Club", product.TypeSubscription, 4900, false)

	_, err := trials.Start(ctx, u.ID, bot.ID)
	require.NoError(t, err)
	_, err = subs.Create(ctx, u.ID, club.ID, "", nil)
	require.NoError(t, err)
	_, err = news.Subscribe(ctx, "reader@example.com", nil, "")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, env.orders.Create(ctx, &order.Order{
		UserID: u.ID, ProductID: club.ID, AmountCents: 4900, Currency: "EUR",
		PaymentMethod: order.MethodStripe, Status: order.StatusPaid, PaidAt: &now,
	}))

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, ov.TotalUsers)
	assert.EqualValues(t, 1, ov.ActiveSubscriptions)
	assert.EqualValues(t, 1, ov.ActiveTrials)
	assert.EqualValues(t, 1, ov.PaidOrders)
	assert.EqualValues(t, 4900, ov.RevenueByCurrency["EUR"])
	assert.EqualValues(t, 1, ov.NewsletterSubscribers)
}
