package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/testutil"
)

func createUser(t *testing.T, db *sql.DB, email string) *user.User {
	t.Helper()
	u := &user.User{Email: email, Role: user.RoleUser, IsActive: true}
	require.NoError(t, postgres.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createProduct(t *testing.T, db *sql.DB, slug string, typ product.Type, interval string) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:            slug,
		Slug:            slug,
		Type:            typ,
		PriceCents:      4900,
		Currency:        "EUR",
		BillingInterval: interval,
		Features:        []string{"signals", "support"},
		IsActive:        true,
	}
	require.NoError(t, postgres.NewProductRepository(db).Create(context.Background(), p))
	return p
}

func TestProductRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewProductRepository(db)
	ctx := context.Background()

	bot := createProduct(t, db, "grid-bot", product.TypeBot, product.IntervalOneTime)
	createProduct(t, db, "premium", product.TypeSubscription, product.IntervalMonth)

	got, err := repo.GetBySlug(ctx, "grid-bot")
	require.NoError(t, err)
	assert.Equal(t, bot.ID, got.ID)
	assert.Equal(t, []string{"signals", "support"}, got.Features)

	dup := &product.Product{Name: "Other", Slug: "grid-bot", Type: product.TypeBot, Currency: "EUR"}
	assert.True(t, errors.IsCode(repo.Create(ctx, dup), errors.ErrCodeConflict))

	bot.IsActive = false
	bot.Features = nil
	require.NoError(t, repo.Update(ctx, bot))

	active, err := repo.List(ctx, product.Filter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "premium", active[0].Slug)

	bots, err := repo.List(ctx, product.Filter{Type: product.TypeBot})
	require.NoError(t, err)
	require.Len(t, bots, 1)
	assert.Empty(t, bots[0].Features)

	_, err = repo.GetByID(ctx, 424242)
	assert.True(t, errors.IsNotFound(err))
}

func TestProductRepository_DeleteWithOrders(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewProductRepository(db)
	u := createUser(t, db, "buyer@example.com")
	sold := createProduct(t, db, "sold", product.TypeIndicator, product.IntervalOneTime)
	unsold := createProduct(t, db, "unsold", product.TypeIndicator, product.IntervalOneTime)

	o := &order.Order{
		UserID: u.ID, ProductID: sold.ID, AmountCents: 4900, Currency: "EUR",
		PaymentMethod: order.MethodPayPal, Status: order.StatusPending,
	}
	require.NoError(t, postgres.NewOrderRepository(db).Create(ctx, o))

	assert.True(t, errors.IsCode(repo.Delete(ctx, sold.ID), errors.ErrCodeConflict))
	require.NoError(t, repo.Delete(ctx, unsold.ID))
	assert.True(t, errors.IsNotFound(repo.Delete(ctx, unsold.ID)))
}

func TestOrderRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewOrderRepository(db)
	u := createUser(t, db, "orders@example.com")
	p := createProduct(t, db, "course", product.TypeCourse, product.IntervalOneTime)

	paid := &order.Order{
		UserID: u.ID, ProductID: p.ID, AmountCents: 4900, Currency: "EUR",
		PaymentMethod: order.MethodStripe, Status: order.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, paid))

	owned, err := repo.HasPaid(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	now := time.Now().Truncate(time.Second)
	ref := "cs_test_1"
	paid.Status = order.StatusPaid
	paid.PaidAt = &now
	paid.PaymentReference = &ref
	require.NoError(t, repo.Update(ctx, paid))

	got, err := repo.GetByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, got.Status)
	assert.Equal(t, "course", got.ProductName)
	assert.Equal(t, "orders@example.com", got.UserEmail)
	require.NotNil(t, got.PaymentReference)
	assert.Equal(t, ref, *got.PaymentReference)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(now))

	owned, err = repo.HasPaid(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	pending := &order.Order{
		UserID: u.ID, ProductID: p.ID, AmountCents: 1000, Currency: "USD",
		PaymentMethod: order.MethodCrypto, Status: order.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, pending))

	orders, total, err := repo.List(ctx, order.Filter{UserID: u.ID, Status: order.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, pending.ID, orders[0].ID)

	stats, err := repo.Stats(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.ByStatus[order.StatusPaid])
	assert.Equal(t, int64(1), stats.ByPaymentMethod[order.MethodCrypto])
	assert.Equal(t, map[string]int64{"EUR": 4900}, stats.RevenueByCurrency)
	assert.Equal(t, map[string]int64{"EUR": 4900}, stats.RevenueLast30Days)

	stats, err = repo.Stats(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stats.RevenueLast30Days)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.IsNotFound(err))
}

func TestSubscriptionRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewSubscriptionRepository(db)
	u := createUser(t, db, "subs@example.com")
	p := createProduct(t, db, "signals", product.TypeSubscription, product.IntervalMonth)

	now := time.Now().Truncate(time.Second)
	live := &subscription.Subscription{
		UserID: u.ID, ProductID: p.ID, Status: subscription.StatusActive, Interval: subscription.IntervalMonth,
		CurrentPeriodStart: now, CurrentPeriodEnd: subscription.PeriodEnd(now, subscription.IntervalMonth),
	}
	require.NoError(t, repo.Create(ctx, live))

	duplicate := &subscription.Subscription{
		UserID: u.ID, ProductID: p.ID, Status: subscription.StatusActive, Interval: subscription.IntervalMonth,
		CurrentPeriodStart: now, CurrentPeriodEnd: subscription.PeriodEnd(now, subscription.IntervalMonth),
	}
	err := repo.Create(ctx, duplicate)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConflict, errors.From(err).Code)

	former := createUser(t, db, "former@example.com")
	lapsed := &subscription.Subscription{
		UserID: former.ID, ProductID: p.ID, Status: subscription.StatusActive, Interval: subscription.IntervalMonth,
		CurrentPeriodStart: now.AddDate(0, -2, 0), CurrentPeriodEnd: now.AddDate(0, -1, 0),
	}
	require.NoError(t, repo.Create(ctx, lapsed))

	n, err := repo.ExpireDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// an ended subscription no longer blocks a new one
	renewed := &subscription.Subscription{
		UserID: former.ID, ProductID: p.ID, Status: subscription.StatusActive, Interval: subscription.IntervalMonth,
		CurrentPeriodStart: now, CurrentPeriodEnd: subscription.PeriodEnd(now, subscription.IntervalMonth),
	}
	require.NoError(t, repo.Create(ctx, renewed))

	got, err := repo.GetLive(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)
	assert.Equal(t, "signals", got.ProductName)

	live.Status = subscription.StatusPaused
	live.PausedAt = &now
	require.NoError(t, repo.Update(ctx, live))

	got, err = repo.GetLive(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPaused, got.Status)
	require.NotNil(t, got.PausedAt)

	active, err := repo.CountByStatus(ctx, subscription.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	subs, total, err := repo.List(ctx, subscription.Filter{Status: subscription.StatusExpired})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, lapsed.ID, subs[0].ID)

	_, err = repo.GetByOrderID(ctx, 77)
	assert.True(t, errors.IsNotFound(err))
}

func TestTrialRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewTrialRepository(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	carol := createUser(t, db, "carol@example.com")
	p := createProduct(t, db, "bot", product.TypeBot, product.IntervalOneTime)

	now := time.Now().Truncate(time.Second)
	newTrial := func(u *user.User, expires time.Time) *trial.Trial {
		tr := &trial.Trial{UserID: u.ID, ProductID: p.ID, Status: trial.StatusActive, StartedAt: now.AddDate(0, 0, -10), ExpiresAt: expires}
		require.NoError(t, repo.Create(ctx, tr))
		return tr
	}

	due := newTrial(alice, now.Add(-time.Minute))
	soon := newTrial(bob, now.Add(48*time.Hour))
	later := newTrial(carol, now.AddDate(0, 0, 30))

	again := &trial.Trial{UserID: alice.ID, ProductID: p.ID, Status: trial.StatusActive, StartedAt: now, ExpiresAt: now}
	assert.True(t, errors.IsCode(repo.Create(ctx, again), errors.ErrCodeConflict))

	reminders, err := repo.DueForReminder(ctx, now, now.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, soon.ID, reminders[0].ID)

	soon.ReminderSentAt = &now
	require.NoError(t, repo.Update(ctx, soon))
	reminders, err = repo.DueForReminder(ctx, now, now.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Empty(t, reminders)

	overdue, total, err := repo.List(ctx, trial.Filter{Status: trial.StatusExpired, AsOf: now})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, overdue, 1)
	assert.Equal(t, due.ID, overdue[0].ID)

	_, total, err = repo.List(ctx, trial.Filter{Status: trial.StatusActive, AsOf: now})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	counts, err := repo.CountByStatus(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, map[trial.Status]int64{trial.StatusActive: 2, trial.StatusExpired: 1}, counts)

	expired, err := repo.ExpireDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, due.ID, expired[0].ID)
	assert.Equal(t, trial.StatusExpired, expired[0].Status)

	expired, err = repo.ExpireDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)

	later.Status = trial.StatusConverted
	later.ConvertedAt = &now
	require.NoError(t, repo.Update(ctx, later))

	counts, err = repo.CountByStatus(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, map[trial.Status]int64{
		trial.StatusActive:    1,
		trial.StatusExpired:   1,
		trial.StatusConverted: 1,
	}, counts)

	got, err := repo.GetByUserProduct(ctx, carol.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, trial.StatusConverted, got.Status)
	assert.Equal(t, "carol@example.com", got.UserEmail)

	list, total, err := repo.List(ctx, trial.Filter{ProductID: p.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)
}
