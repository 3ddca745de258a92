package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/spartanofurioso/platform/internal/domain/analytics"
	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/testutil"
)

// testEnv wires real SQLite repositories with mocked side channels
type testEnv struct {
	db            *sql.DB
	log           *logger.Logger
	users         user.Repository
	products      product.Repository
	orders        order.Repository
	subscriptions subscription.Repository
	trials        trial.Repository
	newsletter    newsletter.Repository
	analytics     analytics.Repository
	mailer        *testutil.MockMailer
	publisher     *testutil.MockPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })

	return &testEnv{
		db:            db,
		log:           logger.New(logger.Config{Level: "error", Format: "json"}),
		users:         postgres.NewUserRepository(db),
		products:      postgres.NewProductRepository(db),
		orders:        postgres.NewOrderRepository(db),
		subscriptions: postgres.NewSubscriptionRepository(db),
		trials:        postgres.NewTrialRepository(db),
		newsletter:    postgres.NewNewsletterRepository(db),
		analytics:     postgres.NewAnalyticsRepository(db),
		mailer:        testutil.NewMockMailer(),
		publisher:     testutil.NewMockPublisher(),
	}
}

func (e *testEnv) seedUser(t *testing.T, email, role string) *user.User {
	t.Helper()
	u := &user.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		IsActive:     true,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (e *testEnv) seedProduct(t *testing.T, name string, typ product.Type, priceCents int64, trialEnabled bool) *product.Product {
	t.Helper()
	interval := product.IntervalOneTime
	if typ == product.TypeSubscription {
		interval = product.IntervalMonth
	}
	p := &product.Product{
		Name:            name,
		Slug:            product.Slugify(name),
		Type:            typ,
		PriceCents:      priceCents,
		Currency:        "EUR",
		BillingInterval: interval,
		TrialEnabled:    trialEnabled,
		Features:        []string{},
		IsActive:        true,
	}
	if err := e.products.Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (e *testEnv) accessChecker() *AccessService {
	return NewAccessService(e.users, e.orders, e.subscriptions, e.trials).(*AccessService)
}

func (e *testEnv) subscriptionService() *SubscriptionService {
	return NewSubscriptionService(e.subscriptions, e.products, e.publisher, e.log).(*SubscriptionService)
}

func (e *testEnv) trialService() *TrialService {
	return NewTrialService(e.trials, e.products, e.accessChecker(), e.mailer, e.publisher,
		TrialServiceConfig{DurationDays: 60, ReminderDays: 3}, e.log).(*TrialService)
}
