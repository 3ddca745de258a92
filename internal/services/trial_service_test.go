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
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

func TestTrialService_Start(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	u := env.seedUser(t, "trader@example.com", user.RoleUser)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	noTrial := env.seedProduct(t, "Indicator Pack", product.TypeIndicator, 4900, false)

	tr, err := svc.Start(ctx, u.ID, bot.ID)
	require.NoError(t, err)
	assert.Equal(t, trial.StatusActive, tr.Status)
	assert.Equal(t, 60, tr.DaysRemaining)
	assert.Contains(t, env.publisher.Types(), events.TrialStarted)

	tests := []struct {
		name      string
		productID int64
		wantCode  string
	}{
		{name: "second trial for same product", productID: bot.ID, wantCode: errors.ErrCodeConflict},
		{name: "product without trial", productID: noTrial.ID, wantCode: errors.ErrCodeBadRequest},
		{name: "unknown product", productID: 999, wantCode: errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(ctx, u.ID, tt.productID)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.From(err).Code)
		})
	}
}

func TestTrialService_StartRejectsOwners(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	u := env.seedUser(t, "owner@example.com", user.RoleUser)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)

	now := time.Now()
	require.NoError(t, env.orders.Create(ctx, &order.Order{
		UserID: u.ID, ProductID: bot.ID, AmountCents: 29900, Currency: "EUR",
		PaymentMethod: order.MethodPayPal, Status: order.StatusPaid, PaidAt: &now,
	}))

	_, err := svc.Start(ctx, u.ID, bot.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConflict, errors.From(err).Code)
}

func TestTrialService_ExpiryAndExtend(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	start := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return start }

	u := env.seedUser(t, "trader@example.com", user.RoleUser)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)

	tr, err := svc.Start(ctx, u.ID, bot.ID)
	require.NoError(t, err)

	status, err := svc.CheckAccess(ctx, u.ID, bot.ID)
	require.NoError(t, err)
	assert.True(t, status.HasAccess)
	assert.Equal(t, access.ReasonTrial, status.Reason)

	later := start.AddDate(0, 0, 61)
	svc.now = func() time.Time { return later }

	// reads report expiry before the job has run
	mine, err := svc.GetMine(ctx, u.ID, bot.ID)
	require.NoError(t, err)
	assert.Equal(t, trial.StatusExpired, mine.Status)
	assert.Equal(t, 0, mine.DaysRemaining)

	n, err := svc.ExpireDue(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, env.publisher.Types(), events.TrialExpired)

	n, err = svc.ExpireDue(ctx, later)
	require.NoError(t, err)
	assert.Zero(t, n)

	extended, err := svc.Extend(ctx, tr.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, trial.StatusActive, extended.Status)
	assert.Equal(t, 29, extended.DaysRemaining)

	_, err = svc.Extend(ctx, tr.ID, 0)
	assert.Error(t, err)

	cancelled, err := svc.Cancel(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, trial.StatusCancelled, cancelled.Status)

	_, err = svc.Extend(ctx, tr.ID, 10)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.From(err).Code)
}

func TestTrialService_ExtendStillExpired(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	start := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return start }

	u := env.seedUser(t, "trader@example.com", user.RoleUser)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	tr, err := svc.Start(ctx, u.ID, bot.ID)
	require.NoError(t, err)

	later := start.AddDate(0, 0, 100)
	svc.now = func() time.Time { return later }
	_, err = svc.ExpireDue(ctx, later)
	require.NoError(t, err)

	extended, err := svc.Extend(ctx, tr.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, trial.StatusExpired, extended.Status)
}

func TestTrialService_ConvertAndStats(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	a := env.seedUser(t, "a@example.com", user.RoleUser)
	b := env.seedUser(t, "b@example.com", user.RoleUser)
	c := env.seedUser(t, "c@example.com", user.RoleUser)

	for _, u := range []*user.User{a, b, c} {
		_, err := svc.Start(ctx, u.ID, bot.ID)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Convert(ctx, a.ID, bot.ID))
	trB, err := svc.GetMine(ctx, b.ID, bot.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, trB.ID)
	require.NoError(t, err)

	// no trial is not an error
	require.NoError(t, svc.Convert(ctx, a.ID, 999))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[trial.StatusActive])
	assert.EqualValues(t, 1, stats.ByStatus[trial.StatusConverted])
	assert.EqualValues(t, 1, stats.ByStatus[trial.StatusCancelled])
	assert.InDelta(t, 0.5, stats.ConversionRate, 0.0001)

	all, total, err := svc.ListAll(ctx, trial.Filter{Status: trial.StatusActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, all, 1)
	assert.Equal(t, c.ID, all[0].UserID)

	_, _, err = svc.ListAll(ctx, trial.Filter{Status: "bogus"})
	assert.Error(t, err)
}

func TestTrialService_OverdueTrialsReportExpired(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	start := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return start }

	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	u := env.seedUser(t, "late@example.com", user.RoleUser)
	tr, err := svc.Start(ctx, u.ID, bot.ID)
	require.NoError(t, err)

	// the expiry job has not run yet
	svc.now = func() time.Time { return start.AddDate(0, 0, 61) }

	all, total, err := svc.ListAll(ctx, trial.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, all, 1)
	assert.Equal(t, trial.StatusExpired, all[0].Status)
	assert.Equal(t, 0, all[0].DaysRemaining)

	active, total, err := svc.ListAll(ctx, trial.Filter{Status: trial.StatusActive})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, active)

	expired, total, err := svc.ListAll(ctx, trial.Filter{Status: trial.StatusExpired})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, expired, 1)
	assert.Equal(t, tr.ID, expired[0].ID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ByStatus[trial.StatusActive])
	assert.EqualValues(t, 1, stats.ByStatus[trial.StatusExpired])
}

func TestTrialService_SendReminders(t *testing.T) {
	env := newTestEnv(t)
	svc := env.trialService()
	ctx := context.Background()

	start := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return start }

	u := env.seedUser(t, "trader@example.com", user.RoleUser)
	bot := env.seedProduct(t, "Furioso Bot", product.TypeBot, 29900, true)
	_, err := svc.Start(ctx, u.ID, bot.ID)
	require.NoError(t, err)

	sent, err := svc.SendReminders(ctx, start)
	require.NoError(t, err)
	assert.Zero(t, sent)

	soon := start.AddDate(0, 0, 58)
	sent, err = svc.SendReminders(ctx, soon)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := env.mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "trader@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "Furioso Bot")

	sent, err = svc.SendReminders(ctx, soon)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
