package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

type fakeTrials struct {
	trial.Service
	expired  int
	reminded int
	err      error
	calledAt []time.Time
}

func (f *fakeTrials) ExpireDue(_ context.Context, now time.Time) (int, error) {
	f.calledAt = append(f.calledAt, now)
	return f.expired, f.err
}

func (f *fakeTrials) SendReminders(_ context.Context, now time.Time) (int, error) {
	f.calledAt = append(f.calledAt, now)
	return f.reminded, nil
}

type fakeSubscriptions struct {
	subscription.Service
	expired int64
}

func (f *fakeSubscriptions) ExpireDue(context.Context, time.Time) (int64, error) {
	return f.expired, nil
}

func TestScheduler_RunNow(t *testing.T) {
	trials := &fakeTrials{expired: 2, reminded: 5}
	subs := &fakeSubscriptions{expired: 3}
	s := NewScheduler(trials, subs, config.TrialConfig{}, logger.Nop())

	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	assert.Equal(t, []string{JobSubscriptionExpiry, JobTrialExpiry, JobTrialReminders}, s.Jobs())

	tests := []struct {
		job  string
		want int
	}{
		{JobTrialExpiry, 2},
		{JobSubscriptionExpiry, 3},
		{JobTrialReminders, 5},
	}
	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			n, err := s.RunNow(context.Background(), tt.job)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	for _, at := range trials.calledAt {
		assert.Equal(t, fixed, at)
	}

	_, err := s.RunNow(context.Background(), "nope")
	assert.Error(t, err)
}

func TestScheduler_JobError(t *testing.T) {
	trials := &fakeTrials{err: fmt.Errorf("db down")}
	s := NewScheduler(trials, &fakeSubscriptions{}, config.TrialConfig{}, logger.Nop())

	_, err := s.RunNow(context.Background(), JobTrialExpiry)
	assert.EqualError(t, err, "db down")
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&fakeTrials{}, &fakeSubscriptions{}, config.TrialConfig{
		ExpirySchedule: "@every 1h",
		ReminderCron:   "0 9 * * *",
	}, logger.Nop())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.False(t, s.IsRunning())

	// stopping twice is a no-op
	s.Stop(ctx)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&fakeTrials{}, &fakeSubscriptions{}, config.TrialConfig{
		ExpirySchedule: "every now and then",
	}, logger.Nop())

	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}
