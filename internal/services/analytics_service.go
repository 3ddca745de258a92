package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/cache"
	"github.com/spartanofurioso/platform/internal/domain/analytics"
	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

const (
	// statsCacheTTL keeps dashboard reloads off the events table
	statsCacheTTL = time.Minute

	topPagesLimit     = 10
	maxSessionIDLen   = 128
	maxStatsWindow    = 366 * 24 * time.Hour
	maxMetadataLength = 4096
)

// AnalyticsService implements analytics.Service
type AnalyticsService struct {
	repo          analytics.Repository
	users         user.Repository
	orders        order.Repository
	subscriptions subscription.Repository
	trials        trial.Repository
	newsletter    newsletter.Repository
	cache         cache.Cache
	logger        *logger.Logger
	now           func() time.Time
}

// AnalyticsServiceDeps groups the repositories the dashboard reads from
type AnalyticsServiceDeps struct {
	Events        analytics.Repository
	Users         user.Repository
	Orders        order.Repository
	Subscriptions subscription.Repository
	Trials        trial.Repository
	Newsletter    newsletter.Repository
	Cache         cache.Cache
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(deps AnalyticsServiceDeps, log *logger.Logger) analytics.Service {
	c := deps.Cache
	if c == nil {
		c = cache.NewNoop()
	}
	return &AnalyticsService{
		repo:          deps.Events,
		users:         deps.Users,
		orders:        deps.Orders,
		subscriptions: deps.Subscriptions,
		trials:        deps.Trials,
		newsletter:    deps.Newsletter,
		cache:         c,
		logger:        log,
		now:           time.Now,
	}
}

// Track stores a client event
func (s *AnalyticsService) Track(ctx context.Context, e *analytics.Event) error {
	e.SessionID = strings.TrimSpace(e.SessionID)
	if e.SessionID == "" {
		return errors.BadRequest("Session ID is required")
	}
	if len(e.SessionID) > maxSessionIDLen {
		return errors.BadRequest("Session ID is too long")
	}
	if len(e.Metadata) > 0 {
		if len(e.Metadata) > maxMetadataLength {
			return errors.BadRequest("Metadata is too large")
		}
		if !json.Valid(e.Metadata) {
			return errors.BadRequest("Metadata must be valid JSON")
		}
	}

	e.Type = analytics.NormalizeType(string(e.Type))
	e.Path = truncate(strings.TrimSpace(e.Path), analytics.MaxPathLength)
	e.Referrer = truncate(strings.TrimSpace(e.Referrer), analytics.MaxPathLength)
	e.UserAgent = truncate(e.UserAgent, analytics.MaxPathLength)
	e.CreatedAt = s.now()

	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	metrics.RecordAnalyticsEvent(string(e.Type))
	return nil
}

// Stats aggregates events in [from, to)
func (s *AnalyticsService) Stats(ctx context.Context, from, to time.Time) (*analytics.Stats, error) {
	if !from.Before(to) {
		return nil, errors.BadRequest("'from' must be before 'to'")
	}
	if to.Sub(from) > maxStatsWindow {
		return nil, errors.BadRequest("Date range cannot exceed one year")
	}

	key := fmt.Sprintf("analytics:stats:%d:%d", from.Unix(), to.Unix())
	var cached analytics.Stats
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WarnWithErr(err, "Analytics cache read failed")
	} else if hit {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx, from, to, topPagesLimit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, stats, statsCacheTTL); err != nil {
		s.logger.WarnWithErr(err, "Analytics cache write failed")
	}
	return stats, nil
}

// Overview summarises the platform for the admin dashboard
func (s *AnalyticsService) Overview(ctx context.Context) (*analytics.Overview, error) {
	var (
		ov  analytics.Overview
		err error
	)

	if ov.TotalUsers, err = s.users.Count(ctx, ""); err != nil {
		return nil, err
	}
	if ov.ActiveSubscriptions, err = s.subscriptions.CountByStatus(ctx, subscription.StatusActive); err != nil {
		return nil, err
	}

	trials, err := s.trials.CountByStatus(ctx, s.now())
	if err != nil {
		return nil, err
	}
	ov.ActiveTrials = trials[trial.StatusActive]

	orders, err := s.orders.Stats(ctx, s.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	ov.PaidOrders = orders.ByStatus[order.StatusPaid]
	ov.RevenueByCurrency = orders.RevenueByCurrency

	if ov.NewsletterSubscribers, err = s.newsletter.CountSubscribers(ctx, newsletter.SubscriberSubscribed); err != nil {
		return nil, err
	}
	return &ov, nil
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
