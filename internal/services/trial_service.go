package services

import (
	"context"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/access"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// MaxTrialExtensionDays bounds a single admin extension
const MaxTrialExtensionDays = 365

// TrialServiceConfig holds trial settings
type TrialServiceConfig struct {
	DurationDays int
	ReminderDays int
}

// TrialService implements trial.Service
type TrialService struct {
	repo      trial.Repository
	products  product.Repository
	access    access.Checker
	mailer    mailer.Mailer
	publisher events.Publisher
	cfg       TrialServiceConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewTrialService creates a new trial service
func NewTrialService(
	repo trial.Repository,
	products product.Repository,
	checker access.Checker,
	m mailer.Mailer,
	pub events.Publisher,
	cfg TrialServiceConfig,
	log *logger.Logger,
) trial.Service {
	if cfg.DurationDays <= 0 {
		cfg.DurationDays = trial.DefaultDurationDays
	}
	if cfg.ReminderDays < 0 {
		cfg.ReminderDays = 0
	}
	return &TrialService{
		repo:      repo,
		products:  products,
		access:    checker,
		mailer:    m,
		publisher: pub,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// present derives read-time fields; an overdue active trial reads as expired before the job runs
func (s *TrialService) present(t *trial.Trial, now time.Time) *trial.Trial {
	if t.Status == trial.StatusActive && !now.Before(t.ExpiresAt) {
		t.Status = trial.StatusExpired
	}
	t.DaysRemaining = t.DaysRemainingAt(now)
	return t
}

// Start begins the one free trial a user may have for a product
func (s *TrialService) Start(ctx context.Context, userID, productID int64) (*trial.Trial, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive || !p.TrialEnabled {
		return nil, errors.BadRequest("This product does not offer a free trial")
	}

	if _, err := s.repo.GetByUserProduct(ctx, userID, productID); err == nil {
		return nil, errors.Conflict("You have already used your free trial for this product")
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	grant, err := s.access.HasAccess(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if grant.Allowed && grant.Reason != access.ReasonAdmin {
		return nil, errors.Conflict("You already have access to this product")
	}

	now := s.now()
	t := &trial.Trial{
		UserID:    userID,
		ProductID: productID,
		Status:    trial.StatusActive,
		StartedAt: now,
		ExpiresAt: now.AddDate(0, 0, s.cfg.DurationDays),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	t.ProductName = p.Name

	metrics.RecordTrialEvent("started", 1)
	if err := s.publisher.Publish(ctx, events.TrialStarted, map[string]interface{}{
		"trialId":   t.ID,
		"userId":    userID,
		"productId": productID,
		"expiresAt": t.ExpiresAt,
	}); err != nil {
		s.logger.WarnWithErr(err, "Failed to publish trial.started")
	}

	s.logger.WithFields(map[string]interface{}{
		"trial_id":   t.ID,
		"user_id":    userID,
		"product_id": productID,
	}).Info("Trial started")
	return s.present(t, now), nil
}

// ListMine lists the user's trials
func (s *TrialService) ListMine(ctx context.Context, userID int64) ([]*trial.Trial, error) {
	trials, _, err := s.repo.List(ctx, trial.Filter{UserID: userID})
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, t := range trials {
		s.present(t, now)
	}
	return trials, nil
}

// GetMine returns the user's trial for a product
func (s *TrialService) GetMine(ctx context.Context, userID, productID int64) (*trial.Trial, error) {
	t, err := s.repo.GetByUserProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return s.present(t, s.now()), nil
}

// CheckAccess combines the access decision with the user's trial state
func (s *TrialService) CheckAccess(ctx context.Context, userID, productID int64) (*trial.AccessStatus, error) {
	grant, err := s.access.HasAccess(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	status := &trial.AccessStatus{
		ProductID: productID,
		HasAccess: grant.Allowed,
		Reason:    grant.Reason,
	}

	t, err := s.repo.GetByUserProduct(ctx, userID, productID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if t != nil {
		s.present(t, s.now())
		status.TrialStatus = t.Status
		status.DaysRemaining = t.DaysRemaining
	}
	return status, nil
}

// ListAll lists trials for administrators
func (s *TrialService) ListAll(ctx context.Context, filter trial.Filter) ([]*trial.Trial, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, errors.BadRequest("Invalid trial status")
	}
	now := s.now()
	filter.AsOf = now
	trials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range trials {
		s.present(t, now)
	}
	return trials, total, nil
}

// Stats counts trials per status and the conversion rate
func (s *TrialService) Stats(ctx context.Context) (*trial.Stats, error) {
	counts, err := s.repo.CountByStatus(ctx, s.now())
	if err != nil {
		return nil, err
	}
	stats := &trial.Stats{ByStatus: map[trial.Status]int64{}}
	for _, st := range []trial.Status{trial.StatusActive, trial.StatusExpired, trial.StatusConverted, trial.StatusCancelled} {
		stats.ByStatus[st] = counts[st]
		stats.Total += counts[st]
	}
	stats.ComputeConversionRate()
	return stats, nil
}

// Extend moves the expiry out; expired trials come back when the new expiry is in the future
func (s *TrialService) Extend(ctx context.Context, id int64, days int) (*trial.Trial, error) {
	if days < 1 || days > MaxTrialExtensionDays {
		return nil, errors.BadRequest("Days must be between 1 and 365")
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != trial.StatusActive && t.Status != trial.StatusExpired {
		return nil, errors.InvalidTransition("trial", string(t.Status), "extend")
	}

	now := s.now()
	t.ExpiresAt = t.ExpiresAt.AddDate(0, 0, days)
	if t.ExpiresAt.After(now) {
		t.Status = trial.StatusActive
		t.ReminderSentAt = nil
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	metrics.RecordTrialEvent("extended", 1)
	s.logger.WithFields(map[string]interface{}{
		"trial_id": id,
		"days":     days,
	}).Info("Trial extended")
	return s.present(t, now), nil
}

// Cancel ends an active trial early
func (s *TrialService) Cancel(ctx context.Context, id int64) (*trial.Trial, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != trial.StatusActive {
		return nil, errors.InvalidTransition("trial", string(t.Status), "cancel")
	}

	now := s.now()
	t.Status = trial.StatusCancelled
	t.CancelledAt = &now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	metrics.RecordTrialEvent("cancelled", 1)
	return s.present(t, now), nil
}

// Convert marks the user's active or lapsed trial for the product as converted
func (s *TrialService) Convert(ctx context.Context, userID, productID int64) error {
	t, err := s.repo.GetByUserProduct(ctx, userID, productID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if t.Status != trial.StatusActive && t.Status != trial.StatusExpired {
		return nil
	}

	now := s.now()
	t.Status = trial.StatusConverted
	t.ConvertedAt = &now
	if err := s.repo.Update(ctx, t); err != nil {
		return err
	}

	metrics.RecordTrialEvent("converted", 1)
	s.logger.WithFields(map[string]interface{}{
		"trial_id": t.ID,
		"user_id":  userID,
	}).Info("Trial converted")
	return nil
}

// ExpireDue expires overdue trials
func (s *TrialService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, t := range expired {
		if err := s.publisher.Publish(ctx, events.TrialExpired, map[string]interface{}{
			"trialId":   t.ID,
			"userId":    t.UserID,
			"productId": t.ProductID,
		}); err != nil {
			s.logger.WarnWithErr(err, "Failed to publish trial.expired")
		}
	}

	if len(expired) > 0 {
		metrics.RecordTrialEvent("expired", len(expired))
		s.logger.WithFields(map[string]interface{}{"count": len(expired)}).Info("Trials expired")
	}
	return len(expired), nil
}

// SendReminders mails each trial expiring within the reminder window once
func (s *TrialService) SendReminders(ctx context.Context, now time.Time) (int, error) {
	if s.cfg.ReminderDays == 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, s.cfg.ReminderDays)

	due, err := s.repo.DueForReminder(ctx, now, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, t := range due {
		if t.UserEmail == "" {
			continue
		}
		msg := mailer.TrialReminder(t.UserEmail, t.ProductName, t.ExpiresAt, t.DaysRemainingAt(now))
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.WithFields(map[string]interface{}{"trial_id": t.ID}).ErrorWithErr(err, "Failed to send trial reminder")
			continue
		}

		sentAt := now
		t.ReminderSentAt = &sentAt
		if err := s.repo.Update(ctx, t); err != nil {
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		metrics.RecordTrialEvent("reminded", sent)
	}
	return sent, nil
}
