package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// NewsletterService implements newsletter.Service
type NewsletterService struct {
	repo        newsletter.Repository
	mailer      mailer.Mailer
	dispatcher  newsletter.Dispatcher
	frontendURL string
	logger      *logger.Logger
	now         func() time.Time
}

// NewNewsletterService creates a new newsletter service; a nil dispatcher delivers in-process
func NewNewsletterService(repo newsletter.Repository, m mailer.Mailer, dispatcher newsletter.Dispatcher, frontendURL string, log *logger.Logger) newsletter.Service {
	s := &NewsletterService{
		repo:        repo,
		mailer:      m,
		dispatcher:  dispatcher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      log,
		now:         time.Now,
	}
	if s.dispatcher == nil {
		s.dispatcher = NewInProcessDispatcher(s, log)
	}
	return s
}

// Subscribe adds an address or re-subscribes one that opted out
func (s *NewsletterService) Subscribe(ctx context.Context, email string, name *string, source string) (*newsletter.Subscriber, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, errors.BadRequest("Email is required")
	}
	if source = strings.TrimSpace(source); source == "" {
		source = newsletter.DefaultSource
	}
	if name != nil {
		name = emptyToNil(*name)
	}

	existing, err := s.repo.GetSubscriberByEmail(ctx, email)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	if existing != nil {
		if existing.Status == newsletter.SubscriberSubscribed {
			return existing, nil
		}
		existing.Status = newsletter.SubscriberSubscribed
		existing.SubscribedAt = now
		existing.UnsubscribedAt = nil
		if name != nil {
			existing.Name = name
		}
		if err := s.repo.UpdateSubscriber(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.With("subscriber_id", existing.ID).Info("Newsletter subscriber returned")
		return existing, nil
	}

	sub := &newsletter.Subscriber{
		Email:            email,
		Name:             name,
		Status:           newsletter.SubscriberSubscribed,
		Source:           source,
		UnsubscribeToken: uuid.NewString(),
		SubscribedAt:     now,
	}
	if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"subscriber_id": sub.ID,
		"source":        source,
	}).Info("Newsletter subscriber added")
	return sub, nil
}

// Unsubscribe opts an address out by its unsubscribe token
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.BadRequest("Unsubscribe token is required")
	}
	sub, err := s.repo.GetSubscriberByToken(ctx, token)
	if err != nil {
		return err
	}
	if sub.Status == newsletter.SubscriberUnsubscribed {
		return nil
	}

	now := s.now()
	sub.Status = newsletter.SubscriberUnsubscribed
	sub.UnsubscribedAt = &now
	return s.repo.UpdateSubscriber(ctx, sub)
}

// ListSubscribers lists subscribers
func (s *NewsletterService) ListSubscribers(ctx context.Context, filter newsletter.SubscriberFilter) ([]*newsletter.Subscriber, int64, error) {
	switch filter.Status {
	case "", newsletter.SubscriberSubscribed, newsletter.SubscriberUnsubscribed:
	default:
		return nil, 0, errors.BadRequest("Invalid subscriber status")
	}
	return s.repo.ListSubscribers(ctx, filter)
}

// DeleteSubscriber removes a subscriber
func (s *NewsletterService) DeleteSubscriber(ctx context.Context, id int64) error {
	return s.repo.DeleteSubscriber(ctx, id)
}

// CreateMessage creates a draft
func (s *NewsletterService) CreateMessage(ctx context.Context, createdBy int64, subject, body string) (*newsletter.Message, error) {
	subject, body = strings.TrimSpace(subject), strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, errors.BadRequest("Subject and body are required")
	}
	m := &newsletter.Message{
		Subject:   subject,
		Body:      body,
		Status:    newsletter.MessageDraft,
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMessage edits a draft
func (s *NewsletterService) UpdateMessage(ctx context.Context, id int64, subject, body *string) (*newsletter.Message, error) {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != newsletter.MessageDraft {
		return nil, errors.InvalidTransition("message", string(m.Status), "edit")
	}

	if subject != nil {
		if m.Subject = strings.TrimSpace(*subject); m.Subject == "" {
			return nil, errors.BadRequest("Subject cannot be empty")
		}
	}
	if body != nil {
		if m.Body = strings.TrimSpace(*body); m.Body == "" {
			return nil, errors.BadRequest("Body cannot be empty")
		}
	}
	if err := s.repo.UpdateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMessage deletes a draft
func (s *NewsletterService) DeleteMessage(ctx context.Context, id int64) error {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if m.Status != newsletter.MessageDraft {
		return errors.InvalidTransition("message", string(m.Status), "delete")
	}
	return s.repo.DeleteMessage(ctx, id)
}

// ListMessages lists messages newest first
func (s *NewsletterService) ListMessages(ctx context.Context, limit, offset int) ([]*newsletter.Message, int64, error) {
	return s.repo.ListMessages(ctx, limit, offset)
}

// GetMessage retrieves a message
func (s *NewsletterService) GetMessage(ctx context.Context, id int64) (*newsletter.Message, error) {
	return s.repo.GetMessage(ctx, id)
}

// Send moves a draft or failed message to sending and hands it to the dispatcher
func (s *NewsletterService) Send(ctx context.Context, id int64) (*newsletter.Message, error) {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.Status.CanSend() {
		return nil, errors.InvalidTransition("message", string(m.Status), "send")
	}

	recipients, err := s.repo.CountSubscribers(ctx, newsletter.SubscriberSubscribed)
	if err != nil {
		return nil, err
	}
	if recipients == 0 {
		return nil, errors.BadRequest("There are no subscribers to send to")
	}

	m.RecipientCount = int(recipients)
	claimed, err := s.repo.BeginSending(ctx, m)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current, err := s.repo.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, errors.InvalidTransition("message", string(current.Status), "send")
	}

	if err := s.dispatcher.Dispatch(ctx, m.ID); err != nil {
		s.logger.With("message_id", m.ID).ErrorWithErr(err, "Failed to dispatch newsletter")
		m.Status = newsletter.MessageFailed
		if uerr := s.repo.UpdateMessage(ctx, m); uerr != nil {
			s.logger.WarnWithErr(uerr, "Failed to mark newsletter as failed")
		}
		return nil, errors.ServiceUnavailable("Newsletter delivery is unavailable")
	}

	s.logger.WithFields(map[string]interface{}{
		"message_id": m.ID,
		"recipients": recipients,
	}).Info("Newsletter dispatched")
	return m, nil
}

// Deliver mails a sending message to every subscriber not yet reached; redelivered jobs
// for finished messages are no-ops and interrupted runs leave the message failed
func (s *NewsletterService) Deliver(ctx context.Context, id int64) (*newsletter.Message, error) {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != newsletter.MessageSending {
		s.logger.WithFields(map[string]interface{}{
			"message_id": id,
			"status":     m.Status,
		}).Warn("Skipping delivery of message not in sending state")
		return m, nil
	}

	subs, err := s.repo.ActiveSubscribers(ctx)
	if err != nil {
		return nil, s.abortDelivery(ctx, m, err)
	}
	delivered, err := s.repo.DeliveredSubscribers(ctx, m.ID)
	if err != nil {
		return nil, s.abortDelivery(ctx, m, err)
	}

	m.RecipientCount = len(subs)
	m.SentCount, m.FailedCount = 0, 0
	for _, sub := range subs {
		if delivered[sub.ID] {
			m.SentCount++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, s.abortDelivery(ctx, m, err)
		}

		msg := mailer.Message{
			To:      sub.Email,
			Subject: m.Subject,
			HTML:    mailer.WithUnsubscribe(m.Body, s.unsubscribeLink(sub.UnsubscribeToken)),
		}
		outcome := newsletter.DeliverySent
		if err := s.mailer.Send(ctx, msg); err != nil {
			outcome = newsletter.DeliveryFailed
			m.FailedCount++
			metrics.RecordNewsletterDelivery("failed")
			s.logger.WithFields(map[string]interface{}{
				"message_id":    m.ID,
				"subscriber_id": sub.ID,
			}).WarnWithErr(err, "Newsletter delivery failed")
		} else {
			m.SentCount++
			metrics.RecordNewsletterDelivery("sent")
		}

		if err := s.repo.RecordDelivery(context.WithoutCancel(ctx), m.ID, sub.ID, outcome); err != nil {
			return nil, s.abortDelivery(ctx, m, err)
		}
	}

	now := s.now()
	if m.SentCount == 0 && m.FailedCount > 0 {
		m.Status = newsletter.MessageFailed
	} else {
		m.Status = newsletter.MessageSent
		m.SentAt = &now
	}
	if err := s.repo.UpdateMessage(context.WithoutCancel(ctx), m); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"message_id": m.ID,
		"sent":       m.SentCount,
		"failed":     m.FailedCount,
		"status":     m.Status,
	}).Info("Newsletter delivered")
	return m, nil
}

// abortDelivery marks an interrupted delivery failed with the counts so far so it can be resent
func (s *NewsletterService) abortDelivery(ctx context.Context, m *newsletter.Message, cause error) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverySaveTimeout)
	defer cancel()

	m.Status = newsletter.MessageFailed
	if err := s.repo.UpdateMessage(saveCtx, m); err != nil {
		s.logger.With("message_id", m.ID).WarnWithErr(err, "Failed to mark interrupted newsletter as failed")
	}
	s.logger.WithFields(map[string]interface{}{
		"message_id": m.ID,
		"sent":       m.SentCount,
		"failed":     m.FailedCount,
	}).ErrorWithErr(cause, "Newsletter delivery interrupted")
	return cause
}

const deliverySaveTimeout = 10 * time.Second

func (s *NewsletterService) unsubscribeLink(token string) string {
	return s.frontendURL + "/newsletter/unsubscribe?token=" + url.QueryEscape(token)
}
