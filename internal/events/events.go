package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

// Routing keys of domain events
const (
	UserRegistered        = "user.registered"
	OrderPaid             = "order.paid"
	OrderCancelled        = "order.cancelled"
	OrderRefunded         = "order.refunded"
	OrderRefundRequired   = "order.refund_required"
	TrialStarted          = "trial.started"
	TrialExpired          = "trial.expired"
	SubscriptionCancelled = "subscription.cancelled"

	// NewsletterDeliver routes newsletter delivery jobs to the delivery queue
	NewsletterDeliver = "newsletter.deliver"
)

// Envelope wraps every published payload
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// NewEnvelope stamps a payload with an id and time
func NewEnvelope(eventType string, data interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close()
}

// LogPublisher logs events instead of sending them anywhere
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher creates a publisher used when no broker is configured
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs the event
func (p *LogPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	p.log.WithFields(map[string]interface{}{
		"event": eventType,
		"data":  data,
	}).Debug("Event published (log only)")
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() {}
