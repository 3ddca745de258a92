package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

// deliveryTimeout bounds a single in-process newsletter run
const deliveryTimeout = 30 * time.Minute

// DeliveryJob is the payload of a newsletter delivery message
type DeliveryJob struct {
	MessageID int64 `json:"messageId"`
}

// InProcessDispatcher delivers newsletters on a background goroutine
type InProcessDispatcher struct {
	svc newsletter.Service
	log *logger.Logger
	wg  sync.WaitGroup
}

// NewInProcessDispatcher creates a dispatcher used when no broker is configured
func NewInProcessDispatcher(svc newsletter.Service, log *logger.Logger) *InProcessDispatcher {
	return &InProcessDispatcher{svc: svc, log: log}
}

// Dispatch starts delivery detached from the request context
func (d *InProcessDispatcher) Dispatch(ctx context.Context, messageID int64) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if _, err := d.svc.Deliver(runCtx, messageID); err != nil {
			d.log.With("message_id", messageID).ErrorWithErr(err, "Newsletter delivery failed")
		}
	}()
	return nil
}

// Wait blocks until running deliveries finish
func (d *InProcessDispatcher) Wait() {
	d.wg.Wait()
}

// QueueDispatcher publishes delivery jobs to the broker
type QueueDispatcher struct {
	publisher events.Publisher
}

// NewQueueDispatcher creates a dispatcher backed by the event publisher
func NewQueueDispatcher(pub events.Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: pub}
}

// Dispatch enqueues a delivery job
func (d *QueueDispatcher) Dispatch(ctx context.Context, messageID int64) error {
	return d.publisher.Publish(ctx, events.NewsletterDeliver, DeliveryJob{MessageID: messageID})
}

// NewsletterDeliveryHandler consumes delivery jobs from the queue
func NewsletterDeliveryHandler(svc newsletter.Service) events.Handler {
	return func(ctx context.Context, body []byte) error {
		var env struct {
			Data DeliveryJob `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("invalid delivery job: %w", err)
		}
		if env.Data.MessageID <= 0 {
			return fmt.Errorf("delivery job without message id")
		}
		_, err := svc.Deliver(ctx, env.Data.MessageID)
		return err
	}
}
