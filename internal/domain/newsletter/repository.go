package newsletter

import "context"

// Repository defines the interface for newsletter data access
type Repository interface {
	CreateSubscriber(ctx context.Context, s *Subscriber) error
	GetSubscriberByID(ctx context.Context, id int64) (*Subscriber, error)
	GetSubscriberByEmail(ctx context.Context, email string) (*Subscriber, error)
	GetSubscriberByToken(ctx context.Context, token string) (*Subscriber, error)
	UpdateSubscriber(ctx context.Context, s *Subscriber) error
	DeleteSubscriber(ctx context.Context, id int64) error
	ListSubscribers(ctx context.Context, filter SubscriberFilter) ([]*Subscriber, int64, error)

	// ActiveSubscribers returns every subscribed address
	ActiveSubscribers(ctx context.Context) ([]*Subscriber, error)
	CountSubscribers(ctx context.Context, status SubscriberStatus) (int64, error)

	CreateMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, id int64) (*Message, error)
	UpdateMessage(ctx context.Context, m *Message) error
	DeleteMessage(ctx context.Context, id int64) error
	ListMessages(ctx context.Context, limit, offset int) ([]*Message, int64, error)

	// BeginSending moves m to sending with fresh counters if it is still a draft or failed.
	// It reports false when the message was already picked up.
	BeginSending(ctx context.Context, m *Message) (bool, error)

	// DeliveredSubscribers returns the subscribers a message was already sent to
	DeliveredSubscribers(ctx context.Context, messageID int64) (map[int64]bool, error)
	RecordDelivery(ctx context.Context, messageID, subscriberID int64, status DeliveryStatus) error
}
