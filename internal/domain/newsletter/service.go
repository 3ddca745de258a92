package newsletter

import "context"

// Dispatcher hands a message off for asynchronous delivery
type Dispatcher interface {
	Dispatch(ctx context.Context, messageID int64) error
}

// Service defines the newsletter operations
type Service interface {
	Subscribe(ctx context.Context, email string, name *string, source string) (*Subscriber, error)
	Unsubscribe(ctx context.Context, token string) error

	ListSubscribers(ctx context.Context, filter SubscriberFilter) ([]*Subscriber, int64, error)
	DeleteSubscriber(ctx context.Context, id int64) error

	CreateMessage(ctx context.Context, createdBy int64, subject, body string) (*Message, error)
	UpdateMessage(ctx context.Context, id int64, subject, body *string) (*Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	ListMessages(ctx context.Context, limit, offset int) ([]*Message, int64, error)
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// Send moves a draft or failed message to sending and dispatches delivery
	Send(ctx context.Context, id int64) (*Message, error)

	// Deliver mails a sending message to every subscriber and records the outcome
	Deliver(ctx context.Context, id int64) (*Message, error)
}
