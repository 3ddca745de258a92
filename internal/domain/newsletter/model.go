package newsletter

import "time"

// SubscriberStatus tracks opt-in state
type SubscriberStatus string

const (
	SubscriberSubscribed   SubscriberStatus = "subscribed"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

// Subscriber is an email address on the mailing list
type Subscriber struct {
	ID               int64            `json:"id"`
	Email            string           `json:"email"`
	Name             *string          `json:"name,omitempty"`
	Status           SubscriberStatus `json:"status"`
	Source           string           `json:"source"`
	UnsubscribeToken string           `json:"-"`
	SubscribedAt     time.Time        `json:"subscribedAt"`
	UnsubscribedAt   *time.Time       `json:"unsubscribedAt,omitempty"`
}

// MessageStatus tracks the delivery state of a newsletter issue
type MessageStatus string

const (
	MessageDraft   MessageStatus = "draft"
	MessageSending MessageStatus = "sending"
	MessageSent    MessageStatus = "sent"
	MessageFailed  MessageStatus = "failed"
)

// CanSend reports whether a message in status s may be (re)sent
func (s MessageStatus) CanSend() bool {
	return s == MessageDraft || s == MessageFailed
}

// DeliveryStatus is the outcome of mailing one subscriber
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Message is a newsletter issue
type Message struct {
	ID             int64         `json:"id"`
	Subject        string        `json:"subject"`
	Body           string        `json:"body"`
	Status         MessageStatus `json:"status"`
	RecipientCount int           `json:"recipientCount"`
	SentCount      int           `json:"sentCount"`
	FailedCount    int           `json:"failedCount"`
	CreatedBy      int64         `json:"createdBy"`
	SentAt         *time.Time    `json:"sentAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// SubscriberFilter narrows subscriber listings
type SubscriberFilter struct {
	Status SubscriberStatus
	Search string
	Limit  int
	Offset int
}

// DefaultSource labels subscriptions that came without a source
const DefaultSource = "website"
