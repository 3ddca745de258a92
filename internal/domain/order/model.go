package order

import "time"

// Status is the payment state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	MethodStripe PaymentMethod = "stripe"
	MethodPayPal PaymentMethod = "paypal"
	MethodCrypto PaymentMethod = "crypto"
)

// IsValid reports whether m is a supported payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodStripe, MethodPayPal, MethodCrypto:
		return true
	}
	return false
}

// transitions lists the allowed next states per state
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusRefunded},
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is a purchase of a single product
type Order struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"userId"`
	ProductID        int64         `json:"productId"`
	ProductName      string        `json:"productName,omitempty"`
	UserEmail        string        `json:"userEmail,omitempty"`
	AmountCents      int64         `json:"amountCents"`
	Currency         string        `json:"currency"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Status           Status        `json:"status"`
	PaymentReference *string       `json:"paymentReference,omitempty"`
	CheckoutURL      *string       `json:"checkoutUrl,omitempty"`
	PaidAt           *time.Time    `json:"paidAt,omitempty"`
	CancelledAt      *time.Time    `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Filter narrows order listings
type Filter struct {
	UserID    int64
	ProductID int64
	Status    Status
	Limit     int
	Offset    int
}

// Stats summarises orders for the admin dashboard
type Stats struct {
	TotalOrders       int64                   `json:"totalOrders"`
	ByStatus          map[Status]int64        `json:"byStatus"`
	ByPaymentMethod   map[PaymentMethod]int64 `json:"byPaymentMethod"`
	RevenueByCurrency map[string]int64        `json:"revenueByCurrency"`
	RevenueLast30Days map[string]int64        `json:"revenueLast30Days"`
}
