package client

import "time"

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int    `json:"page,omitempty"`      // Page number (1-based)
	PageSize int    `json:"page_size,omitempty"` // Items per page
	Search   string `json:"search,omitempty"`    // Search query, where supported
}

// PageInfo describes the page a list response carries
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// User represents an account
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Phone       *string    `json:"phone,omitempty"`
	Country     *string    `json:"country,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Product represents a catalog entry
type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	Type            string    `json:"type"` // bot, course, subscription, indicator
	PriceCents      int64     `json:"priceCents"`
	Currency        string    `json:"currency"`
	BillingInterval string    `json:"billingInterval"`
	TrialEnabled    bool      `json:"trialEnabled"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	Features        []string  `json:"features"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Order represents a purchase
type Order struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"userId"`
	ProductID        int64      `json:"productId"`
	ProductName      string     `json:"productName,omitempty"`
	UserEmail        string     `json:"userEmail,omitempty"`
	AmountCents      int64      `json:"amountCents"`
	Currency         string     `json:"currency"`
	PaymentMethod    string     `json:"paymentMethod"`
	Status           string     `json:"status"` // pending, paid, cancelled, refunded
	PaymentReference *string    `json:"paymentReference,omitempty"`
	CheckoutURL      *string    `json:"checkoutUrl,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Checkout is the result of placing an order
type Checkout struct {
	Order       *Order  `json:"order"`
	CheckoutURL *string `json:"checkoutUrl,omitempty"`
}

// OrderStats summarizes orders and revenue
type OrderStats struct {
	TotalOrders       int64            `json:"totalOrders"`
	ByStatus          map[string]int64 `json:"byStatus"`
	ByPaymentMethod   map[string]int64 `json:"byPaymentMethod"`
	RevenueByCurrency map[string]int64 `json:"revenueByCurrency"`
	RevenueLast30Days map[string]int64 `json:"revenueLast30Days"`
}

// Subscription represents recurring access to a product
type Subscription struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	ProductID          int64      `json:"productId"`
	OrderID            *int64     `json:"orderId,omitempty"`
	ProductName        string     `json:"productName,omitempty"`
	UserEmail          string     `json:"userEmail,omitempty"`
	Status             string     `json:"status"` // active, paused, cancelled, expired
	Interval           string     `json:"interval"`
	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `json:"currentPeriodEnd"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	DaysRemaining      int        `json:"daysRemaining"`
}

// Trial represents a free trial
type Trial struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	ProductID     int64      `json:"productId"`
	ProductName   string     `json:"productName,omitempty"`
	UserEmail     string     `json:"userEmail,omitempty"`
	Status        string     `json:"status"` // active, expired, converted, cancelled
	StartedAt     time.Time  `json:"startedAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	ConvertedAt   *time.Time `json:"convertedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
}

// TrialStats counts trials per status
type TrialStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ConversionRate float64          `json:"conversionRate"`
}

// AccessStatus reports whether the caller may use a product
type AccessStatus struct {
	ProductID     int64  `json:"productId"`
	HasAccess     bool   `json:"hasAccess"`
	Reason        string `json:"reason"` // admin, purchase, subscription, trial, none
	TrialStatus   string `json:"trialStatus,omitempty"`
	DaysRemaining int    `json:"daysRemaining"`
}

// Subscriber represents a newsletter subscriber
type Subscriber struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Name           *string    `json:"name,omitempty"`
	Status         string     `json:"status"` // subscribed, unsubscribed
	Source         string     `json:"source"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
}

// Message represents a newsletter message
type Message struct {
	ID             int64      `json:"id"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Status         string     `json:"status"` // draft, sending, sent, failed
	RecipientCount int        `json:"recipientCount"`
	SentCount      int        `json:"sentCount"`
	FailedCount    int        `json:"failedCount"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// PageCount is the view count of one path
type PageCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// DayCount is the event count of one day
type DayCount struct {
	Day    string `json:"day"`
	Events int64  `json:"events"`
}

// AnalyticsStats aggregates tracked events over a window
type AnalyticsStats struct {
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	TotalEvents    int64            `json:"totalEvents"`
	PageViews      int64            `json:"pageViews"`
	UniqueSessions int64            `json:"uniqueSessions"`
	UniqueUsers    int64            `json:"uniqueUsers"`
	TopPages       []PageCount      `json:"topPages"`
	ByType         map[string]int64 `json:"byType"`
	Daily          []DayCount       `json:"daily"`
}

// Dashboard is the admin overview
type Dashboard struct {
	TotalUsers            int64            `json:"totalUsers"`
	ActiveSubscriptions   int64            `json:"activeSubscriptions"`
	ActiveTrials          int64            `json:"activeTrials"`
	PaidOrders            int64            `json:"paidOrders"`
	RevenueByCurrency     map[string]int64 `json:"revenueByCurrency"`
	NewsletterSubscribers int64            `json:"newsletterSubscribers"`
}
