package analytics

import (
	"encoding/json"
	"time"
)

// EventType classifies tracked events
type EventType string

const (
	EventPageView         EventType = "page_view"
	EventClick            EventType = "click"
	EventSignup           EventType = "signup"
	EventLogin            EventType = "login"
	EventPurchase         EventType = "purchase"
	EventTrialStart       EventType = "trial_start"
	EventVideoPlay        EventType = "video_play"
	EventNewsletterSignup EventType = "newsletter_signup"
	EventCustom           EventType = "custom"
)

// NormalizeType maps unknown event types to custom
func NormalizeType(t string) EventType {
	switch et := EventType(t); et {
	case EventPageView, EventClick, EventSignup, EventLogin, EventPurchase,
		EventTrialStart, EventVideoPlay, EventNewsletterSignup, EventCustom:
		return et
	}
	return EventCustom
}

// MaxPathLength bounds stored paths and referrers
const MaxPathLength = 512

// Event is a single tracked client interaction
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId"`
	UserID    *int64          `json:"userId,omitempty"`
	Type      EventType       `json:"type"`
	Path      string          `json:"path"`
	Referrer  string          `json:"referrer,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PageCount is a path with its view count
type PageCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// DayCount is a per-day event count
type DayCount struct {
	Day    string `json:"day"`
	Events int64  `json:"events"`
}

// Stats aggregates events over a window
type Stats struct {
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	TotalEvents    int64               `json:"totalEvents"`
	PageViews      int64               `json:"pageViews"`
	UniqueSessions int64               `json:"uniqueSessions"`
	UniqueUsers    int64               `json:"uniqueUsers"`
	TopPages       []PageCount         `json:"topPages"`
	ByType         map[EventType]int64 `json:"byType"`
	Daily          []DayCount          `json:"daily"`
}

// Overview is the admin dashboard summary
type Overview struct {
	TotalUsers            int64            `json:"totalUsers"`
	ActiveSubscriptions   int64            `json:"activeSubscriptions"`
	ActiveTrials          int64            `json:"activeTrials"`
	PaidOrders            int64            `json:"paidOrders"`
	RevenueByCurrency     map[string]int64 `json:"revenueByCurrency"`
	NewsletterSubscribers int64            `json:"newsletterSubscribers"`
}
