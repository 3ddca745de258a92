package subscription

import (
	"math"
	"time"
)

// Status is the lifecycle state of a subscription
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsLive reports whether the subscription still holds a seat
func (s Status) IsLive() bool {
	return s == StatusActive || s == StatusPaused
}

var transitions = map[Status][]Status{
	StatusActive: {StatusPaused, StatusCancelled, StatusExpired},
	StatusPaused: {StatusActive, StatusCancelled},
}

// CanTransition reports whether a subscription may move between statuses
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Subscription grants recurring access to a product
type Subscription struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	ProductID          int64      `json:"productId"`
	OrderID            *int64     `json:"orderId,omitempty"`
	ProductName        string     `json:"productName,omitempty"`
	UserEmail          string     `json:"userEmail,omitempty"`
	Status             Status     `json:"status"`
	Interval           string     `json:"interval"`
	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `json:"currentPeriodEnd"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	DaysRemaining      int        `json:"daysRemaining"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Intervals
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// PeriodEnd returns the end of a billing period starting at start
func PeriodEnd(start time.Time, interval string) time.Time {
	if interval == IntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// ComputeDaysRemaining fills DaysRemaining relative to now
func (s *Subscription) ComputeDaysRemaining(now time.Time) {
	end := s.CurrentPeriodEnd
	if s.Status == StatusPaused && s.PausedAt != nil {
		// the clock stops while paused
		end = end.Add(now.Sub(*s.PausedAt))
	}
	if !s.Status.IsLive() {
		s.DaysRemaining = 0
		return
	}
	s.DaysRemaining = DaysUntil(now, end)
}

// DaysUntil returns whole days from now until t, rounded up and floored at zero
func DaysUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// Filter narrows subscription listings
type Filter struct {
	UserID    int64
	ProductID int64
	Status    Status
	Limit     int
	Offset    int
}
