package trial

import (
	"math"
	"time"
)

// Status is the lifecycle state of a trial
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusConverted, StatusCancelled:
		return true
	}
	return false
}

// DefaultDurationDays is the standard length of a free trial
const DefaultDurationDays = 60

// Trial is a time-boxed free access grant to a product
type Trial struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	ProductID      int64      `json:"productId"`
	ProductName    string     `json:"productName,omitempty"`
	UserEmail      string     `json:"userEmail,omitempty"`
	Status         Status     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	ConvertedAt    *time.Time `json:"convertedAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`
	DaysRemaining  int        `json:"daysRemaining"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DaysRemainingAt returns whole days left before expiry, rounded up and never negative
func (t *Trial) DaysRemainingAt(now time.Time) int {
	if t.Status != StatusActive {
		return 0
	}
	d := t.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// IsLive reports whether the trial grants access at now
func (t *Trial) IsLive(now time.Time) bool {
	return t.Status == StatusActive && now.Before(t.ExpiresAt)
}

// Filter narrows trial listings
type Filter struct {
	UserID    int64
	ProductID int64
	Status    Status
	// AsOf treats active trials past their expiry as expired when set.
	AsOf      time.Time
	Limit     int
	Offset    int
}

// Stats summarises trials for the admin dashboard
type Stats struct {
	Total          int64            `json:"total"`
	ByStatus       map[Status]int64 `json:"byStatus"`
	ConversionRate float64          `json:"conversionRate"`
}

// ComputeConversionRate sets ConversionRate from ByStatus as converted over finished trials
func (s *Stats) ComputeConversionRate() {
	finished := s.Total - s.ByStatus[StatusActive]
	if finished <= 0 {
		s.ConversionRate = 0
		return
	}
	s.ConversionRate = float64(s.ByStatus[StatusConverted]) / float64(finished)
}

// AccessStatus is the answer to "may this user use this product right now"
type AccessStatus struct {
	ProductID     int64  `json:"productId"`
	HasAccess     bool   `json:"hasAccess"`
	Reason        string `json:"reason"`
	TrialStatus   Status `json:"trialStatus,omitempty"`
	DaysRemaining int    `json:"daysRemaining"`
}
