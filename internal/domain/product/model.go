package product

import (
	"regexp"
	"strings"
	"time"
)

// Type is the kind of thing sold
type Type string

const (
	TypeBot          Type = "bot"
	TypeCourse       Type = "course"
	TypeSubscription Type = "subscription"
	TypeIndicator    Type = "indicator"
)

// IsValid reports whether t is a known product type
func (t Type) IsValid() bool {
	switch t {
	case TypeBot, TypeCourse, TypeSubscription, TypeIndicator:
		return true
	}
	return false
}

// Billing intervals
const (
	IntervalOneTime = "one_time"
	IntervalMonth   = "month"
	IntervalYear    = "year"
)

// Product is an item in the storefront catalog
type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	Type            Type      `json:"type"`
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

// IsRecurring reports whether the product bills periodically
func (p *Product) IsRecurring() bool {
	return p.BillingInterval == IntervalMonth || p.BillingInterval == IntervalYear
}

// Filter narrows catalog listings
type Filter struct {
	Type       Type
	ActiveOnly bool
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a product name
func Slugify(name string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}
