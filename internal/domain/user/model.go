package user

import (
	"strings"
	"time"
)

// User represents a customer or administrator account
type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	Phone               *string    `json:"phone,omitempty"`
	Country             *string    `json:"country,omitempty"`
	IsActive            bool       `json:"isActive"`
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt accepts, in bytes
const MaxPasswordBytes = 72

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Filter narrows admin user listings
type Filter struct {
	Search string
	Role   string
	Limit  int
	Offset int
}

// ProfileUpdate carries the fields a user may change on their own account
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Country *string
}

// AdminUpdate carries the fields an administrator may change on any account
type AdminUpdate struct {
	Name     *string
	Email    *string
	Role     *string
	IsActive *bool
	Password *string
}
