package dto

import (
	"time"

	"github.com/spartanofurioso/platform/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
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

// NewUserDTO maps a domain user to its API form
func NewUserDTO(u *user.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Phone:       u.Phone,
		Country:     u.Country,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// NewUserDTOs maps a slice of users
func NewUserDTOs(users []*user.User) []*UserDTO {
	out := make([]*UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserDTO(u))
	}
	return out
}

// UpdateProfileRequest represents a self-service profile update
type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Country *string `json:"country,omitempty" validate:"omitempty,max=80"`
}

// ToDomain converts the request to a profile update
func (r UpdateProfileRequest) ToDomain() user.ProfileUpdate {
	return user.ProfileUpdate{Name: r.Name, Email: r.Email, Phone: r.Phone, Country: r.Country}
}

// CreateUserRequest represents an admin account creation
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"omitempty,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest represents an admin account update
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"isActive,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// ToDomain converts the request to an admin update
func (r UpdateUserRequest) ToDomain() user.AdminUpdate {
	return user.AdminUpdate{Name: r.Name, Email: r.Email, Role: r.Role, IsActive: r.IsActive, Password: r.Password}
}
