package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetToken retrieves a user by password reset token
	GetByResetToken(ctx context.Context, token string) (*User, error)

	// Update updates a user, including password hash and reset token
	Update(ctx context.Context, user *User) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error

	// List retrieves users matching the filter with the total count
	List(ctx context.Context, filter Filter) ([]*User, int64, error)

	// Count returns the number of users with the given role, or all users when role is empty
	Count(ctx context.Context, role string) (int64, error)
}
