package user

import "context"

// Service defines the interface for account and authentication logic
type Service interface {
	// Register creates a customer account
	Register(ctx context.Context, email, password, name string) (*User, error)

	// Authenticate checks customer or admin credentials
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// AuthenticateAdmin checks credentials and requires the admin role
	AuthenticateAdmin(ctx context.Context, email, password string) (*User, error)

	// GetByID retrieves an active or inactive user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile applies self-service profile changes
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error)

	// ChangePassword replaces the password after checking the current one
	ChangePassword(ctx context.Context, id int64, current, next string) error

	// RequestPasswordReset issues a reset token and mails it, silently ignoring unknown emails
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword sets a new password using a reset token
	ResetPassword(ctx context.Context, token, password string) error

	// List lists users for the admin dashboard
	List(ctx context.Context, filter Filter) ([]*User, int64, error)

	// AdminCreate creates an account with an explicit role
	AdminCreate(ctx context.Context, email, password, name, role string) (*User, error)

	// AdminUpdate changes any account; actorID may not demote or deactivate itself
	AdminUpdate(ctx context.Context, actorID, id int64, upd AdminUpdate) (*User, error)

	// Delete removes an account; actorID may not delete itself
	Delete(ctx context.Context, actorID, id int64) error

	// EnsureAdmin creates the admin account if missing, or promotes an existing one
	EnsureAdmin(ctx context.Context, email, password, name string) (*User, error)
}
