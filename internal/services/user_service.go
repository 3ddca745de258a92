package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/auth"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

// UserServiceConfig holds account settings
type UserServiceConfig struct {
	BCryptCost       int
	ResetTokenExpiry time.Duration
	FrontendURL      string
}

// UserService implements user.Service
type UserService struct {
	repo      user.Repository
	mailer    mailer.Mailer
	publisher events.Publisher
	cfg       UserServiceConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, m mailer.Mailer, pub events.Publisher, cfg UserServiceConfig, log *logger.Logger) user.Service {
	if cfg.ResetTokenExpiry <= 0 {
		cfg.ResetTokenExpiry = time.Hour
	}
	return &UserService{
		repo:      repo,
		mailer:    m,
		publisher: pub,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// Register creates a customer account
func (s *UserService) Register(ctx context.Context, email, password, name string) (*user.User, error) {
	u, err := s.create(ctx, email, password, name, user.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.UserRegistered, map[string]interface{}{
		"userId": u.ID,
		"email":  u.Email,
	}); err != nil {
		s.logger.WarnWithErr(err, "Failed to publish user.registered")
	}
	return u, nil
}

func (s *UserService) create(ctx context.Context, email, password, name, role string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, errors.BadRequest("Email is required")
	}
	if err := checkPasswordLength(password); err != nil {
		return nil, err
	}
	if !user.ValidRole(role) {
		return nil, errors.BadRequest("Invalid role")
	}

	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.cfg.BCryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &user.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("User created")

	return u, nil
}

// ensureEmailFree returns Conflict if email belongs to a user other than selfID
func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil && existing.ID != selfID {
		return errors.Conflict("Email is already registered")
	}
	if err != nil && !errors.IsNotFound(err) {
		return err
	}
	return nil
}

// Authenticate checks credentials; the same error covers every failure
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	invalid := errors.Unauthorized("Invalid email or password")

	u, err := s.repo.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, invalid
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.WarnWithErr(err, "Failed to record last login")
	}
	return u, nil
}

// AuthenticateAdmin checks credentials and requires the admin role
func (s *UserService) AuthenticateAdmin(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, errors.Forbidden("Administrator access required")
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, user.NormalizeEmail(email))
}

// UpdateProfile applies self-service changes
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd user.ProfileUpdate) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		email := user.NormalizeEmail(*upd.Email)
		if email == "" {
			return nil, errors.BadRequest("Email cannot be empty")
		}
		if email != u.Email {
			if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Phone != nil {
		u.Phone = emptyToNil(*upd.Phone)
	}
	if upd.Country != nil {
		u.Country = emptyToNil(*upd.Country)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return errors.Unauthorized("Current password is incorrect")
	}
	if err := s.setPassword(u, next); err != nil {
		return err
	}
	return s.repo.Update(ctx, u)
}

func (s *UserService) setPassword(u *user.User, password string) error {
	if err := checkPasswordLength(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.cfg.BCryptCost)
	if err != nil {
		return errors.Internal("Failed to hash password", err)
	}
	u.PasswordHash = hash
	return nil
}

// RequestPasswordReset stores a reset token and mails a link; unknown emails succeed silently
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}

	token, err := auth.RandomToken(32)
	if err != nil {
		return errors.Internal("Failed to generate reset token", err)
	}
	expires := s.now().Add(s.cfg.ResetTokenExpiry)
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expires
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	link := strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.Send(ctx, mailer.PasswordReset(u.Email, u.Name, link)); err != nil {
		s.logger.WithFields(map[string]interface{}{"user_id": u.ID}).ErrorWithErr(err, "Failed to send password reset email")
	}
	return nil
}

// ResetPassword sets a new password with a valid, unexpired token
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	invalid := errors.BadRequest("Invalid or expired reset token")
	if token == "" {
		return invalid
	}

	u, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return invalid
		}
		return err
	}
	if u.ResetTokenExpiresAt == nil || !s.now().Before(*u.ResetTokenExpiresAt) {
		return invalid
	}

	if err := s.setPassword(u, password); err != nil {
		return err
	}
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return s.repo.Update(ctx, u)
}

// List lists users for administrators
func (s *UserService) List(ctx context.Context, filter user.Filter) ([]*user.User, int64, error) {
	if filter.Role != "" && !user.ValidRole(filter.Role) {
		return nil, 0, errors.BadRequest("Invalid role filter")
	}
	return s.repo.List(ctx, filter)
}

// AdminCreate creates an account with an explicit role
func (s *UserService) AdminCreate(ctx context.Context, email, password, name, role string) (*user.User, error) {
	if role == "" {
		role = user.RoleUser
	}
	return s.create(ctx, email, password, name, role)
}

// AdminUpdate changes any account; administrators cannot demote or deactivate themselves
func (s *UserService) AdminUpdate(ctx context.Context, actorID, id int64, upd user.AdminUpdate) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Role != nil {
		if !user.ValidRole(*upd.Role) {
			return nil, errors.BadRequest("Invalid role")
		}
		if actorID == id && *upd.Role != user.RoleAdmin {
			return nil, errors.Forbidden("You cannot remove your own admin role")
		}
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		if actorID == id && !*upd.IsActive {
			return nil, errors.Forbidden("You cannot deactivate your own account")
		}
		u.IsActive = *upd.IsActive
	}
	if upd.Email != nil {
		email := user.NormalizeEmail(*upd.Email)
		if email == "" {
			return nil, errors.BadRequest("Email cannot be empty")
		}
		if email != u.Email {
			if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Password != nil {
		if err := s.setPassword(u, *upd.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"actor_id": actorID,
		"user_id":  id,
	}).Info("User updated by admin")
	return u, nil
}

// Delete removes an account; administrators cannot delete themselves
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return errors.Forbidden("You cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"actor_id": actorID,
		"user_id":  id,
	}).Info("User deleted")
	return nil
}

// EnsureAdmin creates the admin account or promotes and re-keys an existing one
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return s.create(ctx, email, password, name, user.RoleAdmin)
		}
		return nil, err
	}

	u.Role = user.RoleAdmin
	u.IsActive = true
	if err := s.setPassword(u, password); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// checkPasswordLength counts bytes, which is what bcrypt limits
func checkPasswordLength(password string) error {
	if len(password) < user.MinPasswordLength {
		return errors.BadRequest("Password must be at least 8 characters")
	}
	if len(password) > user.MaxPasswordBytes {
		return errors.BadRequest("Password is too long")
	}
	return nil
}

func emptyToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
