package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spartanofurioso/platform/internal/auth"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(repo user.Repository, m *testutil.MockMailer, pub *testutil.MockPublisher) *UserService {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return NewUserService(repo, m, pub, UserServiceConfig{
		BCryptCost:  bcrypt.MinCost,
		FrontendURL: "https://spartanofurioso.com",
	}, log).(*UserService)
}

func TestUserService_Register(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	pub := testutil.NewMockPublisher()
	service := newUserService(mockRepo, testutil.NewMockMailer(), pub)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{
			name:     "successful registration",
			email:    "Test@Example.com",
			password: "spartan-pass",
			wantErr:  false,
		},
		{
			name:     "duplicate email",
			email:    "test@example.com",
			password: "spartan-pass",
			wantErr:  true,
		},
		{
			name:     "short password",
			email:    "short@example.com",
			password: "123",
			wantErr:  true,
		},
		{
			name:     "empty email",
			email:    "  ",
			password: "spartan-pass",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			u, err := service.Register(ctx, tt.email, tt.password, "Leonidas")

			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if u.Email != strings.ToLower(strings.TrimSpace(tt.email)) {
					t.Errorf("Register() email = %v, want normalized", u.Email)
				}
				if u.Role != user.RoleUser {
					t.Errorf("Register() role = %v, want %v", u.Role, user.RoleUser)
				}
				if u.PasswordHash == tt.password {
					t.Error("Register() stored plaintext password")
				}
			}
		})
	}

	if len(pub.Events) != 1 || pub.Events[0].Type != events.UserRegistered {
		t.Errorf("expected one user.registered event, got %v", pub.Types())
	}
}

func TestUserService_Authenticate(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	service := newUserService(mockRepo, testutil.NewMockMailer(), testutil.NewMockPublisher())
	ctx := context.Background()

	if _, err := service.Register(ctx, "user@example.com", "spartan-pass", "User"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := service.AdminCreate(ctx, "admin@example.com", "admin-pass", "Admin", user.RoleAdmin); err != nil {
		t.Fatalf("AdminCreate() error = %v", err)
	}
	disabled, _ := service.Register(ctx, "gone@example.com", "spartan-pass", "Gone")
	disabled.IsActive = false

	tests := []struct {
		name     string
		email    string
		password string
		admin    bool
		wantCode string
	}{
		{name: "valid credentials", email: "user@example.com", password: "spartan-pass"},
		{name: "email is case-insensitive", email: "USER@example.com", password: "spartan-pass"},
		{name: "wrong password", email: "user@example.com", password: "nope", wantCode: errors.ErrCodeUnauthorized},
		{name: "unknown email", email: "who@example.com", password: "spartan-pass", wantCode: errors.ErrCodeUnauthorized},
		{name: "inactive account", email: "gone@example.com", password: "spartan-pass", wantCode: errors.ErrCodeUnauthorized},
		{name: "admin login", email: "admin@example.com", password: "admin-pass", admin: true},
		{name: "admin login as customer", email: "user@example.com", password: "spartan-pass", admin: true, wantCode: errors.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.admin {
				_, err = service.AuthenticateAdmin(ctx, tt.email, tt.password)
			} else {
				_, err = service.Authenticate(ctx, tt.email, tt.password)
			}

			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %v", err, tt.wantCode)
			}
		})
	}
}

func TestUserService_PasswordReset(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	mail := testutil.NewMockMailer()
	service := newUserService(mockRepo, mail, testutil.NewMockPublisher())
	ctx := context.Background()

	u, err := service.Register(ctx, "user@example.com", "spartan-pass", "User")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := service.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Errorf("unknown email should succeed silently, got %v", err)
	}
	if len(mail.Messages()) != 0 {
		t.Fatal("no mail expected for unknown email")
	}

	if err := service.RequestPasswordReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	msgs := mail.Messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].HTML, "https://spartanofurioso.com/reset-password?token=") {
		t.Fatalf("expected reset mail with link, got %+v", msgs)
	}
	token := *u.ResetToken

	if err := service.ResetPassword(ctx, "wrong-token", "new-password"); err == nil {
		t.Error("expected error for wrong token")
	}
	if err := service.ResetPassword(ctx, token, "short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := service.ResetPassword(ctx, token, "new-password"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if u.ResetToken != nil {
		t.Error("reset token should be cleared")
	}
	if err := service.ResetPassword(ctx, token, "another-password"); err == nil {
		t.Error("token must be single use")
	}
	if _, err := service.Authenticate(ctx, "user@example.com", "new-password"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}

	// expired tokens are rejected
	if err := service.RequestPasswordReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := service.ResetPassword(ctx, *u.ResetToken, "late-password"); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestUserService_AdminGuards(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	service := newUserService(mockRepo, testutil.NewMockMailer(), testutil.NewMockPublisher())
	ctx := context.Background()

	admin, _ := service.AdminCreate(ctx, "admin@example.com", "admin-pass", "Admin", user.RoleAdmin)
	customer, _ := service.Register(ctx, "user@example.com", "spartan-pass", "User")

	roleUser := user.RoleUser
	inactive := false
	taken := "user@example.com"

	tests := []struct {
		name     string
		targetID int64
		upd      user.AdminUpdate
		wantCode string
	}{
		{name: "self demotion", targetID: admin.ID, upd: user.AdminUpdate{Role: &roleUser}, wantCode: errors.ErrCodeForbidden},
		{name: "self deactivation", targetID: admin.ID, upd: user.AdminUpdate{IsActive: &inactive}, wantCode: errors.ErrCodeForbidden},
		{name: "email taken", targetID: admin.ID, upd: user.AdminUpdate{Email: &taken}, wantCode: errors.ErrCodeConflict},
		{name: "deactivate customer", targetID: customer.ID, upd: user.AdminUpdate{IsActive: &inactive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AdminUpdate(ctx, admin.ID, tt.targetID, tt.upd)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %v", err, tt.wantCode)
			}
		})
	}

	if err := service.Delete(ctx, admin.ID, admin.ID); !errors.IsCode(err, errors.ErrCodeForbidden) {
		t.Errorf("self delete should be forbidden, got %v", err)
	}
	if err := service.Delete(ctx, admin.ID, customer.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := service.GetByID(ctx, customer.ID); !errors.IsNotFound(err) {
		t.Errorf("deleted user should be not found, got %v", err)
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	service := newUserService(mockRepo, testutil.NewMockMailer(), testutil.NewMockPublisher())
	ctx := context.Background()

	created, err := service.EnsureAdmin(ctx, "boss@example.com", "first-pass", "Boss")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if !created.IsAdmin() {
		t.Error("EnsureAdmin() should create an admin")
	}

	again, err := service.EnsureAdmin(ctx, "boss@example.com", "second-pass", "Boss")
	if err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if again.ID != created.ID {
		t.Error("EnsureAdmin() should reuse the account")
	}
	if !auth.CheckPassword(again.PasswordHash, "second-pass") {
		t.Error("EnsureAdmin() should rotate the password")
	}
}

func TestUserService_ProfileAndPassword(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	service := newUserService(mockRepo, testutil.NewMockMailer(), testutil.NewMockPublisher())
	ctx := context.Background()

	u, err := service.Register(ctx, "leo@example.com", "spartan-pass", "Leo")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := service.Register(ctx, "taken@example.com", "spartan-pass", "Other"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	taken := "Taken@Example.com"
	if _, err := service.UpdateProfile(ctx, u.ID, user.ProfileUpdate{Email: &taken}); !errors.IsCode(err, errors.ErrCodeConflict) {
		t.Errorf("UpdateProfile() duplicate email error = %v, want conflict", err)
	}

	name, email, phone, country := "  Leonidas ", "king@example.com", " ", "GR"
	updated, err := service.UpdateProfile(ctx, u.ID, user.ProfileUpdate{Name: &name, Email: &email, Phone: &phone, Country: &country})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "Leonidas" || updated.Email != "king@example.com" {
		t.Errorf("UpdateProfile() = %q <%s>", updated.Name, updated.Email)
	}
	if updated.Phone != nil {
		t.Errorf("blank phone should clear the field, got %q", *updated.Phone)
	}
	if updated.Country == nil || *updated.Country != "GR" {
		t.Errorf("country not stored")
	}
	if _, err := service.GetByEmail(ctx, "leo@example.com"); !errors.IsNotFound(err) {
		t.Errorf("old email still resolves: %v", err)
	}

	if err := service.ChangePassword(ctx, u.ID, "wrong-pass", "new-spartan-pass"); !errors.IsCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("ChangePassword() wrong current error = %v", err)
	}
	if err := service.ChangePassword(ctx, u.ID, "spartan-pass", "short"); !errors.IsCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("ChangePassword() short password error = %v", err)
	}
	if err := service.ChangePassword(ctx, u.ID, "spartan-pass", "new-spartan-pass"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := service.Authenticate(ctx, "king@example.com", "new-spartan-pass"); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
}

func TestUserService_PasswordByteLimit(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	service := newUserService(mockRepo, testutil.NewMockMailer(), testutil.NewMockPublisher())
	ctx := context.Background()

	// 40 runes but 80 bytes
	long := strings.Repeat("é", 40)

	_, err := service.Register(ctx, "accent@example.com", long, "Accent")
	if !errors.IsCode(err, errors.ErrCodeBadRequest) {
		t.Fatalf("Register() error = %v, want bad request", err)
	}
	if status := errors.From(err).StatusCode; status != 400 {
		t.Errorf("Register() status = %d, want 400", status)
	}

	u, err := service.Register(ctx, "accent@example.com", strings.Repeat("é", 36), "Accent")
	if err != nil {
		t.Fatalf("Register() with 72 bytes error = %v", err)
	}
	if err := service.ChangePassword(ctx, u.ID, strings.Repeat("é", 36), long); !errors.IsCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("ChangePassword() error = %v, want bad request", err)
	}
}
