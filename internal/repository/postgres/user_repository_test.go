package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/testutil"
)

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)

	tests := []struct {
		name     string
		user     *user.User
		wantCode string
	}{
		{
			name: "create user successfully",
			user: &user.User{
				Email:    "test@example.com",
				Name:     "Test",
				Role:     user.RoleUser,
				IsActive: true,
			},
		},
		{
			name: "create another user",
			user: &user.User{
				Email:    "another@example.com",
				Role:     user.RoleAdmin,
				IsActive: true,
			},
		},
		{
			name: "duplicate email",
			user: &user.User{
				Email:    "test@example.com",
				Role:     user.RoleUser,
				IsActive: true,
			},
			wantCode: errors.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			err := repo.Create(ctx, tt.user)

			if tt.wantCode != "" {
				if !errors.IsCode(err, tt.wantCode) {
					t.Errorf("Create() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if tt.user.ID == 0 {
				t.Error("Create() did not set user ID")
			}
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	phone := "+39 333 000000"
	u := &user.User{Email: "find@example.com", Name: "Finder", Role: user.RoleUser, Phone: &phone, IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByEmail(ctx, "find@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.Name != "Finder" {
		t.Errorf("GetByEmail() = %+v, want id %d", got, u.ID)
	}
	if got.Phone == nil || *got.Phone != phone {
		t.Errorf("GetByEmail() phone = %v, want %s", got.Phone, phone)
	}
	if got.Country != nil {
		t.Errorf("GetByEmail() country = %v, want nil", *got.Country)
	}

	if _, err := repo.GetByEmail(ctx, "missing@example.com"); !errors.IsNotFound(err) {
		t.Errorf("GetByEmail() missing error = %v, want not found", err)
	}
}

func TestUserRepository_UpdateAndResetToken(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "reset@example.com", Role: user.RoleUser, IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	token := "reset-token"
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expires
	u.Name = "Renamed"
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByResetToken(ctx, token)
	if err != nil {
		t.Fatalf("GetByResetToken() error = %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if got.ResetTokenExpiresAt == nil || !got.ResetTokenExpiresAt.Equal(expires) {
		t.Errorf("ResetTokenExpiresAt = %v, want %v", got.ResetTokenExpiresAt, expires)
	}

	missing := &user.User{ID: 9999, Email: "ghost@example.com", Role: user.RoleUser}
	if err := repo.Update(ctx, missing); !errors.IsNotFound(err) {
		t.Errorf("Update() missing error = %v, want not found", err)
	}
}

func TestUserRepository_ListAndCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	for _, u := range []*user.User{
		{Email: "alice@example.com", Name: "Alice", Role: user.RoleUser, IsActive: true},
		{Email: "bob@example.com", Name: "Bob", Role: user.RoleUser, IsActive: true},
		{Email: "root@example.com", Name: "Root", Role: user.RoleAdmin, IsActive: true},
	} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    user.Filter
		wantLen   int
		wantTotal int64
	}{
		{name: "all", filter: user.Filter{}, wantLen: 3, wantTotal: 3},
		{name: "admins", filter: user.Filter{Role: user.RoleAdmin}, wantLen: 1, wantTotal: 1},
		{name: "search name", filter: user.Filter{Search: "ali"}, wantLen: 1, wantTotal: 1},
		{name: "search email", filter: user.Filter{Search: "EXAMPLE"}, wantLen: 3, wantTotal: 3},
		{name: "paged", filter: user.Filter{Limit: 2}, wantLen: 2, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(users) != tt.wantLen || total != tt.wantTotal {
				t.Errorf("List() = %d users (total %d), want %d (total %d)", len(users), total, tt.wantLen, tt.wantTotal)
			}
		})
	}

	n, err := repo.Count(ctx, user.RoleUser)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count(user) = %d, want 2", n)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "delete@example.com", Role: user.RoleUser, IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); !errors.IsNotFound(err) {
		t.Errorf("GetByID() after delete error = %v, want not found", err)
	}
	if err := repo.Delete(ctx, u.ID); !errors.IsNotFound(err) {
		t.Errorf("Delete() twice error = %v, want not found", err)
	}
}
