package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) user.Repository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, phone, country, is_active,
	reset_token, reset_token_expires_at, last_login_at, created_at, updated_at`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (email, name, password_hash, role, phone, country, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		u.Email, u.Name, u.PasswordHash, u.Role, nullString(u.Phone), nullString(u.Country),
		u.IsActive, now.Unix(), now.Unix(),
	).Scan(&u.ID)
	if err != nil {
		return wrapWrite(err, "User", "Failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

// GetByResetToken retrieves a user by password reset token
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*user.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE reset_token = $1", token)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = $1, name = $2, password_hash = $3, role = $4, phone = $5, country = $6,
			is_active = $7, reset_token = $8, reset_token_expires_at = $9, last_login_at = $10,
			updated_at = $11
		WHERE id = $12
	`

	res, err := r.db.ExecContext(ctx, query,
		u.Email, u.Name, u.PasswordHash, u.Role, nullString(u.Phone), nullString(u.Country),
		u.IsActive, nullString(u.ResetToken), nullUnix(u.ResetTokenExpiresAt), nullUnix(u.LastLoginAt),
		u.UpdatedAt.Unix(), u.ID,
	)
	if err != nil {
		return wrapWrite(err, "User", "Failed to update user")
	}
	return checkAffected(res, "User")
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return errors.DatabaseError("Failed to delete user", err)
	}
	return checkAffected(res, "User")
}

// List lists users matching the filter, newest first, with the unpaginated total
func (r *UserRepository) List(ctx context.Context, filter user.Filter) ([]*user.User, int64, error) {
	var p placeholders
	var where []string

	if filter.Search != "" {
		like := p.add("%" + strings.ToLower(filter.Search) + "%")
		where = append(where, "(LOWER(email) LIKE "+like+" OR LOWER(name) LIKE "+like+")")
	}
	if filter.Role != "" {
		where = append(where, "role = "+p.add(filter.Role))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+clause, p.args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	query := "SELECT " + userColumns + " FROM users" + clause + " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + p.add(filter.Limit) + " OFFSET " + p.add(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}

	return users, total, nil
}

// Count counts users, optionally restricted to a role
func (r *UserRepository) Count(ctx context.Context, role string) (int64, error) {
	var count int64
	var err error
	if role == "" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = $1", role).Scan(&count)
	}
	if err != nil {
		return 0, errors.DatabaseError("Failed to count users", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s rowScanner) (*user.User, error) {
	var u user.User
	var phone, country, resetToken sql.NullString
	var resetExpires, lastLogin sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &phone, &country, &u.IsActive,
		&resetToken, &resetExpires, &lastLogin, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Phone = stringPtr(phone)
	u.Country = stringPtr(country)
	u.ResetToken = stringPtr(resetToken)
	u.ResetTokenExpiresAt = timePtr(resetExpires)
	u.LastLoginAt = timePtr(lastLogin)
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}
