package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/spartanofurioso/platform/internal/auth"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey is the context key for user email
	UserEmailKey ContextKey = "email"
	// UserRoleKey is the context key for the user role
	UserRoleKey ContextKey = "role"
)

// AccessTokenCookie is the cookie carrying the access token for browser clients
const AccessTokenCookie = "accessToken"

// TokenFromRequest returns the bearer token or, without an Authorization header, the access token cookie
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// WithIdentity stores the authenticated identity in ctx
func WithIdentity(ctx context.Context, userID int64, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	return context.WithValue(ctx, UserRoleKey, role)
}

// AuthMiddleware returns a middleware that validates JWT access tokens
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseAccessToken(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			// Add audit info to logs
			AddLogField(w, "user_id", claims.UserID)
			AddLogField(w, "role", claims.Role)

			ctx := WithIdentity(r.Context(), claims.UserID, claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware is like AuthMiddleware but doesn't reject requests without tokens
func OptionalAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := TokenFromRequest(r); tokenStr != "" {
				if claims, err := auth.ParseAccessToken(tokenStr, jwtSecret); err == nil {
					AddLogField(w, "user_id", claims.UserID)
					r = r.WithContext(WithIdentity(r.Context(), claims.UserID, claims.Email, claims.Role))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccountLoader fetches the stored state of an account
type AccountLoader func(ctx context.Context, id int64) (*user.User, error)

// RequireAdmin rejects callers without the admin role. The role claim is
// checked against the stored account so demoted or deactivated admins lose
// access before their token expires.
func RequireAdmin(load AccountLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}
			if !IsAdmin(r) {
				utils.WriteError(w, errors.Forbidden("Admin access required"))
				return
			}
			u, err := load(r.Context(), userID)
			if errors.IsNotFound(err) {
				utils.WriteError(w, errors.Unauthorized("Account no longer exists"))
				return
			}
			if err != nil {
				utils.WriteErr(w, err)
				return
			}
			if !u.IsActive || !u.IsAdmin() {
				utils.WriteError(w, errors.Forbidden("Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmail extracts the user email from the request context
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}

// GetUserRole extracts the user role from the request context
func GetUserRole(r *http.Request) string {
	role, _ := r.Context().Value(UserRoleKey).(string)
	return role
}

// IsAdmin reports whether the caller carries the admin role
func IsAdmin(r *http.Request) bool {
	return GetUserRole(r) == user.RoleAdmin
}
