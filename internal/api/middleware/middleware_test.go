package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spartanofurioso/platform/internal/auth"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func mint(t *testing.T, role string) auth.TokenPair {
	t.Helper()
	tokens, err := auth.MintTokens(auth.Identity{UserID: 42, Email: "u@example.com", Role: role}, testSecret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}
	return tokens
}

func TestAuthMiddleware(t *testing.T) {
	tokens := mint(t, user.RoleUser)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "bearer access token", header: "Bearer " + tokens.AccessToken, wantStatus: http.StatusOK},
		{name: "cookie access token", cookie: tokens.AccessToken, wantStatus: http.StatusOK},
		{name: "refresh token rejected", header: "Bearer " + tokens.RefreshToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			var gotEmail string
			h := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r)
				gotEmail, _ = GetUserEmail(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (gotID != 42 || gotEmail != "u@example.com") {
				t.Errorf("identity = (%d, %q), want (42, u@example.com)", gotID, gotEmail)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	tokens := mint(t, user.RoleUser)

	var authed bool
	h := OptionalAuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = GetUserID(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/track", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if authed {
		t.Error("anonymous request should not carry a user")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/analytics/track", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !authed {
		t.Error("valid token should carry a user")
	}
}

func TestRequireAdmin(t *testing.T) {
	stored := &user.User{ID: 42, Email: "u@example.com", Role: user.RoleAdmin, IsActive: true}
	load := func(ctx context.Context, id int64) (*user.User, error) {
		if stored == nil || id != stored.ID {
			return nil, errors.NotFound("User")
		}
		return stored, nil
	}

	tests := []struct {
		name       string
		role       string
		account    *user.User
		wantStatus int
	}{
		{name: "admin", role: user.RoleAdmin, account: &user.User{ID: 42, Role: user.RoleAdmin, IsActive: true}, wantStatus: http.StatusOK},
		{name: "customer", role: user.RoleUser, account: &user.User{ID: 42, Role: user.RoleUser, IsActive: true}, wantStatus: http.StatusForbidden},
		{name: "demoted admin token", role: user.RoleAdmin, account: &user.User{ID: 42, Role: user.RoleUser, IsActive: true}, wantStatus: http.StatusForbidden},
		{name: "deactivated admin token", role: user.RoleAdmin, account: &user.User{ID: 42, Role: user.RoleAdmin, IsActive: false}, wantStatus: http.StatusForbidden},
		{name: "deleted admin token", role: user.RoleAdmin, account: nil, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored = tt.account
			h := AuthMiddleware(testSecret)(RequireAdmin(load)(http.HandlerFunc(okHandler)))
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			req.Header.Set("Authorization", "Bearer "+mint(t, tt.role).AccessToken)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}

	rr := httptest.NewRecorder()
	RequireAdmin(load)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rr.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// another port on the same host shares the bucket
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:6666"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("same host status = %d, want 429", rr.Code)
	}

	now := time.Now()
	rl.now = func() time.Time { return now.Add(time.Hour) }
	rl.Cleanup()
	if rl.Len() != 0 {
		t.Errorf("Len() after cleanup = %d, want 0", rl.Len())
	}
}

func TestRecovery(t *testing.T) {
	h := RequestID()(Recovery(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Error("panic value leaked to the client")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	for _, h := range []string{"X-Frame-Options", "X-Content-Type-Options", "Content-Security-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}

	rr = httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if rr.Header().Get("Content-Security-Policy") != "" {
		t.Error("swagger should not get a CSP header")
	}
}
