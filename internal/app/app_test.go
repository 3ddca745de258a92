package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/testutil"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

type apiResponse struct {
	Status  int
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (c *apiClient) do(method, path, token string, body interface{}) apiResponse {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	res := apiResponse{Status: rr.Code}
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), &res), rr.Body.String())
	}
	res.Status = rr.Code
	return res
}

func (r apiResponse) into(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst))
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			FrontendURL:    "http://localhost:5173",
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
			AdminTokenExpiry:   time.Hour,
			ResetTokenExpiry:   time.Hour,
			BCryptCost:         4,
		},
		Storage: config.StorageConfig{Driver: "local", LocalDir: t.TempDir()},
		Trials:  config.TrialConfig{DurationDays: 60, ReminderDays: 3},
	}
}

func TestApp_PurchaseFlow(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mail := testutil.NewMockMailer()
	a := New(ctx, testConfig(t), logger.Nop(), Infra{DB: db, Mailer: mail, Publisher: testutil.NewMockPublisher()})
	defer a.Wait()
	api := &apiClient{t: t, handler: a.Handler}

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil).Status)

	// Admin signs in and sets up a course
	_, err := a.Users.AdminCreate(ctx, "admin@example.com", "admin-pass", "Admin", "admin")
	require.NoError(t, err)

	var session struct {
		AccessToken string `json:"accessToken"`
	}
	res := api.do(http.MethodPost, "/api/auth/admin/login", "", map[string]string{"email": "admin@example.com", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, res.Status)
	res.into(t, &session)
	adminToken := session.AccessToken

	var course struct {
		ID int64 `json:"id"`
	}
	res = api.do(http.MethodPost, "/api/admin/products", adminToken, map[string]interface{}{
		"name": "Trading Academy", "type": "course", "priceCents": 19900, "trialEnabled": true,
	})
	require.Equal(t, http.StatusCreated, res.Status)
	res.into(t, &course)
	coursePath := fmt.Sprintf("/api/courses/%d", course.ID)

	res = api.do(http.MethodPut, coursePath+"/content", adminToken, map[string]interface{}{
		"modules": []map[string]interface{}{{
			"title": "Basics",
			"lessons": []map[string]interface{}{
				{"title": "Intro", "videoUrl": "https://vimeo.com/123456", "durationSeconds": 600, "isFree": true},
				{"title": "Risk", "videoUrl": "https://vimeo.com/654321", "durationSeconds": 900},
			},
		}},
	})
	require.Equal(t, http.StatusOK, res.Status)

	// A customer registers
	res = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "trader@example.com", "password": "supersecret"})
	require.Equal(t, http.StatusCreated, res.Status)
	res.into(t, &session)
	userToken := session.AccessToken

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, coursePath+"/outline", "", nil).Status)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, coursePath+"/content", userToken, nil).Status)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/orders", "", nil).Status)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/admin/users", userToken, nil).Status)

	// The trial unlocks the course
	res = api.do(http.MethodPost, "/api/trials/start", userToken, map[string]int64{"productId": course.ID})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/trials/start", userToken, map[string]int64{"productId": course.ID}).Status)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, coursePath+"/content", userToken, nil).Status)

	var access struct {
		HasAccess     bool   `json:"hasAccess"`
		Reason        string `json:"reason"`
		DaysRemaining int    `json:"daysRemaining"`
	}
	res = api.do(http.MethodGet, fmt.Sprintf("/api/trials/access/%d", course.ID), userToken, nil)
	require.Equal(t, http.StatusOK, res.Status)
	res.into(t, &access)
	assert.True(t, access.HasAccess)
	assert.Equal(t, "trial", access.Reason)
	assert.Equal(t, 60, access.DaysRemaining)

	// The customer buys the course off-platform and the admin confirms it
	var checkout struct {
		Order struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
		CheckoutURL *string `json:"checkoutUrl"`
	}
	res = api.do(http.MethodPost, "/api/orders", userToken, map[string]interface{}{"productId": course.ID, "paymentMethod": "paypal"})
	require.Equal(t, http.StatusCreated, res.Status)
	res.into(t, &checkout)
	assert.Equal(t, "pending", checkout.Order.Status)
	assert.Nil(t, checkout.CheckoutURL)

	orderPath := fmt.Sprintf("/api/orders/%d", checkout.Order.ID)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, orderPath+"/confirm", userToken, nil).Status)

	res = api.do(http.MethodPost, orderPath+"/confirm", adminToken, map[string]string{"paymentReference": "PAYPAL-123"})
	require.Equal(t, http.StatusOK, res.Status)

	var trials []struct {
		Status string `json:"status"`
	}
	res = api.do(http.MethodGet, "/api/trials/my-trials", userToken, nil)
	require.Equal(t, http.StatusOK, res.Status)
	res.into(t, &trials)
	require.Len(t, trials, 1)
	assert.Equal(t, "converted", trials[0].Status)

	res = api.do(http.MethodGet, fmt.Sprintf("/api/trials/access/%d", course.ID), userToken, nil)
	res.into(t, &access)
	assert.Equal(t, "purchase", access.Reason)

	var overview struct {
		TotalUsers        int64            `json:"totalUsers"`
		PaidOrders        int64            `json:"paidOrders"`
		RevenueByCurrency map[string]int64 `json:"revenueByCurrency"`
	}
	res = api.do(http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Status)
	res.into(t, &overview)
	assert.Equal(t, int64(2), overview.TotalUsers)
	assert.Equal(t, int64(1), overview.PaidOrders)
	assert.Equal(t, int64(19900), overview.RevenueByCurrency["EUR"])

	// Uploads need a storage backend
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", "chart.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestApp_LoginRateLimit(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New(ctx, testConfig(t), logger.Nop(), Infra{DB: db})
	api := &apiClient{t: t, handler: a.Handler}

	var statuses []int
	for i := 0; i < 6; i++ {
		res := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "whatever1"})
		statuses = append(statuses, res.Status)
	}
	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, statuses)

	// Other endpoints keep their own budget
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/products", "", nil).Status)
}
