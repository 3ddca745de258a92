package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoginStoresToken(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "trader@example.com", req.Email)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"accessToken":  "access-1",
					"refreshToken": "refresh-1",
					"user":         map[string]interface{}{"id": 7, "email": "trader@example.com", "role": "user"},
				},
			})
		case "/api/auth/me":
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"id": 7, "email": "trader@example.com", "role": "user"},
			})
		default:
			http.NotFound(w, r)
		}
	})

	resp, err := c.Login(context.Background(), "trader@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "access-1", c.GetToken())
	assert.Equal(t, "refresh-1", resp.RefreshToken)

	me, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), me.ID)
}

func TestClient_APIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "CONFLICT", "message": "You already have access to this product"},
		})
	})

	_, err := c.Trials().Start(context.Background(), 3)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestClient_PlainErrorBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	err := c.Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestOrderService_ListAllQuery(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/admin/all", r.URL.Path)
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		assert.Equal(t, "12", r.URL.Query().Get("user_id"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("product_id"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"data":        []map[string]interface{}{{"id": 1, "status": "pending", "amountCents": 4900}},
				"page":        2,
				"page_size":   20,
				"total_items": 21,
				"total_pages": 2,
			},
		})
	})

	list, err := c.Orders().ListAll(context.Background(), &OrderListOptions{
		ListOptions: ListOptions{Page: 2},
		Status:      "pending",
		UserID:      12,
	})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(4900), list.Data[0].AmountCents)
	assert.Equal(t, int64(21), list.TotalItems)
}

func TestNewsletterService_SendAccepted(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/newsletter/admin/messages/5/send", r.URL.Path)
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": 5, "status": "sending", "recipientCount": 120},
		})
	})
	c.SetToken("admin")

	msg, err := c.Newsletter().Send(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "sending", msg.Status)
	assert.Equal(t, 120, msg.RecipientCount)
}
