package client

import (
	"context"
	"net/http"
	"time"
)

// AnalyticsService handles analytics API calls
type AnalyticsService struct {
	client *Client
}

// TrackRequest records a visitor event
type TrackRequest struct {
	SessionID string                 `json:"sessionId"`
	Type      string                 `json:"type"`
	Path      string                 `json:"path"`
	Referrer  string                 `json:"referrer,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Track records a visitor event
func (s *AnalyticsService) Track(ctx context.Context, req TrackRequest) error {
	return s.client.doRequest(ctx, http.MethodPost, "/api/analytics/track", req, nil)
}

// Stats aggregates events between from and to; zero values use the server default window (admin)
func (s *AnalyticsService) Stats(ctx context.Context, from, to time.Time) (*AnalyticsStats, error) {
	params := map[string]string{}
	if !from.IsZero() {
		params["from"] = from.Format(time.RFC3339)
	}
	if !to.IsZero() {
		params["to"] = to.Format(time.RFC3339)
	}

	var stats AnalyticsStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/analytics/stats"+query(nil, params), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Dashboard retrieves the admin overview (admin)
func (s *AnalyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/admin/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
