package client

import (
	"context"
	"fmt"
	"net/http"
)

// SubscriptionService handles subscription API calls
type SubscriptionService struct {
	client *Client
}

// SubscriptionListOptions filters subscription lists
type SubscriptionListOptions struct {
	ListOptions
	Status    string
	ProductID int64
	UserID    int64 // admin only
}

// SubscriptionList is one page of subscriptions
type SubscriptionList struct {
	PageInfo
	Data []Subscription `json:"data"`
}

func (o *SubscriptionListOptions) query() string {
	if o == nil {
		return ""
	}
	return query(&o.ListOptions, map[string]string{
		"status":     o.Status,
		"product_id": formatID(o.ProductID),
		"user_id":    formatID(o.UserID),
	})
}

// ListMine retrieves the caller's subscriptions
func (s *SubscriptionService) ListMine(ctx context.Context, opts *SubscriptionListOptions) (*SubscriptionList, error) {
	var list SubscriptionList
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/subscriptions"+opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListAll retrieves every subscription (admin)
func (s *SubscriptionService) ListAll(ctx context.Context, opts *SubscriptionListOptions) (*SubscriptionList, error) {
	var list SubscriptionList
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/admin/subscriptions"+opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Create grants a subscription to a user (admin)
func (s *SubscriptionService) Create(ctx context.Context, userID, productID int64, interval string) (*Subscription, error) {
	req := map[string]interface{}{"userId": userID, "productId": productID}
	if interval != "" {
		req["interval"] = interval
	}
	return s.do(ctx, http.MethodPost, "/api/admin/subscriptions", req)
}

// Cancel cancels one of the caller's subscriptions
func (s *SubscriptionService) Cancel(ctx context.Context, id int64) (*Subscription, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/subscriptions/%d/cancel", id), nil)
}

// AdminCancel cancels any subscription (admin)
func (s *SubscriptionService) AdminCancel(ctx context.Context, id int64) (*Subscription, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/admin/subscriptions/%d/cancel", id), nil)
}

// Pause pauses an active subscription (admin)
func (s *SubscriptionService) Pause(ctx context.Context, id int64) (*Subscription, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/admin/subscriptions/%d/pause", id), nil)
}

// Resume resumes a paused subscription (admin)
func (s *SubscriptionService) Resume(ctx context.Context, id int64) (*Subscription, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/admin/subscriptions/%d/resume", id), nil)
}

func (s *SubscriptionService) do(ctx context.Context, method, path string, body interface{}) (*Subscription, error) {
	var sub Subscription
	if err := s.client.doRequest(ctx, method, path, body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
