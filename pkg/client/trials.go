package client

import (
	"context"
	"fmt"
	"net/http"
)

// TrialService handles free trial API calls
type TrialService struct {
	client *Client
}

// TrialListOptions filters the admin trial list
type TrialListOptions struct {
	ListOptions
	Status    string
	ProductID int64
	UserID    int64
}

// TrialList is one page of trials
type TrialList struct {
	PageInfo
	Data []Trial `json:"data"`
}

// Start begins a free trial of a product
func (s *TrialService) Start(ctx context.Context, productID int64) (*Trial, error) {
	return s.do(ctx, http.MethodPost, "/api/trials/start", map[string]int64{"productId": productID})
}

// Mine retrieves the caller's trials
func (s *TrialService) Mine(ctx context.Context) ([]Trial, error) {
	var trials []Trial
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/trials/my-trials", nil, &trials); err != nil {
		return nil, err
	}
	return trials, nil
}

// ForProduct retrieves the caller's trial for a product
func (s *TrialService) ForProduct(ctx context.Context, productID int64) (*Trial, error) {
	return s.do(ctx, http.MethodGet, fmt.Sprintf("/api/trials/product/%d", productID), nil)
}

// Access reports whether the caller may use a product
func (s *TrialService) Access(ctx context.Context, productID int64) (*AccessStatus, error) {
	var status AccessStatus
	if err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/trials/access/%d", productID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListAll retrieves every trial (admin)
func (s *TrialService) ListAll(ctx context.Context, opts *TrialListOptions) (*TrialList, error) {
	path := "/api/trials/admin/all"
	if opts != nil {
		path += query(&opts.ListOptions, map[string]string{
			"status":     opts.Status,
			"product_id": formatID(opts.ProductID),
			"user_id":    formatID(opts.UserID),
		})
	}

	var list TrialList
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Stats retrieves trial statistics (admin)
func (s *TrialService) Stats(ctx context.Context) (*TrialStats, error) {
	var stats TrialStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/trials/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Extend adds days to a trial (admin)
func (s *TrialService) Extend(ctx context.Context, id int64, days int) (*Trial, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/trials/admin/%d/extend", id), map[string]int{"days": days})
}

// Cancel ends a trial early (admin)
func (s *TrialService) Cancel(ctx context.Context, id int64) (*Trial, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/trials/admin/%d/cancel", id), nil)
}

func (s *TrialService) do(ctx context.Context, method, path string, body interface{}) (*Trial, error) {
	var t Trial
	if err := s.client.doRequest(ctx, method, path, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
