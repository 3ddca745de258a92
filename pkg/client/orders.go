package client

import (
	"context"
	"fmt"
	"net/http"
)

// OrderService handles order API calls
type OrderService struct {
	client *Client
}

// OrderListOptions filters order lists
type OrderListOptions struct {
	ListOptions
	Status    string
	ProductID int64
	UserID    int64 // admin only
}

// OrderList is one page of orders
type OrderList struct {
	PageInfo
	Data []Order `json:"data"`
}

func (o *OrderListOptions) query() string {
	if o == nil {
		return ""
	}
	return query(&o.ListOptions, map[string]string{
		"status":     o.Status,
		"product_id": formatID(o.ProductID),
		"user_id":    formatID(o.UserID),
	})
}

// Create places an order for a product
func (s *OrderService) Create(ctx context.Context, productID int64, paymentMethod string) (*Checkout, error) {
	req := map[string]interface{}{"productId": productID, "paymentMethod": paymentMethod}

	var checkout Checkout
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/orders", req, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// ListMine retrieves the caller's orders
func (s *OrderService) ListMine(ctx context.Context, opts *OrderListOptions) (*OrderList, error) {
	var list OrderList
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/orders"+opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListAll retrieves every order (admin)
func (s *OrderService) ListAll(ctx context.Context, opts *OrderListOptions) (*OrderList, error) {
	var list OrderList
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/orders/admin/all"+opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves an order by ID
func (s *OrderService) Get(ctx context.Context, id int64) (*Order, error) {
	return s.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil)
}

// Cancel cancels a pending order
func (s *OrderService) Cancel(ctx context.Context, id int64) (*Order, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", id), nil)
}

// Confirm marks a manual payment as received (admin)
func (s *OrderService) Confirm(ctx context.Context, id int64, paymentReference string) (*Order, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/confirm", id), map[string]string{"paymentReference": paymentReference})
}

// Refund refunds a paid order (admin)
func (s *OrderService) Refund(ctx context.Context, id int64) (*Order, error) {
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/refund", id), nil)
}

// Stats retrieves order statistics (admin)
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	var stats OrderStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/orders/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *OrderService) do(ctx context.Context, method, path string, body interface{}) (*Order, error) {
	var o Order
	if err := s.client.doRequest(ctx, method, path, body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
