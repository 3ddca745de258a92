package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ProductService handles catalog API calls
type ProductService struct {
	client *Client
}

// List retrieves active products, optionally filtered by type
func (s *ProductService) List(ctx context.Context, productType string) ([]Product, error) {
	var products []Product
	path := "/api/products" + query(nil, map[string]string{"type": productType})
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListAll retrieves every product including inactive ones (admin)
func (s *ProductService) ListAll(ctx context.Context, productType string) ([]Product, error) {
	var products []Product
	path := "/api/admin/products" + query(nil, map[string]string{"type": productType})
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get retrieves a product by ID
func (s *ProductService) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySlug retrieves a product by slug
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	var p Product
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/products/slug/"+url.PathEscape(slug), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
