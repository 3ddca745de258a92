package product

import "context"

// Service defines the interface for catalog management
type Service interface {
	// List returns catalog products; public callers pass ActiveOnly
	List(ctx context.Context, filter Filter) ([]*Product, error)

	// Get retrieves a product by ID
	Get(ctx context.Context, id int64) (*Product, error)

	// GetBySlug retrieves a product by slug
	GetBySlug(ctx context.Context, slug string) (*Product, error)

	// Create validates and stores a product, deriving its slug when empty
	Create(ctx context.Context, p *Product) error

	// Update replaces a product
	Update(ctx context.Context, p *Product) error

	// Delete removes a product
	Delete(ctx context.Context, id int64) error
}
