package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

// ProductRepository implements product.Repository
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB) product.Repository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, slug, description, type, price_cents, currency, billing_interval,
	trial_enabled, image_url, features, is_active, created_at, updated_at`

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (name, slug, description, type, price_cents, currency, billing_interval,
			trial_enabled, image_url, features, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
		p.Name, p.Slug, p.Description, string(p.Type), p.PriceCents, p.Currency, p.BillingInterval,
		p.TrialEnabled, p.ImageURL, features, p.IsActive, now.Unix(), now.Unix(),
	).Scan(&p.ID)
	if err != nil {
		return wrapWrite(err, "Product slug", "Failed to create product")
	}
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
}

// GetBySlug retrieves a product by slug
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE slug = $1", slug)
}

func (r *ProductRepository) getOne(ctx context.Context, query string, arg interface{}) (*product.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Product")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get product", err)
	}
	return p, nil
}

// Update updates a product
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	p.UpdatedAt = time.Now()

	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, type = $4, price_cents = $5, currency = $6,
			billing_interval = $7, trial_enabled = $8, image_url = $9, features = $10, is_active = $11,
			updated_at = $12
		WHERE id = $13
	`

	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.Slug, p.Description, string(p.Type), p.PriceCents, p.Currency, p.BillingInterval,
		p.TrialEnabled, p.ImageURL, features, p.IsActive, p.UpdatedAt.Unix(), p.ID,
	)
	if err != nil {
		return wrapWrite(err, "Product slug", "Failed to update product")
	}
	return checkAffected(res, "Product")
}

// Delete deletes a product
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return errors.Conflict("Product has orders or subscriptions; deactivate it instead")
		}
		return errors.DatabaseError("Failed to delete product", err)
	}
	return checkAffected(res, "Product")
}

// List lists products ordered by type and name
func (r *ProductRepository) List(ctx context.Context, filter product.Filter) ([]*product.Product, error) {
	var p placeholders
	var where []string

	if filter.Type != "" {
		where = append(where, "type = "+p.add(string(filter.Type)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = "+p.add(true))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY type, name"

	rows, err := r.db.QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list products", err)
	}
	defer rows.Close()

	products := []*product.Product{}
	for rows.Next() {
		prod, err := scanProduct(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan product", err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list products", err)
	}
	return products, nil
}

func encodeFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	b, err := json.Marshal(features)
	if err != nil {
		return "", errors.Internal("Failed to encode product features", err)
	}
	return string(b), nil
}

func scanProduct(s rowScanner) (*product.Product, error) {
	var p product.Product
	var typ, features string
	var createdAt, updatedAt int64

	err := s.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &typ, &p.PriceCents, &p.Currency, &p.BillingInterval,
		&p.TrialEnabled, &p.ImageURL, &features, &p.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = product.Type(typ)
	p.Features = []string{}
	if features != "" {
		if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
			return nil, err
		}
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}
