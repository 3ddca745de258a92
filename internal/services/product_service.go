package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spartanofurioso/platform/internal/cache"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
)

const productCachePrefix = "product:"

// ProductService implements product.Service
type ProductService struct {
	repo   product.Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewProductService creates a new product service
func NewProductService(repo product.Repository, c cache.Cache, ttl time.Duration, log *logger.Logger) product.Service {
	return &ProductService{repo: repo, cache: c, ttl: ttl, logger: log}
}

// List returns products; active-only listings are served from cache
func (s *ProductService) List(ctx context.Context, filter product.Filter) ([]*product.Product, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, errors.BadRequest("Invalid product type")
	}
	if !filter.ActiveOnly {
		return s.repo.List(ctx, filter)
	}

	key := productCachePrefix + "list:" + string(filter.Type)
	if filter.Type == "" {
		key = productCachePrefix + "list:all"
	}

	var cached []*product.Product
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		s.logger.WarnWithErr(err, "Product cache read failed")
	}

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, products, s.ttl); err != nil {
		s.logger.WarnWithErr(err, "Product cache write failed")
	}
	return products, nil
}

// Get retrieves a product by ID through the cache
func (s *ProductService) Get(ctx context.Context, id int64) (*product.Product, error) {
	key := fmt.Sprintf("%s%d", productCachePrefix, id)

	var cached product.Product
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, p, s.ttl); err != nil {
		s.logger.WarnWithErr(err, "Product cache write failed")
	}
	return p, nil
}

// GetBySlug retrieves a product by slug
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// Create validates and stores a product
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if err := normalizeProduct(p); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.logger.WithFields(map[string]interface{}{
		"product_id": p.ID,
		"slug":       p.Slug,
	}).Info("Product created")
	return nil
}

// Update validates and replaces a product
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt

	if err := normalizeProduct(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.logger.WithFields(map[string]interface{}{"product_id": id}).Info("Product deleted")
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, productCachePrefix); err != nil {
		s.logger.WarnWithErr(err, "Product cache invalidation failed")
	}
}

// normalizeProduct applies defaults and catalog rules
func normalizeProduct(p *product.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.BadRequest("Product name is required")
	}
	if !p.Type.IsValid() {
		return errors.BadRequest("Invalid product type")
	}
	if p.PriceCents < 0 {
		return errors.BadRequest("Price cannot be negative")
	}

	p.Slug = product.Slugify(p.Slug)
	if p.Slug == "" {
		p.Slug = product.Slugify(p.Name)
	}
	if p.Slug == "" {
		return errors.BadRequest("Product name must contain letters or digits")
	}

	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = "EUR"
	}

	if p.Type == product.TypeSubscription {
		if p.BillingInterval == "" {
			p.BillingInterval = product.IntervalMonth
		}
		if !p.IsRecurring() {
			return errors.BadRequest("Subscription products must bill monthly or yearly")
		}
	} else {
		p.BillingInterval = product.IntervalOneTime
	}

	if p.Features == nil {
		p.Features = []string{}
	}
	return nil
}
