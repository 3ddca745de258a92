package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/cache"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
)

func newCachedProductService(t *testing.T, env *testEnv) (*ProductService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc := NewProductService(env.products, cache.NewRedisFromClient(client), time.Minute, env.log).(*ProductService)
	return svc, mr
}

func TestProductService_CreateNormalizes(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProductService(env.products, cache.NewNoop(), time.Minute, env.log)
	ctx := context.Background()

	tests := []struct {
		name         string
		product      *product.Product
		wantErr      bool
		wantSlug     string
		wantInterval string
	}{
		{
			name:         "course gets slug and one-time billing",
			product:      &product.Product{Name: "Price Action Masterclass", Type: product.TypeCourse, PriceCents: 19900, BillingInterval: "month"},
			wantSlug:     "price-action-masterclass",
			wantInterval: product.IntervalOneTime,
		},
		{
			name:         "subscription defaults to monthly",
			product:      &product.Product{Name: "Signals Club", Type: product.TypeSubscription, PriceCents: 4900, Currency: "usd"},
			wantSlug:     "signals-club",
			wantInterval: product.IntervalMonth,
		},
		{
			name:    "missing name",
			product: &product.Product{Type: product.TypeBot},
			wantErr: true,
		},
		{
			name:    "unknown type",
			product: &product.Product{Name: "Thing", Type: "ebook"},
			wantErr: true,
		},
		{
			name:    "negative price",
			product: &product.Product{Name: "Cheap", Type: product.TypeBot, PriceCents: -1},
			wantErr: true,
		},
		{
			name:    "subscription with one-time interval",
			product: &product.Product{Name: "Odd", Type: product.TypeSubscription, BillingInterval: product.IntervalOneTime},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, tt.product)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tt.product.ID)
			assert.Equal(t, tt.wantSlug, tt.product.Slug)
			assert.Equal(t, tt.wantInterval, tt.product.BillingInterval)
		})
	}

	dup := &product.Product{Name: "Signals Club", Type: product.TypeSubscription}
	err := svc.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConflict, errors.From(err).Code)
}

func TestProductService_CacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	svc, mr := newCachedProductService(t, env)
	ctx := context.Background()

	bot := &product.Product{Name: "Furioso Bot", Type: product.TypeBot, PriceCents: 29900, IsActive: true}
	require.NoError(t, svc.Create(ctx, bot))

	list, err := svc.List(ctx, product.Filter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists("spartano:product:list:all"))

	_, err = svc.Get(ctx, bot.ID)
	require.NoError(t, err)

	bot.IsActive = false
	require.NoError(t, svc.Update(ctx, bot))
	assert.False(t, mr.Exists("spartano:product:list:all"))

	list, err = svc.List(ctx, product.Filter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := svc.List(ctx, product.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, bot.ID))
	_, err = svc.Get(ctx, bot.ID)
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.List(ctx, product.Filter{Type: "ebook"})
	assert.Error(t, err)
}
