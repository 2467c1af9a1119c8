package outbound

import (
	"context"

	"github.com/freshmart/orderflow/internal/domain/entity"
)

// ProductCache defines the interface for the product read cache.
// The cache is an optimization for catalog reads only: placement always
// reads through the locked repository path, never the cache.
type ProductCache interface {
	// GetProduct returns the cached product, or nil on a cache miss.
	GetProduct(ctx context.Context, productID string) (*entity.Product, error)

	// SetProduct caches a product with the configured TTL.
	SetProduct(ctx context.Context, product *entity.Product) error

	// Invalidate removes a product from the cache. Called after every
	// successful stock mutation.
	Invalidate(ctx context.Context, productID string) error

	// Ping checks connectivity to the cache backend.
	Ping(ctx context.Context) error

	// Close releases the cache connection.
	Close() error
}
