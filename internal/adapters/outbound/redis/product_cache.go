// Package redis provides a Redis implementation of the ProductCache port.
//
// This adapter stores product catalog records as JSON with a configurable
// TTL for automatic expiration. Keys follow the format prefix:product:id.
// The cache serves catalog reads only; placement transactions always read
// the locked database row.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time check that ProductCache implements outbound.ProductCache
var _ outbound.ProductCache = (*ProductCache)(nil)

// Config holds Redis cache configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL is how long cached products live before expiring
	TTL time.Duration
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults for Redis cache configuration.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		TTL:       5 * time.Minute,
		KeyPrefix: "orderflow",
	}
}

// ProductCache is a Redis implementation of the outbound.ProductCache port.
type ProductCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewProductCache creates a new Redis product cache.
func NewProductCache(cfg Config, logger *slog.Logger) (*ProductCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "redis-cache")

	return &ProductCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger,
	}, nil
}

// cachedProduct is the JSON shape stored in Redis. Price is a decimal
// string; nil means the catalog row has no price.
type cachedProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         *string   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// key generates a cache key in the format prefix:product:id
func (c *ProductCache) key(productID string) string {
	return fmt.Sprintf("%s:product:%s", c.keyPrefix, productID)
}

// GetProduct returns the cached product, or nil on a cache miss.
func (c *ProductCache) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	data, err := c.client.Get(ctx, c.key(productID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached product %s: %w", productID, err)
	}

	var cp cachedProduct
	if err := json.Unmarshal(data, &cp); err != nil {
		// A corrupt entry is treated as a miss after eviction.
		c.logger.Warn("evicting unreadable cache entry", "productId", productID, "error", err)
		if delErr := c.client.Del(ctx, c.key(productID)).Err(); delErr != nil {
			c.logger.Warn("failed to evict cache entry", "productId", productID, "error", delErr)
		}
		return nil, nil
	}

	p := &entity.Product{
		ID:            cp.ID,
		Name:          cp.Name,
		StockQuantity: cp.StockQuantity,
		CreatedAt:     cp.CreatedAt,
		UpdatedAt:     cp.UpdatedAt,
	}
	if cp.Price != nil {
		d, err := decimal.NewFromString(*cp.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid cached price for product %s: %w", productID, err)
		}
		p.Price = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return p, nil
}

// SetProduct caches a product with the configured TTL.
func (c *ProductCache) SetProduct(ctx context.Context, product *entity.Product) error {
	cp := cachedProduct{
		ID:            product.ID,
		Name:          product.Name,
		StockQuantity: product.StockQuantity,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
	if product.Price.Valid {
		s := product.Price.Decimal.String()
		cp.Price = &s
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal product %s: %w", product.ID, err)
	}
	if err := c.client.Set(ctx, c.key(product.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache product %s: %w", product.ID, err)
	}
	return nil
}

// Invalidate removes a product from the cache.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, c.key(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product %s: %w", productID, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *ProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *ProductCache) Close() error {
	return c.client.Close()
}
