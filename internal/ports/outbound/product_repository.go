package outbound

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/freshmart/orderflow/internal/domain/entity"
)

// ProductRepository defines the interface for product catalog persistence.
type ProductRepository interface {
	// GetForUpdate reads a product inside tx while holding an exclusive row
	// lock on it. The lock is released when the enclosing transaction ends.
	// Returns entity.ErrProductNotFound if no such product exists.
	GetForUpdate(ctx context.Context, tx pgx.Tx, productID string) (*entity.Product, error)

	// GetByID reads a product without locking.
	// Returns entity.ErrProductNotFound if no such product exists.
	GetByID(ctx context.Context, productID string) (*entity.Product, error)

	// SetStock writes the product's stock quantity within an external
	// transaction. The new quantity must derive from a GetForUpdate read in
	// the same transaction so concurrent placements cannot lose updates.
	SetStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error

	// UpsertProducts upserts catalog records in batches.
	// Conflict resolution: ON CONFLICT (id) DO UPDATE.
	UpsertProducts(ctx context.Context, products []*entity.Product) error
}
