package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time check that ProductRepository implements outbound.ProductRepository
var _ outbound.ProductRepository = (*ProductRepository)(nil)

// ProductRepository is a PostgreSQL implementation of the outbound.ProductRepository port.
type ProductRepository struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	batchSize int
}

// NewProductRepository creates a new PostgreSQL Product repository.
// If batchSize is <= 0, the default batch size from DefaultRepositoryConfig() is used.
// Returns an error if the database pool is nil.
//
// Note: This function does not verify that the database connection is alive.
// Use a separate health check or call pool.Ping() if connection validation is needed.
func NewProductRepository(pool *pgxpool.Pool, logger *slog.Logger, batchSize int) (*ProductRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultRepositoryConfig().ProductBatchSize
	}
	return &ProductRepository{
		pool:      pool,
		logger:    logger,
		batchSize: batchSize,
	}, nil
}

const productColumns = `id, name, price, stock_quantity, created_at, updated_at`

// GetForUpdate reads a product while holding an exclusive row lock within an
// external transaction. Concurrent placements for the same product block here
// until the lock holder commits or rolls back.
func (r *ProductRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, productID string) (*entity.Product, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`,
		productID)
	return r.scanProduct(row, productID)
}

// GetByID reads a product without locking.
func (r *ProductRepository) GetByID(ctx context.Context, productID string) (*entity.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		productID)
	return r.scanProduct(row, productID)
}

func (r *ProductRepository) scanProduct(row pgx.Row, productID string) (*entity.Product, error) {
	var p entity.Product
	var price *string
	err := row.Scan(&p.ID, &p.Name, &price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", productID, entity.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read product %s: %w", productID, err)
	}

	p.Price, err = numericToNullDecimal(price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price for product %s: %w", productID, err)
	}
	return &p, nil
}

// SetStock writes the product's stock quantity within an external transaction.
// The caller must have read the row with GetForUpdate in the same transaction.
func (r *ProductRepository) SetStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("stock quantity must be non-negative, got %d", quantity)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE products SET stock_quantity = $2, updated_at = NOW() WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, entity.ErrProductNotFound)
	}
	return nil
}

// UpsertProducts upserts catalog records in batches atomically.
// All records are inserted in a single transaction - if any batch fails, all changes are rolled back.
func (r *ProductRepository) UpsertProducts(ctx context.Context, products []*entity.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, r.logger)

	for i := 0; i < len(products); i += r.batchSize {
		end := i + r.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[i:end]

		if err := r.upsertProductBatch(ctx, tx, batch); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ProductRepository) upsertProductBatch(ctx context.Context, tx pgx.Tx, products []*entity.Product) error {
	if len(products) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO products (id, name, price, stock_quantity, created_at, updated_at)
		VALUES `)

	args := make([]any, 0, len(products)*4)
	for i, p := range products {
		if i > 0 {
			sb.WriteString(", ")
		}
		baseIdx := i * 4
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, NOW(), NOW())",
			baseIdx+1, baseIdx+2, baseIdx+3, baseIdx+4))

		args = append(args, p.ID, p.Name, nullDecimalToNumeric(p.Price), p.StockQuantity)
	}

	sb.WriteString(`
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			updated_at = NOW()
	`)

	_, err := tx.Exec(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to upsert product batch: %w", err)
	}
	return nil
}
