package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedProduct inserts a product row. price is a decimal string; pass ""
// for a product with no price set.
func SeedProduct(t *testing.T, ctx context.Context, pool *pgxpool.Pool, id, name, price string, stock int) {
	t.Helper()

	var priceArg any
	if price != "" {
		priceArg = price
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, name, price, stock_quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			updated_at = NOW()
	`, id, name, priceArg, stock)
	if err != nil {
		t.Fatalf("failed to insert test product %s: %v", id, err)
	}
}

// SeedCustomer inserts a customer row.
func SeedCustomer(t *testing.T, ctx context.Context, pool *pgxpool.Pool, id, name string) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		INSERT INTO customers (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, name)
	if err != nil {
		t.Fatalf("failed to insert test customer %s: %v", id, err)
	}
}

// ProductStock reads the current stock quantity of a product.
func ProductStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, id string) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(ctx,
		"SELECT stock_quantity FROM products WHERE id = $1", id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock for product %s: %v", id, err)
	}
	return stock
}
