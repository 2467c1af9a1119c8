package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time check that OrderRepository implements outbound.OrderRepository
var _ outbound.OrderRepository = (*OrderRepository)(nil)

// OrderRepository is a PostgreSQL implementation of the outbound.OrderRepository port.
type OrderRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewOrderRepository creates a new PostgreSQL Order repository.
// Returns an error if the database pool is nil.
func NewOrderRepository(pool *pgxpool.Pool, logger *slog.Logger) (*OrderRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderRepository{pool: pool, logger: logger}, nil
}

// InsertOrder writes the order record within an external transaction.
func (r *OrderRepository) InsertOrder(ctx context.Context, tx pgx.Tx, order *entity.Order) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO orders (id, customer_id, order_date, total_amount, delivery_fee, discount_applied)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		order.ID, order.CustomerID, order.OrderDate,
		decimalToNumeric(order.TotalAmount),
		decimalToNumeric(order.DeliveryFee),
		decimalToNumeric(order.DiscountApplied))
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}
	return nil
}

// InsertOrderLine writes one order line within an external transaction.
func (r *OrderRepository) InsertOrderLine(ctx context.Context, tx pgx.Tx, line *entity.OrderLine) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price, discount)
		 VALUES ($1, $2, $3, $4, $5)`,
		line.OrderID, line.ProductID, line.Quantity,
		decimalToNumeric(line.UnitPrice),
		decimalToNumeric(line.Discount))
	if err != nil {
		return fmt.Errorf("failed to insert order line %s/%s: %w", line.OrderID, line.ProductID, err)
	}
	return nil
}

// GetOrder reads a single order. Returns nil if no such order exists.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	var o entity.Order
	var total, fee, discount string
	err := r.pool.QueryRow(ctx,
		`SELECT id, customer_id, order_date, total_amount, delivery_fee, discount_applied
		 FROM orders WHERE id = $1`,
		orderID).Scan(&o.ID, &o.CustomerID, &o.OrderDate, &total, &fee, &discount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %s: %w", orderID, err)
	}

	if o.TotalAmount, err = numericToDecimal(total); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	if o.DeliveryFee, err = numericToDecimal(fee); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	if o.DiscountApplied, err = numericToDecimal(discount); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	return &o, nil
}

// ListOrderLines reads all lines of an order.
func (r *OrderRepository) ListOrderLines(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, unit_price, discount
		 FROM order_items WHERE order_id = $1 ORDER BY product_id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines for %s: %w", orderID, err)
	}
	defer rows.Close()

	var lines []*entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		var price, discount string
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &price, &discount); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		if l.UnitPrice, err = numericToDecimal(price); err != nil {
			return nil, fmt.Errorf("order line %s/%s: %w", l.OrderID, l.ProductID, err)
		}
		if l.Discount, err = numericToDecimal(discount); err != nil {
			return nil, fmt.Errorf("order line %s/%s: %w", l.OrderID, l.ProductID, err)
		}
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines for %s: %w", orderID, err)
	}
	return lines, nil
}
