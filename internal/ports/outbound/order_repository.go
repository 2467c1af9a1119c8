package outbound

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/freshmart/orderflow/internal/domain/entity"
)

// OrderRepository defines the interface for order persistence.
// Orders and their lines are written exactly once, inside the placement
// transaction, and are immutable afterwards.
type OrderRepository interface {
	// InsertOrder writes the order record within an external transaction.
	InsertOrder(ctx context.Context, tx pgx.Tx, order *entity.Order) error

	// InsertOrderLine writes one order line within an external transaction.
	InsertOrderLine(ctx context.Context, tx pgx.Tx, line *entity.OrderLine) error

	// GetOrder reads a single order. Returns nil if no such order exists.
	GetOrder(ctx context.Context, orderID string) (*entity.Order, error)

	// ListOrderLines reads all lines of an order.
	ListOrderLines(ctx context.Context, orderID string) ([]*entity.OrderLine, error)
}
