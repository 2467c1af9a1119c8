// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/freshmart/orderflow/internal/domain/entity"
)

// PlaceOrderRequest carries the inputs of a placement.
// CustomerID and ProductID are opaque identifiers; Quantity must be
// positive. Discount and DeliveryFee are supplied by the caller and
// recorded as-is.
type PlaceOrderRequest struct {
	CustomerID  string
	ProductID   string
	Quantity    int
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
}

// OrderService defines the primary use cases for the ordering domain.
// Inbound adapters (HTTP handlers, CLI) call these methods.
type OrderService interface {
	// PlaceOrder atomically verifies stock, creates the order and its line,
	// and decrements inventory. On any failure the store is left untouched
	// and the error is one of the entity failure kinds.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*entity.Order, error)

	// GetOrder returns a placed order with its lines, or nil when unknown.
	GetOrder(ctx context.Context, orderID string) (*entity.Order, []*entity.OrderLine, error)

	// GetProduct returns catalog data for a product, cache-aside.
	GetProduct(ctx context.Context, productID string) (*entity.Product, error)

	// Ping verifies the service's storage dependencies are reachable.
	Ping(ctx context.Context) error
}

// HealthChecker defines the interface for services that can report
// readiness and liveness to deployment probes.
type HealthChecker interface {
	// IsReady returns true when the service is ready to handle traffic.
	IsReady() bool

	// IsHealthy returns true when the service is operating normally.
	IsHealthy() bool
}
