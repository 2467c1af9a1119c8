package outbound

import (
	"context"
	"time"
)

// EventType represents the type of event.
type EventType string

// Event type constants.
const (
	EventTypeOrderPlaced EventType = "order_placed"
)

// Event is the interface that all event types implement.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType
	// GetOrderID returns the order identifier.
	GetOrderID() string
	// GetCustomerID returns the customer identifier.
	GetCustomerID() string
}

// OrderPlacedEvent is published after a placement transaction commits.
// It carries metadata only; the durable record lives in the orders tables.
type OrderPlacedEvent struct {
	// OrderID is the generated order identifier.
	OrderID string `json:"orderId"`

	// CustomerID identifies who placed the order.
	CustomerID string `json:"customerId"`

	// ProductID identifies the ordered product.
	ProductID string `json:"productId"`

	// Quantity is the number of units ordered.
	Quantity int `json:"quantity"`

	// TotalAmount is the committed order amount as a decimal string.
	TotalAmount string `json:"totalAmount"`

	// PlacedAt is the order's creation timestamp.
	PlacedAt time.Time `json:"placedAt"`
}

func (e OrderPlacedEvent) EventType() EventType  { return EventTypeOrderPlaced }
func (e OrderPlacedEvent) GetOrderID() string    { return e.OrderID }
func (e OrderPlacedEvent) GetCustomerID() string { return e.CustomerID }

// EventSink defines the interface for publishing order events.
// Publishing happens after commit and is best effort: a sink failure is
// logged, never propagated into the placement result.
type EventSink interface {
	// Publish publishes an event.
	Publish(ctx context.Context, event Event) error

	// Close closes the sink and releases any resources.
	Close() error
}
