package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a placed order. Orders are written once by the
// placement transaction and never mutated afterwards.
type Order struct {
	ID              string
	CustomerID      string
	OrderDate       time.Time
	TotalAmount     decimal.Decimal
	DeliveryFee     decimal.Decimal
	DiscountApplied decimal.Decimal
}

// OrderLine captures one product position of an order. The unit price is
// snapshotted at placement time so later catalog price changes do not
// rewrite order history.
type OrderLine struct {
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// NewOrder creates a new Order entity with validation.
// TotalAmount is derived: quantity x unitPrice minus discount.
func NewOrder(id, customerID string, orderDate time.Time, quantity int, unitPrice, discount, deliveryFee decimal.Decimal) (*Order, error) {
	o := &Order{
		ID:              id,
		CustomerID:      customerID,
		OrderDate:       orderDate,
		TotalAmount:     ComputeTotal(quantity, unitPrice, discount),
		DeliveryFee:     deliveryFee,
		DiscountApplied: discount,
	}
	if err := o.validate(quantity, unitPrice); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) validate(quantity int, unitPrice decimal.Decimal) error {
	if o.ID == "" {
		return fmt.Errorf("id must not be empty")
	}
	if o.CustomerID == "" {
		return fmt.Errorf("customerID must not be empty")
	}
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("unitPrice must be non-negative, got %s", unitPrice)
	}
	if o.DiscountApplied.IsNegative() {
		return fmt.Errorf("discount must be non-negative, got %s", o.DiscountApplied)
	}
	if o.DeliveryFee.IsNegative() {
		return fmt.Errorf("deliveryFee must be non-negative, got %s", o.DeliveryFee)
	}
	return nil
}

// NewOrderLine creates a new OrderLine entity with validation.
func NewOrderLine(orderID, productID string, quantity int, unitPrice, discount decimal.Decimal) (*OrderLine, error) {
	l := &OrderLine{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Discount:  discount,
	}
	if l.OrderID == "" {
		return nil, fmt.Errorf("orderID must not be empty")
	}
	if l.ProductID == "" {
		return nil, fmt.Errorf("productID must not be empty")
	}
	if l.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", l.Quantity)
	}
	if l.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("unitPrice must be non-negative, got %s", l.UnitPrice)
	}
	return l, nil
}

// ComputeTotal derives the order amount from the snapshotted unit price.
func ComputeTotal(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
}
