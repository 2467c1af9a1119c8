package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog item.
// Price is nullable: a product can be listed before pricing is finalized,
// and such products cannot be ordered until a price is set.
type Product struct {
	ID            string
	Name          string
	Price         decimal.NullDecimal
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProduct creates a new Product entity with validation.
func NewProduct(id, name string, price decimal.NullDecimal, stockQuantity int) (*Product, error) {
	p := &Product{
		ID:            id,
		Name:          name,
		Price:         price,
		StockQuantity: stockQuantity,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// validate checks that all fields have valid values.
func (p *Product) validate() error {
	if p.ID == "" {
		return fmt.Errorf("id must not be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if p.Price.Valid && p.Price.Decimal.IsNegative() {
		return fmt.Errorf("price must be non-negative, got %s", p.Price.Decimal)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("stockQuantity must be non-negative, got %d", p.StockQuantity)
	}
	return nil
}

// HasPrice reports whether the product has a usable unit price.
func (p *Product) HasPrice() bool {
	return p.Price.Valid
}

// UnitPrice returns the unit price. Callers must check HasPrice first;
// a product without a price returns zero.
func (p *Product) UnitPrice() decimal.Decimal {
	if !p.Price.Valid {
		return decimal.Zero
	}
	return p.Price.Decimal
}
