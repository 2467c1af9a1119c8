package entity

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func priced(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func unpriced() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

func TestNewProduct(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		productName string
		price       decimal.NullDecimal
		stock       int
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid product",
			id:          "P001",
			productName: "Organic Bananas",
			price:       priced("2.49"),
			stock:       120,
		},
		{
			name:        "valid product without price",
			id:          "P002",
			productName: "Seasonal Berries",
			price:       unpriced(),
			stock:       10,
		},
		{
			name:        "zero stock is allowed",
			id:          "P003",
			productName: "Oat Milk",
			price:       priced("3.99"),
			stock:       0,
		},
		{
			name:        "empty id",
			id:          "",
			productName: "Oat Milk",
			price:       priced("3.99"),
			stock:       1,
			wantErr:     true,
			errContains: "id must not be empty",
		},
		{
			name:        "empty name",
			id:          "P004",
			productName: "",
			price:       priced("3.99"),
			stock:       1,
			wantErr:     true,
			errContains: "name must not be empty",
		},
		{
			name:        "negative price",
			id:          "P005",
			productName: "Oat Milk",
			price:       priced("-0.01"),
			stock:       1,
			wantErr:     true,
			errContains: "price must be non-negative",
		},
		{
			name:        "negative stock",
			id:          "P006",
			productName: "Oat Milk",
			price:       priced("3.99"),
			stock:       -1,
			wantErr:     true,
			errContains: "stockQuantity must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(tt.id, tt.productName, tt.price, tt.stock)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewProduct() expected error, got nil")
					return
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewProduct() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("NewProduct() unexpected error = %v", err)
				return
			}
			if p.ID != tt.id {
				t.Errorf("NewProduct() ID = %v, want %v", p.ID, tt.id)
			}
			if p.StockQuantity != tt.stock {
				t.Errorf("NewProduct() StockQuantity = %v, want %v", p.StockQuantity, tt.stock)
			}
		})
	}
}

func TestProduct_HasPrice(t *testing.T) {
	withPrice := &Product{ID: "P001", Name: "Bananas", Price: priced("2.49")}
	if !withPrice.HasPrice() {
		t.Error("HasPrice() = false for priced product")
	}
	if got := withPrice.UnitPrice(); !got.Equal(decimal.RequireFromString("2.49")) {
		t.Errorf("UnitPrice() = %s, want 2.49", got)
	}

	withoutPrice := &Product{ID: "P002", Name: "Berries"}
	if withoutPrice.HasPrice() {
		t.Error("HasPrice() = true for unpriced product")
	}
	if got := withoutPrice.UnitPrice(); !got.IsZero() {
		t.Errorf("UnitPrice() = %s, want 0", got)
	}
}
