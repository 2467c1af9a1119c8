package entity

import (
	"fmt"
	"time"
)

// Customer represents an account that places orders.
// Placement only references customers; it never mutates them.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewCustomer creates a new Customer entity with validation.
func NewCustomer(id, name, email string) (*Customer, error) {
	c := &Customer{
		ID:    id,
		Name:  name,
		Email: email,
	}
	if c.ID == "" {
		return nil, fmt.Errorf("id must not be empty")
	}
	if c.Name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}
	return c, nil
}
