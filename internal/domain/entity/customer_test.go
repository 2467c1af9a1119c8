package entity

import (
	"strings"
	"testing"
)

func TestNewCustomer(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		custName    string
		email       string
		wantErr     bool
		errContains string
	}{
		{
			name:     "valid customer",
			id:       "cust-1",
			custName: "Ada",
			email:    "ada@example.com",
		},
		{
			name:     "email is optional",
			id:       "cust-2",
			custName: "Grace",
		},
		{
			name:        "empty id",
			custName:    "Ada",
			wantErr:     true,
			errContains: "id must not be empty",
		},
		{
			name:        "empty name",
			id:          "cust-1",
			wantErr:     true,
			errContains: "name must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCustomer(tt.id, tt.custName, tt.email)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCustomer() failed: %v", err)
			}
			if c.ID != tt.id || c.Name != tt.custName {
				t.Errorf("customer = %+v", c)
			}
		})
	}
}
