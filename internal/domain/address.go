package domain

import (
	"time"
)

// AddressType distinguishes billing from shipping addresses. The database
// enforces the same set with a CHECK constraint.
type AddressType string

const (
	AddressTypeBilling  AddressType = "BILLING"
	AddressTypeShipping AddressType = "SHIPPING"
)

// Valid reports whether t is one of the known address types.
func (t AddressType) Valid() bool {
	return t == AddressTypeBilling || t == AddressTypeShipping
}

// Address represents one postal address owned by a user.
//
// Invariant: for a given (UserID, Type) pair at most one address has
// IsDefault = true. Every mutation path through AddressRepository preserves
// this inside a single transaction.
type Address struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Type         AddressType `json:"type"`
	AddressLine1 string      `json:"address_line1"`
	AddressLine2 string      `json:"address_line2,omitempty"`
	City         string      `json:"city"`
	State        string      `json:"state,omitempty"`
	PostalCode   string      `json:"postal_code"`
	Country      string      `json:"country"`
	IsDefault    bool        `json:"is_default"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
