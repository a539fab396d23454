package shared

import "github.com/google/uuid"

// PartyType discriminates the two counterparty kinds.
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartySupplier PartyType = "supplier"
)

// Party is the tagged counterparty reference carried by invoices and
// payments. Exactly one of the two nullable customer/supplier columns is
// populated at the persistence edge, keyed by Type.
type Party struct {
	Type PartyType
	ID   uuid.UUID
}

// Customer builds a customer party reference.
func Customer(id uuid.UUID) Party { return Party{Type: PartyCustomer, ID: id} }

// Supplier builds a supplier party reference.
func Supplier(id uuid.UUID) Party { return Party{Type: PartySupplier, ID: id} }

// Validate checks the tag and the id.
func (p Party) Validate() error {
	if p.Type != PartyCustomer && p.Type != PartySupplier {
		return Validation("shared: unknown party type")
	}
	if p.ID == uuid.Nil {
		return Validation("shared: party id required")
	}
	return nil
}

// CustomerID returns the customer column value for persistence.
func (p Party) CustomerID() *uuid.UUID {
	if p.Type == PartyCustomer {
		id := p.ID
		return &id
	}
	return nil
}

// SupplierID returns the supplier column value for persistence.
func (p Party) SupplierID() *uuid.UUID {
	if p.Type == PartySupplier {
		id := p.ID
		return &id
	}
	return nil
}

// PartyFromColumns rebuilds the tagged reference from the two nullable
// columns. Rows written by this core always have exactly one populated.
func PartyFromColumns(customerID, supplierID *uuid.UUID) Party {
	if customerID != nil {
		return Party{Type: PartyCustomer, ID: *customerID}
	}
	if supplierID != nil {
		return Party{Type: PartySupplier, ID: *supplierID}
	}
	return Party{}
}
