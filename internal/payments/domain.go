package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PaymentType discriminates money received from money sent.
type PaymentType string

const (
	TypeReceived PaymentType = "received"
	TypeSent     PaymentType = "sent"
)

// Method enumerates payment instruments.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCheck        Method = "check"
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodOnline       Method = "online"
)

// Status enumerates payment lifecycle values.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCleared   Status = "cleared"
	StatusBounced   Status = "bounced"
	StatusCancelled Status = "cancelled"
)

// Payment is the unified received/sent record. Allocations are created in
// the same transaction as the payment and are append-only afterwards.
type Payment struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Type        PaymentType
	Party       shared.Party
	Number      string
	PaymentDate time.Time
	Amount      float64
	Method      Method
	Reference   string
	Status      Status
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Allocations []Allocation
}

// Allocation applies part of a payment to one invoice.
type Allocation struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	InvoiceID uuid.UUID
	Amount    float64
	CreatedAt time.Time
}

// InvoiceState is the slice of an invoice the allocator reads under lock.
type InvoiceState struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	Status       string
	PaymentState string
	TotalAmount  float64
}

// PaymentClearedEvent is handed to the posting hook when a payment clears.
type PaymentClearedEvent struct {
	OrgID     uuid.UUID
	PaymentID uuid.UUID
	Type      PaymentType
	Number    string
	Amount    float64
	ClearedAt time.Time
}

// --- Input DTOs ---

// AllocationInput applies part of the payment amount to an invoice.
type AllocationInput struct {
	InvoiceID uuid.UUID `validate:"required"`
	Amount    float64   `validate:"required,gt=0"`
}

// RecordPaymentInput groups fields required to record a payment with its
// allocations.
type RecordPaymentInput struct {
	OrgID       uuid.UUID   `validate:"required"`
	Type        PaymentType `validate:"required,oneof=received sent"`
	Party       shared.Party
	Number      string    `validate:"max=64"`
	PaymentDate time.Time `validate:"required"`
	Amount      float64   `validate:"required,gt=0"`
	Method      Method    `validate:"required,oneof=bank_transfer check cash card online"`
	Reference   string    `validate:"max=128"`
	Status      Status    `validate:"omitempty,oneof=pending cleared"`
	CreatedBy   uuid.UUID
	Allocations []AllocationInput `validate:"required,min=1,dive"`
}
