package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// InvoiceType discriminates receivable (customer) from payable (supplier)
// invoices; both live in the same table.
type InvoiceType string

const (
	TypeReceivable InvoiceType = "receivable"
	TypePayable    InvoiceType = "payable"
)

// InvoiceStatus enumerates the invoice state machine.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusApproved  InvoiceStatus = "approved"
	StatusPartial   InvoiceStatus = "partial"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// PaymentState tracks how much of the invoice has been allocated.
type PaymentState string

const (
	PaymentStateUnpaid        PaymentState = "unpaid"
	PaymentStatePartiallyPaid PaymentState = "partially_paid"
	PaymentStatePaid          PaymentState = "paid"
)

// Invoice is the unified receivable/payable record. Totals are computed
// from the lines, never caller-supplied; netAmount == totalAmount -
// discountAmount and tax is additive into totalAmount.
type Invoice struct {
	ID             uuid.UUID
	OrgID          uuid.UUID
	Type           InvoiceType
	Party          shared.Party
	Number         string
	InvoiceDate    time.Time
	DueDate        time.Time
	Currency       string
	TotalAmount    float64
	TaxAmount      float64
	DiscountAmount float64
	NetAmount      float64
	Status         InvoiceStatus
	PaymentState   PaymentState
	SentAt         *time.Time
	ApprovedBy     *uuid.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lines          []InvoiceLine
}

// InvoiceLine carries a priced quantity against a GL account.
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	AccountID   uuid.UUID
	Description string
	Quantity    float64
	UnitPrice   float64
	TaxRate     float64
	TotalAmount float64
	LineNumber  int
	CreatedAt   time.Time
}

// IsOverdue is the read-time overdue predicate. The persisted overdue
// status is stamped by the sweep job; callers that cannot wait for the
// sweep use this instead.
func (inv Invoice) IsOverdue(now time.Time) bool {
	switch inv.Status {
	case StatusSent, StatusApproved, StatusPartial, StatusOverdue:
		return inv.DueDate.Before(now)
	default:
		return false
	}
}

// InvoiceApprovedEvent is handed to the posting hook after approval.
type InvoiceApprovedEvent struct {
	OrgID      uuid.UUID
	InvoiceID  uuid.UUID
	Type       InvoiceType
	Number     string
	Total      float64
	Tax        float64
	Net        float64
	ApprovedAt time.Time
	ApprovedBy uuid.UUID
}

// --- Input DTOs ---

// CreateInvoiceLineInput describes one invoice line.
type CreateInvoiceLineInput struct {
	AccountID   uuid.UUID `validate:"required"`
	Description string    `validate:"max=500"`
	Quantity    float64   `validate:"required,gt=0"`
	UnitPrice   float64   `validate:"gte=0"`
	TaxRate     float64   `validate:"gte=0,lte=100"`
}

// CreateInvoiceInput groups fields required to create an invoice.
type CreateInvoiceInput struct {
	OrgID          uuid.UUID   `validate:"required"`
	Type           InvoiceType `validate:"required,oneof=receivable payable"`
	Party          shared.Party
	Number         string    `validate:"max=64"`
	InvoiceDate    time.Time `validate:"required"`
	DueDate        time.Time `validate:"required"`
	Currency       string    `validate:"required,len=3"`
	DiscountAmount float64   `validate:"gte=0"`
	CreatedBy      uuid.UUID
	Lines          []CreateInvoiceLineInput `validate:"required,min=1,dive"`
}

// UpdateInvoiceInput replaces the mutable fields of a draft invoice.
type UpdateInvoiceInput struct {
	OrgID          uuid.UUID `validate:"required"`
	InvoiceID      uuid.UUID `validate:"required"`
	InvoiceDate    time.Time `validate:"required"`
	DueDate        time.Time `validate:"required"`
	DiscountAmount float64   `validate:"gte=0"`
	Lines          []CreateInvoiceLineInput `validate:"required,min=1,dive"`
}

// ListInvoicesRequest filters the invoice listing.
type ListInvoicesRequest struct {
	OrgID   uuid.UUID
	Type    InvoiceType
	Status  InvoiceStatus
	PartyID uuid.UUID
	Limit   int
	Offset  int
}
