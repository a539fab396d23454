package journals

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "draft"
	EntryStatusPosted EntryStatus = "posted"
)

// EntryType enumerates how an entry originated.
type EntryType string

const (
	EntryTypeManual     EntryType = "manual"
	EntryTypeAutomatic  EntryType = "automatic"
	EntryTypeAdjustment EntryType = "adjustment"
)

// ReferenceType enumerates the source record kinds an entry can point at.
type ReferenceType string

const (
	ReferenceInvoice ReferenceType = "invoice"
	ReferencePayment ReferenceType = "payment"
	ReferencePayroll ReferenceType = "payroll"
	ReferenceJournal ReferenceType = "journal"
)

// Reference is the tagged pointer back to the originating record. The zero
// value means the entry stands alone. It is stored as the nullable
// reference_type/reference_id column pair.
type Reference struct {
	Type ReferenceType
	ID   uuid.UUID
}

// InvoiceRef builds an invoice reference.
func InvoiceRef(id uuid.UUID) Reference { return Reference{Type: ReferenceInvoice, ID: id} }

// PaymentRef builds a payment reference.
func PaymentRef(id uuid.UUID) Reference { return Reference{Type: ReferencePayment, ID: id} }

// PayrollRef builds a payroll reference.
func PayrollRef(id uuid.UUID) Reference { return Reference{Type: ReferencePayroll, ID: id} }

// JournalRef builds a reference to another journal entry (reversals).
func JournalRef(id uuid.UUID) Reference { return Reference{Type: ReferenceJournal, ID: id} }

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool { return r.Type == "" && r.ID == uuid.Nil }

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Number      string
	EntryDate   time.Time
	Type        EntryType
	Description string
	Reference   Reference
	Status      EntryStatus
	PostedAt    *time.Time
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []JournalLine
}

// JournalLine stores a debit or credit amount for an account. Exactly one
// of Debit/Credit is positive; the database enforces the same rule with a
// check constraint.
type JournalLine struct {
	ID         uuid.UUID
	EntryID    uuid.UUID
	AccountID  uuid.UUID
	Debit      float64
	Credit     float64
	LineNumber int
	CreatedAt  time.Time
}
