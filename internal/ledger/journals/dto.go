package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrUnbalanced indicates debit != credit across the entry.
	ErrUnbalanced = shared.Integrity("journals: entry lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = shared.Validation("journals: entry requires at least two lines")
	// ErrAccountNotFound indicates a line references a missing account.
	ErrAccountNotFound = shared.NotFound("journals: line account not found")
	// ErrAccountInactive indicates a line references a deactivated account.
	ErrAccountInactive = shared.State("journals: line account is inactive")
	// ErrEntryNotFound indicates a missing entry or wrong organization.
	ErrEntryNotFound = shared.NotFound("journals: entry not found")
	// ErrAlreadyPosted indicates the entry is immutable.
	ErrAlreadyPosted = shared.State("journals: entry already posted")
	// ErrNotPosted indicates the operation requires a posted entry.
	ErrNotPosted = shared.State("journals: entry is not posted")
)

// EntryLineInput describes one journal line of a posting request.
type EntryLineInput struct {
	AccountID uuid.UUID
	Debit     float64
	Credit    float64
}

// CreateEntryInput groups fields required to create a journal entry.
type CreateEntryInput struct {
	OrgID       uuid.UUID
	EntryDate   time.Time
	Type        EntryType
	Description string
	Reference   Reference
	Post        bool
	CreatedBy   uuid.UUID
	Lines       []EntryLineInput
}

// Validate ensures the entry is well formed and balanced before anything
// touches the database.
func (in CreateEntryInput) Validate() error {
	if in.OrgID == uuid.Nil {
		return shared.Validation("journals: organization required")
	}
	if in.EntryDate.IsZero() {
		return shared.Validation("journals: entry date required")
	}
	switch in.Type {
	case EntryTypeManual, EntryTypeAutomatic, EntryTypeAdjustment:
	default:
		return shared.Validation("journals: unknown entry type")
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == uuid.Nil {
			return shared.Validation(fmt.Sprintf("journals: line %d missing account", idx))
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.Validation(fmt.Sprintf("journals: line %d negative amount", idx))
		}
		if line.Debit > 0 && line.Credit > 0 {
			return shared.Validation(fmt.Sprintf("journals: line %d cannot be both debit and credit", idx))
		}
		if line.Debit == 0 && line.Credit == 0 {
			return shared.Validation(fmt.Sprintf("journals: line %d requires a debit or credit amount", idx))
		}
		debit += line.Debit
		credit += line.Credit
	}
	if !amountsEqual(debit, credit) {
		return ErrUnbalanced
	}
	return nil
}

// amountsEqual compares two monetary sums at 2-decimal precision.
func amountsEqual(a, b float64) bool {
	return fmt.Sprintf("%.2f", a) == fmt.Sprintf("%.2f", b)
}
