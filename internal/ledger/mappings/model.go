package mappings

import (
	"time"

	"github.com/google/uuid"
)

// Purpose identifies the role an account plays in automatic postings.
type Purpose string

const (
	PurposeARControl Purpose = "ar_control"
	PurposeAPControl Purpose = "ap_control"
	PurposeRevenue   Purpose = "revenue"
	PurposeExpense   Purpose = "expense"
	PurposeTax       Purpose = "tax"
	PurposeBank      Purpose = "bank"
)

// AccountMapping links a posting purpose to a ledger account per
// organization.
type AccountMapping struct {
	OrgID     uuid.UUID
	Purpose   Purpose
	AccountID uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
