package accounts

import (
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// NormalBalance enumerates the side an account normally carries.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// ImpliedNormalBalance returns the side implied by the account type.
func ImpliedNormalBalance(t AccountType) NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// Account models a chart of accounts node. Codes are unique per
// organization; rows are never hard-deleted, only deactivated.
type Account struct {
	ID                 uuid.UUID
	OrgID              uuid.UUID
	Code               string
	Name               string
	Type               AccountType
	NormalBalance      NormalBalance
	IsActive           bool
	AllowManualEntries bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
