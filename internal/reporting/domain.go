package reporting

import (
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AgingBucket summarises open balances by days overdue.
type AgingBucket struct {
	Current   float64
	Bucket30  float64
	Bucket60  float64
	Bucket90  float64
	Bucket120 float64
}

// Total sums all buckets.
func (b AgingBucket) Total() float64 {
	return b.Current + b.Bucket30 + b.Bucket60 + b.Bucket90 + b.Bucket120
}

// InvoiceBalance is one open invoice with its remaining balance.
type InvoiceBalance struct {
	InvoiceID uuid.UUID
	Number    string
	DueDate   time.Time
	Total     float64
	Paid      float64
	Balance   float64
}

// PartyStatement bundles everything a statement view needs for one party.
type PartyStatement struct {
	Party        shared.Party
	Balance      float64
	Aging        AgingBucket
	OpenInvoices []InvoiceBalance
	AsOf         time.Time
}
