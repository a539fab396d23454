package integration

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journals"
	"github.com/meridian-erp/meridian-erp/internal/ledger/mappings"
	"github.com/meridian-erp/meridian-erp/internal/payments"
)

// Hooks turns invoice-approved and payment-cleared events into balanced,
// immediately posted journal entries using the per-organization account
// mappings. Wire an instance into the invoicing and payments services to
// enable accrual postings; leave them nil to keep the ledger silent.
type Hooks struct {
	journals *journals.Service
	mappings mappings.Repository
	logger   *slog.Logger
}

func NewHooks(journalService *journals.Service, mappingRepo mappings.Repository, logger *slog.Logger) *Hooks {
	return &Hooks{journals: journalService, mappings: mappingRepo, logger: logger}
}

// HandleInvoiceApproved posts the AR/AP accrual for an approved invoice.
// Receivable: Dr ar_control total / Cr revenue net-of-tax, Cr tax.
// Payable: Dr expense net-of-tax, Dr tax / Cr ap_control total.
func (h *Hooks) HandleInvoiceApproved(ctx context.Context, event invoicing.InvoiceApprovedEvent) error {
	control := mappings.PurposeARControl
	counter := mappings.PurposeRevenue
	if event.Type == invoicing.TypePayable {
		control = mappings.PurposeAPControl
		counter = mappings.PurposeExpense
	}
	controlAccount, err := h.mappings.Get(ctx, event.OrgID, control)
	if err != nil {
		return err
	}
	counterAccount, err := h.mappings.Get(ctx, event.OrgID, counter)
	if err != nil {
		return err
	}
	base := event.Total - event.Tax
	var lines []journals.EntryLineInput
	if event.Type == invoicing.TypeReceivable {
		lines = append(lines, journals.EntryLineInput{AccountID: controlAccount.AccountID, Debit: event.Total})
		lines = append(lines, journals.EntryLineInput{AccountID: counterAccount.AccountID, Credit: base})
	} else {
		lines = append(lines, journals.EntryLineInput{AccountID: counterAccount.AccountID, Debit: base})
		lines = append(lines, journals.EntryLineInput{AccountID: controlAccount.AccountID, Credit: event.Total})
	}
	if event.Tax > 0 {
		taxAccount, err := h.mappings.Get(ctx, event.OrgID, mappings.PurposeTax)
		if err != nil {
			return err
		}
		taxLine := journals.EntryLineInput{AccountID: taxAccount.AccountID, Credit: event.Tax}
		if event.Type == invoicing.TypePayable {
			taxLine = journals.EntryLineInput{AccountID: taxAccount.AccountID, Debit: event.Tax}
		}
		lines = append(lines, taxLine)
	}
	entry, err := h.journals.CreateEntry(ctx, journals.CreateEntryInput{
		OrgID:       event.OrgID,
		EntryDate:   event.ApprovedAt,
		Type:        journals.EntryTypeAutomatic,
		Description: "Accrual for invoice " + event.Number,
		Reference:   journals.InvoiceRef(event.InvoiceID),
		Post:        true,
		CreatedBy:   event.ApprovedBy,
		Lines:       lines,
	})
	if err != nil {
		return err
	}
	h.log("invoice accrual posted", event.OrgID, entry.Number)
	return nil
}

// HandlePaymentCleared posts the bank movement for a cleared payment.
// Received: Dr bank / Cr ar_control. Sent: Dr ap_control / Cr bank.
func (h *Hooks) HandlePaymentCleared(ctx context.Context, event payments.PaymentClearedEvent) error {
	bank, err := h.mappings.Get(ctx, event.OrgID, mappings.PurposeBank)
	if err != nil {
		return err
	}
	control := mappings.PurposeARControl
	if event.Type == payments.TypeSent {
		control = mappings.PurposeAPControl
	}
	controlAccount, err := h.mappings.Get(ctx, event.OrgID, control)
	if err != nil {
		return err
	}
	var lines []journals.EntryLineInput
	if event.Type == payments.TypeReceived {
		lines = []journals.EntryLineInput{
			{AccountID: bank.AccountID, Debit: event.Amount},
			{AccountID: controlAccount.AccountID, Credit: event.Amount},
		}
	} else {
		lines = []journals.EntryLineInput{
			{AccountID: controlAccount.AccountID, Debit: event.Amount},
			{AccountID: bank.AccountID, Credit: event.Amount},
		}
	}
	entry, err := h.journals.CreateEntry(ctx, journals.CreateEntryInput{
		OrgID:       event.OrgID,
		EntryDate:   event.ClearedAt,
		Type:        journals.EntryTypeAutomatic,
		Description: "Clearing for payment " + event.Number,
		Reference:   journals.PaymentRef(event.PaymentID),
		Post:        true,
		Lines:       lines,
	})
	if err != nil {
		return err
	}
	h.log("payment clearing posted", event.OrgID, entry.Number)
	return nil
}

func (h *Hooks) log(msg string, orgID uuid.UUID, number string) {
	if h.logger == nil {
		return
	}
	h.logger.Info(msg, slog.String("org", orgID.String()), slog.String("entry", number))
}
