package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrInvoiceNotFound indicates a missing invoice or wrong organization.
	ErrInvoiceNotFound = shared.NotFound("invoicing: invoice not found")
	// ErrInvalidState indicates the operation requires a draft invoice.
	ErrInvalidState = shared.State("invoicing: invoice is not in draft")
	// ErrAlreadyApproved indicates a repeated approval.
	ErrAlreadyApproved = shared.State("invoicing: invoice already approved")
	// ErrDuplicateNumber indicates the (org, type, number) triple exists.
	ErrDuplicateNumber = shared.Integrity("invoicing: invoice number already exists")
	// ErrHasAllocations indicates payments are already allocated.
	ErrHasAllocations = shared.State("invoicing: invoice has payment allocations")
	// ErrPartyMismatch indicates the party tag does not fit the invoice type.
	ErrPartyMismatch = shared.Validation("invoicing: party does not match invoice type")
)

// PostingHook receives approval events once journal postings are enabled.
// The current business model wires nothing here; approval is the only path
// that triggers postings when a hook is set.
type PostingHook interface {
	HandleInvoiceApproved(ctx context.Context, event InvoiceApprovedEvent) error
}

// AuditPort records ledger actions for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	hook  PostingHook
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// SetPostingHook injects the accounting integration hook.
func (s *Service) SetPostingHook(hook PostingHook) {
	s.hook = hook
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create computes totals from the lines and persists invoice plus lines in
// one transaction, in draft.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (Invoice, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Invoice{}, err
	}
	if err := shared.ValidateCurrency(input.Currency); err != nil {
		return Invoice{}, err
	}
	if err := input.Party.Validate(); err != nil {
		return Invoice{}, err
	}
	if !partyFitsType(input.Party.Type, input.Type) {
		return Invoice{}, ErrPartyMismatch
	}

	lines, totals := computeTotals(input.Lines, input.DiscountAmount)
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.Number == "" {
			number, err := tx.NextInvoiceNumber(ctx, input.Type)
			if err != nil {
				return err
			}
			input.Number = number
		}
		inserted, err := tx.Insert(ctx, input, totals)
		if err != nil {
			return err
		}
		insertedLines, err := tx.InsertLines(ctx, inserted.ID, lines)
		if err != nil {
			return err
		}
		inserted.Lines = insertedLines
		invoice = inserted
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, invoice.CreatedBy, "invoice.create", invoice)
	return invoice, nil
}

// Update replaces the lines and dates of a draft invoice and recomputes
// totals. Any other status is rejected.
func (s *Service) Update(ctx context.Context, input UpdateInvoiceInput) (Invoice, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Invoice{}, err
	}
	lines, totals := computeTotals(input.Lines, input.DiscountAmount)
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, input.OrgID, input.InvoiceID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidState
		}
		if err := tx.UpdateDraft(ctx, input, totals); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, input.InvoiceID); err != nil {
			return err
		}
		insertedLines, err := tx.InsertLines(ctx, input.InvoiceID, lines)
		if err != nil {
			return err
		}
		current.InvoiceDate = input.InvoiceDate
		current.DueDate = input.DueDate
		current.TotalAmount = totals.Total
		current.TaxAmount = totals.Tax
		current.DiscountAmount = totals.Discount
		current.NetAmount = totals.Net
		current.Lines = insertedLines
		invoice = current
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, shared.ActorFromContext(ctx), "invoice.update", invoice)
	return invoice, nil
}

// Approve moves a draft receivable to sent (stamping SentAt) or a draft
// payable to approved. Lines are immutable afterwards.
func (s *Service) Approve(ctx context.Context, orgID, invoiceID, actorID uuid.UUID) (Invoice, error) {
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrAlreadyApproved
		}
		next := StatusApproved
		var sentAt *time.Time
		if current.Type == TypeReceivable {
			next = StatusSent
			at := s.now()
			sentAt = &at
		}
		if err := tx.SetStatus(ctx, invoiceID, next, sentAt, &actorID); err != nil {
			return err
		}
		current.Status = next
		current.SentAt = sentAt
		current.ApprovedBy = &actorID
		invoice = current
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, actorID, "invoice.approve", invoice)
	if s.hook != nil {
		event := InvoiceApprovedEvent{
			OrgID:      invoice.OrgID,
			InvoiceID:  invoice.ID,
			Type:       invoice.Type,
			Number:     invoice.Number,
			Total:      invoice.TotalAmount,
			Tax:        invoice.TaxAmount,
			Net:        invoice.NetAmount,
			ApprovedAt: s.now(),
			ApprovedBy: actorID,
		}
		if err := s.hook.HandleInvoiceApproved(ctx, event); err != nil {
			return invoice, err
		}
	}
	return invoice, nil
}

// Cancel marks an unallocated, non-terminal invoice cancelled.
func (s *Service) Cancel(ctx context.Context, orgID, invoiceID uuid.UUID) (Invoice, error) {
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, invoiceID)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusPaid, StatusCancelled:
			return ErrInvalidState
		}
		allocated, err := tx.SumAllocations(ctx, invoiceID)
		if err != nil {
			return err
		}
		if allocated > 0 {
			return ErrHasAllocations
		}
		if err := tx.SetStatus(ctx, invoiceID, StatusCancelled, nil, nil); err != nil {
			return err
		}
		current.Status = StatusCancelled
		invoice = current
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, shared.ActorFromContext(ctx), "invoice.cancel", invoice)
	return invoice, nil
}

// Delete removes a draft invoice with its lines. Any other status is
// rejected; approved invoices are cancelled instead.
func (s *Service) Delete(ctx context.Context, orgID, invoiceID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidState
		}
		return tx.Delete(ctx, invoiceID)
	})
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (Invoice, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) record(ctx context.Context, actorID uuid.UUID, action string, invoice Invoice) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    invoice.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: invoice.ID.String(),
		Meta: map[string]any{
			"number": invoice.Number,
			"status": string(invoice.Status),
		},
		At: s.now(),
	})
}

// computeTotals derives line totals and invoice totals. For each line,
// lineTotal = quantity * unitPrice, lineTax = lineTotal * taxRate/100 and
// the line total carries the tax; the invoice total is the sum of the
// taxed line totals.
func computeTotals(inputs []CreateInvoiceLineInput, discount float64) ([]InvoiceLine, Totals) {
	lines := make([]InvoiceLine, 0, len(inputs))
	var total, tax float64
	for idx, in := range inputs {
		lineTotal := in.Quantity * in.UnitPrice
		lineTax := lineTotal * in.TaxRate / 100
		lines = append(lines, InvoiceLine{
			AccountID:   in.AccountID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			TotalAmount: lineTotal + lineTax,
			LineNumber:  idx + 1,
		})
		total += lineTotal + lineTax
		tax += lineTax
	}
	return lines, Totals{
		Total:    total,
		Tax:      tax,
		Discount: discount,
		Net:      total - discount,
	}
}

func partyFitsType(partyType shared.PartyType, invoiceType InvoiceType) bool {
	switch invoiceType {
	case TypeReceivable:
		return partyType == shared.PartyCustomer
	case TypePayable:
		return partyType == shared.PartySupplier
	default:
		return false
	}
}
