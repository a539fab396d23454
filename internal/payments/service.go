package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/invoicing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrPaymentNotFound indicates a missing payment or wrong organization.
	ErrPaymentNotFound = shared.NotFound("payments: payment not found")
	// ErrInvoiceNotFound indicates an allocation targets a missing invoice.
	ErrInvoiceNotFound = shared.NotFound("payments: allocated invoice not found")
	// ErrCrossOrganization indicates an allocation crosses tenants.
	ErrCrossOrganization = shared.NotFound("payments: invoice belongs to a different organization")
	// ErrOverAllocation indicates allocations exceed the payment amount or
	// an invoice total.
	ErrOverAllocation = shared.Integrity("payments: allocation exceeds available amount")
	// ErrInvalidTransition indicates an illegal payment status change.
	ErrInvalidTransition = shared.State("payments: invalid status transition")
	// ErrPartyMismatch indicates the party tag does not fit the payment type.
	ErrPartyMismatch = shared.Validation("payments: party does not match payment type")
)

// PostingHook receives cleared events once journal postings are enabled.
type PostingHook interface {
	HandlePaymentCleared(ctx context.Context, event PaymentClearedEvent) error
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

// Record persists the payment with its allocations and recomputes the
// payment state of every allocated invoice, all in one transaction. Each
// invoice row is locked before its allocations are summed, so concurrent
// payments against the same invoice serialize instead of double counting.
func (s *Service) Record(ctx context.Context, input RecordPaymentInput) (Payment, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Payment{}, err
	}
	if err := input.Party.Validate(); err != nil {
		return Payment{}, err
	}
	if !partyFitsType(input.Party.Type, input.Type) {
		return Payment{}, ErrPartyMismatch
	}
	var allocated float64
	for _, alloc := range input.Allocations {
		allocated += alloc.Amount
	}
	if centsGreater(allocated, input.Amount) {
		return Payment{}, ErrOverAllocation
	}
	status := input.Status
	if status == "" {
		status = StatusPending
	}

	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.Number == "" {
			number, err := tx.NextPaymentNumber(ctx)
			if err != nil {
				return err
			}
			input.Number = number
		}
		inserted, err := tx.InsertPayment(ctx, input, status)
		if err != nil {
			return err
		}
		for _, alloc := range input.Allocations {
			invoice, err := tx.GetInvoiceForUpdate(ctx, alloc.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.OrgID != input.OrgID {
				return ErrCrossOrganization
			}
			created, err := tx.InsertAllocation(ctx, inserted.ID, alloc)
			if err != nil {
				return err
			}
			inserted.Allocations = append(inserted.Allocations, created)
			if err := s.recomputeInvoiceState(ctx, tx, invoice); err != nil {
				return err
			}
		}
		payment = inserted
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, input.CreatedBy, "payment.record", payment)
	if status == StatusCleared {
		if err := s.fireCleared(ctx, payment); err != nil {
			return payment, err
		}
	}
	return payment, nil
}

// recomputeInvoiceState re-reads ALL allocations of the locked invoice and
// derives the payment state. The invoice status only ever moves to paid
// here; partially allocated invoices keep their current status (a draft
// invoice that receives money stays draft). That asymmetry matches the
// historical behavior and is pinned by a regression test.
func (s *Service) recomputeInvoiceState(ctx context.Context, tx TxRepository, invoice InvoiceState) error {
	totalPaid, err := tx.SumInvoiceAllocations(ctx, invoice.ID)
	if err != nil {
		return err
	}
	if centsGreater(totalPaid, invoice.TotalAmount) {
		return shared.Wrap(shared.KindIntegrity, fmt.Sprintf("payments: invoice %s over-allocated", invoice.ID), ErrOverAllocation)
	}
	isPaid := !centsGreater(invoice.TotalAmount, totalPaid)
	paymentState := string(invoicing.PaymentStatePartiallyPaid)
	status := invoice.Status
	if isPaid {
		paymentState = string(invoicing.PaymentStatePaid)
		status = string(invoicing.StatusPaid)
	}
	return tx.UpdateInvoicePaymentState(ctx, invoice.ID, paymentState, status)
}

// UpdateStatus owns the pending → cleared/bounced/cancelled transitions.
// Clearing fires the posting hook.
func (s *Service) UpdateStatus(ctx context.Context, orgID, paymentID uuid.UUID, next Status) (Payment, error) {
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPaymentForUpdate(ctx, orgID, paymentID)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return ErrInvalidTransition
		}
		switch next {
		case StatusCleared, StatusBounced, StatusCancelled:
		default:
			return ErrInvalidTransition
		}
		if err := tx.SetPaymentStatus(ctx, paymentID, next); err != nil {
			return err
		}
		current.Status = next
		payment = current
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, shared.ActorFromContext(ctx), "payment."+string(next), payment)
	if next == StatusCleared {
		if err := s.fireCleared(ctx, payment); err != nil {
			return payment, err
		}
	}
	return payment, nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (Payment, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Payment, error) {
	return s.repo.List(ctx, orgID)
}

func (s *Service) fireCleared(ctx context.Context, payment Payment) error {
	if s.hook == nil {
		return nil
	}
	return s.hook.HandlePaymentCleared(ctx, PaymentClearedEvent{
		OrgID:     payment.OrgID,
		PaymentID: payment.ID,
		Type:      payment.Type,
		Number:    payment.Number,
		Amount:    payment.Amount,
		ClearedAt: s.now(),
	})
}

func (s *Service) record(ctx context.Context, actorID uuid.UUID, action string, payment Payment) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    payment.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "payment",
		EntityID: payment.ID.String(),
		Meta: map[string]any{
			"number": payment.Number,
			"status": string(payment.Status),
		},
		At: s.now(),
	})
}

func partyFitsType(partyType shared.PartyType, paymentType PaymentType) bool {
	switch paymentType {
	case TypeReceived:
		return partyType == shared.PartyCustomer
	case TypeSent:
		return partyType == shared.PartySupplier
	default:
		return false
	}
}

// centsGreater reports a > b beyond 2-decimal precision.
func centsGreater(a, b float64) bool {
	return fmt.Sprintf("%.2f", a) != fmt.Sprintf("%.2f", b) && a > b
}
