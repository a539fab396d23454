package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines payment data access.
type Repository interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (Payment, error)
	List(ctx context.Context, orgID uuid.UUID) ([]Payment, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository defines operations within a transaction. The invoice lock
// and the payment-state recompute live here so the whole
// read-recompute-update cycle shares one transaction.
type TxRepository interface {
	NextPaymentNumber(ctx context.Context) (string, error)
	InsertPayment(ctx context.Context, in RecordPaymentInput, status Status) (Payment, error)
	InsertAllocation(ctx context.Context, paymentID uuid.UUID, alloc AllocationInput) (Allocation, error)
	GetInvoiceForUpdate(ctx context.Context, invoiceID uuid.UUID) (InvoiceState, error)
	SumInvoiceAllocations(ctx context.Context, invoiceID uuid.UUID) (float64, error)
	UpdateInvoicePaymentState(ctx context.Context, invoiceID uuid.UUID, paymentState, status string) error
	GetPaymentForUpdate(ctx context.Context, orgID, id uuid.UUID) (Payment, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const paymentColumns = `id, org_id, payment_type, customer_id, supplier_id, payment_number, payment_date, amount, payment_method, reference_number, status, created_by, created_at, updated_at`

const insertPaymentSQL = `INSERT INTO payments (org_id, payment_type, customer_id, supplier_id, payment_number, payment_date, amount, payment_method, reference_number, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING ` + paymentColumns

func (r *pgRepository) Get(ctx context.Context, orgID, id uuid.UUID) (Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE org_id=$1 AND id=$2`, orgID, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	allocations, err := r.queryAllocations(ctx, payment.ID)
	if err != nil {
		return Payment{}, err
	}
	payment.Allocations = allocations
	return payment, nil
}

func (r *pgRepository) List(ctx context.Context, orgID uuid.UUID) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE org_id=$1 ORDER BY payment_date DESC, payment_number DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, payment)
	}
	return out, rows.Err()
}

func (r *pgRepository) queryAllocations(ctx context.Context, paymentID uuid.UUID) ([]Allocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, payment_id, invoice_id, allocated_amount, created_at FROM payment_allocations WHERE payment_id=$1 ORDER BY created_at ASC`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Allocation
	for rows.Next() {
		var alloc Allocation
		if err := rows.Scan(&alloc.ID, &alloc.PaymentID, &alloc.InvoiceID, &alloc.Amount, &alloc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, alloc)
	}
	return out, rows.Err()
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextPaymentNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('payment_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("PAY-%06d", seq), nil
}

func (r *txRepository) InsertPayment(ctx context.Context, in RecordPaymentInput, status Status) (Payment, error) {
	row := r.tx.QueryRow(ctx, insertPaymentSQL,
		in.OrgID, in.Type, in.Party.CustomerID(), in.Party.SupplierID(), in.Number, in.PaymentDate, toNumeric(in.Amount), in.Method, in.Reference, status, in.CreatedBy)
	return scanPayment(row)
}

func (r *txRepository) InsertAllocation(ctx context.Context, paymentID uuid.UUID, alloc AllocationInput) (Allocation, error) {
	var inserted Allocation
	err := r.tx.QueryRow(ctx, `INSERT INTO payment_allocations (payment_id, invoice_id, allocated_amount)
VALUES ($1,$2,$3) RETURNING id, payment_id, invoice_id, allocated_amount, created_at`,
		paymentID, alloc.InvoiceID, toNumeric(alloc.Amount)).
		Scan(&inserted.ID, &inserted.PaymentID, &inserted.InvoiceID, &inserted.Amount, &inserted.CreatedAt)
	return inserted, err
}

// GetInvoiceForUpdate locks the invoice row so concurrent allocations
// against the same invoice serialize; this is what prevents two payments
// from both deciding "not yet paid" on stale totals.
func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, invoiceID uuid.UUID) (InvoiceState, error) {
	var state InvoiceState
	err := r.tx.QueryRow(ctx, `SELECT id, org_id, status, payment_status, total_amount FROM invoices WHERE id=$1 FOR UPDATE`, invoiceID).
		Scan(&state.ID, &state.OrgID, &state.Status, &state.PaymentState, &state.TotalAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InvoiceState{}, ErrInvoiceNotFound
		}
		return InvoiceState{}, err
	}
	return state, nil
}

func (r *txRepository) SumInvoiceAllocations(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var total float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(allocated_amount), 0) FROM payment_allocations WHERE invoice_id=$1`, invoiceID).Scan(&total)
	return total, err
}

func (r *txRepository) UpdateInvoicePaymentState(ctx context.Context, invoiceID uuid.UUID, paymentState, status string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET payment_status=$2, status=$3, updated_at=NOW() WHERE id=$1`, invoiceID, paymentState, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, orgID, id uuid.UUID) (Payment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return payment, nil
}

func (r *txRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var customerID, supplierID *uuid.UUID
	err := row.Scan(&p.ID, &p.OrgID, &p.Type, &customerID, &supplierID, &p.Number, &p.PaymentDate, &p.Amount, &p.Method, &p.Reference, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Party = shared.PartyFromColumns(customerID, supplierID)
	return p, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
