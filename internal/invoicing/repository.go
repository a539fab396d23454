package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines invoice data access.
type Repository interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository defines operations within a transaction.
type TxRepository interface {
	NextInvoiceNumber(ctx context.Context, invoiceType InvoiceType) (string, error)
	Insert(ctx context.Context, in CreateInvoiceInput, totals Totals) (Invoice, error)
	InsertLines(ctx context.Context, invoiceID uuid.UUID, lines []InvoiceLine) ([]InvoiceLine, error)
	DeleteLines(ctx context.Context, invoiceID uuid.UUID) error
	GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (Invoice, error)
	GetLines(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceLine, error)
	UpdateDraft(ctx context.Context, in UpdateInvoiceInput, totals Totals) error
	SetStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, sentAt *time.Time, approvedBy *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	SumAllocations(ctx context.Context, invoiceID uuid.UUID) (float64, error)
}

// Totals holds the computed monetary fields for persistence.
type Totals struct {
	Total    float64
	Tax      float64
	Discount float64
	Net      float64
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const invoiceColumns = `id, org_id, invoice_type, customer_id, supplier_id, invoice_number, invoice_date, due_date, currency,
total_amount, tax_amount, discount_amount, net_amount, status, payment_status, sent_at, approved_by, created_by, created_at, updated_at`

func (r *pgRepository) Get(ctx context.Context, orgID, id uuid.UUID) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE org_id=$1 AND id=$2`, orgID, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	lines, err := queryLines(ctx, r.pool, inv.ID)
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines = lines
	return inv, nil
}

func (r *pgRepository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE org_id=$1`
	args := []any{req.OrgID}
	if req.Type != "" {
		args = append(args, req.Type)
		query += fmt.Sprintf(" AND invoice_type=$%d", len(args))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if req.PartyID != uuid.Nil {
		args = append(args, req.PartyID)
		query += fmt.Sprintf(" AND (customer_id=$%d OR supplier_id=$%d)", len(args), len(args))
	}
	query += " ORDER BY invoice_date DESC, invoice_number DESC"
	if req.Limit > 0 {
		args = append(args, req.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if req.Offset > 0 {
		args = append(args, req.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
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

func (r *txRepository) NextInvoiceNumber(ctx context.Context, invoiceType InvoiceType) (string, error) {
	prefix, seqName := "INV", "invoice_number_seq"
	if invoiceType == TypePayable {
		prefix, seqName = "BILL", "bill_number_seq"
	}
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('`+seqName+`')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, seq), nil
}

func (r *txRepository) Insert(ctx context.Context, in CreateInvoiceInput, totals Totals) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO invoices (org_id, invoice_type, customer_id, supplier_id, invoice_number, invoice_date, due_date, currency,
total_amount, tax_amount, discount_amount, net_amount, status, payment_status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15) RETURNING `+invoiceColumns,
		in.OrgID, in.Type, in.Party.CustomerID(), in.Party.SupplierID(), in.Number, in.InvoiceDate, in.DueDate, in.Currency,
		toNumeric(totals.Total), toNumeric(totals.Tax), toNumeric(totals.Discount), toNumeric(totals.Net),
		StatusDraft, PaymentStateUnpaid, in.CreatedBy)
	inv, err := scanInvoice(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_invoices_org_type_number" {
			return Invoice{}, ErrDuplicateNumber
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) InsertLines(ctx context.Context, invoiceID uuid.UUID, lines []InvoiceLine) ([]InvoiceLine, error) {
	out := make([]InvoiceLine, 0, len(lines))
	for _, line := range lines {
		var inserted InvoiceLine
		err := r.tx.QueryRow(ctx, `INSERT INTO invoice_lines (invoice_id, account_id, description, quantity, unit_price, tax_rate, total_amount, line_number)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, invoice_id, account_id, description, quantity, unit_price, tax_rate, total_amount, line_number, created_at`,
			invoiceID, line.AccountID, line.Description, toNumeric(line.Quantity), toNumeric(line.UnitPrice), toNumeric(line.TaxRate), toNumeric(line.TotalAmount), line.LineNumber).
			Scan(&inserted.ID, &inserted.InvoiceID, &inserted.AccountID, &inserted.Description, &inserted.Quantity, &inserted.UnitPrice, &inserted.TaxRate, &inserted.TotalAmount, &inserted.LineNumber, &inserted.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) DeleteLines(ctx context.Context, invoiceID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id=$1`, invoiceID)
	return err
}

func (r *txRepository) GetForUpdate(ctx context.Context, orgID, id uuid.UUID) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) GetLines(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceLine, error) {
	return queryLines(ctx, r.tx, invoiceID)
}

func (r *txRepository) UpdateDraft(ctx context.Context, in UpdateInvoiceInput, totals Totals) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET invoice_date=$2, due_date=$3, total_amount=$4, tax_amount=$5, discount_amount=$6, net_amount=$7, updated_at=NOW()
WHERE id=$1`, in.InvoiceID, in.InvoiceDate, in.DueDate, toNumeric(totals.Total), toNumeric(totals.Tax), toNumeric(totals.Discount), toNumeric(totals.Net))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) SetStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, sentAt *time.Time, approvedBy *uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status=$2, sent_at=COALESCE($3, sent_at), approved_by=COALESCE($4, approved_by), updated_at=NOW() WHERE id=$1`,
		id, status, sentAt, approvedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DeleteLines(ctx, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) SumAllocations(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var total float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(allocated_amount), 0) FROM payment_allocations WHERE invoice_id=$1`, invoiceID).Scan(&total)
	return total, err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, invoiceID uuid.UUID) ([]InvoiceLine, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, account_id, description, quantity, unit_price, tax_rate, total_amount, line_number, created_at
FROM invoice_lines WHERE invoice_id=$1 ORDER BY line_number ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []InvoiceLine
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.AccountID, &line.Description, &line.Quantity, &line.UnitPrice, &line.TaxRate, &line.TotalAmount, &line.LineNumber, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var customerID, supplierID *uuid.UUID
	err := row.Scan(&inv.ID, &inv.OrgID, &inv.Type, &customerID, &supplierID, &inv.Number, &inv.InvoiceDate, &inv.DueDate, &inv.Currency,
		&inv.TotalAmount, &inv.TaxAmount, &inv.DiscountAmount, &inv.NetAmount, &inv.Status, &inv.PaymentState, &inv.SentAt, &inv.ApprovedBy, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.Party = shared.PartyFromColumns(customerID, supplierID)
	return inv, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
