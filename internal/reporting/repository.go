package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides the read-side aggregation queries. Nothing here owns
// state; every call recomputes from the invoice and payment tables.
type Repository interface {
	PartyBalance(ctx context.Context, orgID uuid.UUID, party shared.Party) (float64, error)
	OpenInvoiceBalances(ctx context.Context, orgID uuid.UUID, party *shared.Party) ([]InvoiceBalance, error)
	BankBalance(ctx context.Context, orgID uuid.UUID, asOf time.Time) (float64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// PartyBalance sums the totals of the party's invoices that are not fully
// paid.
func (r *pgRepository) PartyBalance(ctx context.Context, orgID uuid.UUID, party shared.Party) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM invoices
WHERE org_id=$1 AND (customer_id=$2 OR supplier_id=$2) AND payment_status <> 'paid' AND status <> 'cancelled'`,
		orgID, party.ID).Scan(&balance)
	return balance, err
}

func (r *pgRepository) OpenInvoiceBalances(ctx context.Context, orgID uuid.UUID, party *shared.Party) ([]InvoiceBalance, error) {
	query := `SELECT i.id, i.invoice_number, i.due_date, i.total_amount, COALESCE(SUM(pa.allocated_amount), 0) AS paid
FROM invoices i
LEFT JOIN payment_allocations pa ON pa.invoice_id = i.id
WHERE i.org_id=$1 AND i.payment_status <> 'paid' AND i.status <> 'cancelled'`
	args := []any{orgID}
	if party != nil {
		args = append(args, party.ID)
		query += ` AND (i.customer_id=$2 OR i.supplier_id=$2)`
	}
	query += ` GROUP BY i.id, i.invoice_number, i.due_date, i.total_amount ORDER BY i.due_date ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InvoiceBalance
	for rows.Next() {
		var b InvoiceBalance
		if err := rows.Scan(&b.InvoiceID, &b.Number, &b.DueDate, &b.Total, &b.Paid); err != nil {
			return nil, err
		}
		b.Balance = b.Total - b.Paid
		out = append(out, b)
	}
	return out, rows.Err()
}

// BankBalance nets cleared payments up to the given date: money received
// minus money sent.
func (r *pgRepository) BankBalance(ctx context.Context, orgID uuid.UUID, asOf time.Time) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN payment_type='received' THEN amount ELSE -amount END), 0)
FROM payments WHERE org_id=$1 AND status='cleared' AND payment_date <= $2`, orgID, asOf).Scan(&balance)
	return balance, err
}
