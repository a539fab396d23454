package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, account Account) (Account, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (Account, error)
	List(ctx context.Context, orgID uuid.UUID) ([]Account, error)
	Deactivate(ctx context.Context, orgID, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, org_id, code, name, type, normal_balance, is_active, allow_manual_entries, created_at, updated_at`

func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO gl_accounts (org_id, code, name, type, normal_balance, is_active, allow_manual_entries)
VALUES ($1,$2,$3,$4,$5,TRUE,$6) RETURNING `+accountColumns,
		account.OrgID, account.Code, account.Name, account.Type, account.NormalBalance, account.AllowManualEntries)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_gl_accounts_org_code" {
			return Account{}, ErrDuplicateCode
		}
		return Account{}, err
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM gl_accounts WHERE org_id=$1 AND id=$2`, orgID, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM gl_accounts WHERE org_id=$1 ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

func (r *repository) Deactivate(ctx context.Context, orgID, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `UPDATE gl_accounts SET is_active=FALSE, updated_at=NOW() WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrgID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.IsActive, &a.AllowManualEntries, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
