package mappings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ErrMappingNotFound indicates no account is mapped for the purpose.
var ErrMappingNotFound = shared.NotFound("mappings: account mapping not found")

type Repository interface {
	Get(ctx context.Context, orgID uuid.UUID, purpose Purpose) (AccountMapping, error)
	Put(ctx context.Context, mapping AccountMapping) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves the account mapped to a purpose.
func (r *repository) Get(ctx context.Context, orgID uuid.UUID, purpose Purpose) (AccountMapping, error) {
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT org_id, purpose, account_id, created_at, updated_at FROM account_mappings WHERE org_id=$1 AND purpose=$2`, orgID, purpose).
		Scan(&mapping.OrgID, &mapping.Purpose, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, ErrMappingNotFound
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

// Put inserts or replaces the mapping for a purpose.
func (r *repository) Put(ctx context.Context, mapping AccountMapping) error {
	_, err := r.db.Exec(ctx, `INSERT INTO account_mappings (org_id, purpose, account_id)
VALUES ($1,$2,$3)
ON CONFLICT (org_id, purpose) DO UPDATE SET account_id=EXCLUDED.account_id, updated_at=NOW()`,
		mapping.OrgID, mapping.Purpose, mapping.AccountID)
	return err
}
