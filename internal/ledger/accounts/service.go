package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrDuplicateCode indicates the (org, code) pair already exists.
	ErrDuplicateCode = shared.Integrity("accounts: code already exists in organization")
	// ErrAccountNotFound indicates a missing account or wrong organization.
	ErrAccountNotFound = shared.NotFound("accounts: account not found")
	// ErrNormalBalanceMismatch indicates the stored side contradicts the type.
	ErrNormalBalanceMismatch = shared.Validation("accounts: normal balance contradicts account type")
)

// CreateAccountInput groups fields required to register a GL account.
type CreateAccountInput struct {
	OrgID              uuid.UUID     `validate:"required"`
	Code               string        `validate:"required,max=32"`
	Name               string        `validate:"required,max=255"`
	Type               AccountType   `validate:"required,oneof=asset liability equity revenue expense"`
	NormalBalance      NormalBalance `validate:"required,oneof=debit credit"`
	AllowManualEntries bool
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a GL account. The normal balance is stored explicitly
// but must match the side implied by the account type.
func (s *Service) Create(ctx context.Context, input CreateAccountInput) (Account, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Account{}, err
	}
	if input.NormalBalance != ImpliedNormalBalance(input.Type) {
		return Account{}, ErrNormalBalanceMismatch
	}
	return s.repo.Create(ctx, Account{
		OrgID:              input.OrgID,
		Code:               input.Code,
		Name:               input.Name,
		Type:               input.Type,
		NormalBalance:      input.NormalBalance,
		AllowManualEntries: input.AllowManualEntries,
	})
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Account, error) {
	return s.repo.List(ctx, orgID)
}

// Deactivate flips the active flag. Account types are never rewritten once
// journal lines reference the account; deactivation is the only exit.
func (s *Service) Deactivate(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, orgID, id)
}
