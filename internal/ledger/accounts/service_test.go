package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryAccountRepo struct {
	byID map[uuid.UUID]Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{byID: make(map[uuid.UUID]Account)}
}

func (r *memoryAccountRepo) Create(_ context.Context, account Account) (Account, error) {
	for _, existing := range r.byID {
		if existing.OrgID == account.OrgID && existing.Code == account.Code {
			return Account{}, ErrDuplicateCode
		}
	}
	account.ID = uuid.New()
	account.IsActive = true
	r.byID[account.ID] = account
	return account, nil
}

func (r *memoryAccountRepo) Get(_ context.Context, orgID, id uuid.UUID) (Account, error) {
	account, ok := r.byID[id]
	if !ok || account.OrgID != orgID {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (r *memoryAccountRepo) List(_ context.Context, orgID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, account := range r.byID {
		if account.OrgID == orgID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (r *memoryAccountRepo) Deactivate(_ context.Context, orgID, id uuid.UUID) error {
	account, ok := r.byID[id]
	if !ok || account.OrgID != orgID {
		return ErrAccountNotFound
	}
	account.IsActive = false
	r.byID[id] = account
	return nil
}

func TestCreateAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	account, err := svc.Create(context.Background(), CreateAccountInput{
		OrgID:         orgID,
		Code:          "1100",
		Name:          "Accounts Receivable",
		Type:          AccountTypeAsset,
		NormalBalance: NormalDebit,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, account.ID)
	require.True(t, account.IsActive)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	input := CreateAccountInput{
		OrgID:         orgID,
		Code:          "4000",
		Name:          "Sales Revenue",
		Type:          AccountTypeRevenue,
		NormalBalance: NormalCredit,
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	input.Name = "Sales Revenue EU"
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrDuplicateCode)

	// same code in another organization is fine
	input.OrgID = uuid.New()
	_, err = svc.Create(context.Background(), input)
	require.NoError(t, err)
}

func TestCreateAccountNormalBalanceMismatch(t *testing.T) {
	svc := NewService(newMemoryAccountRepo())

	_, err := svc.Create(context.Background(), CreateAccountInput{
		OrgID:         uuid.New(),
		Code:          "5000",
		Name:          "Office Expenses",
		Type:          AccountTypeExpense,
		NormalBalance: NormalCredit,
	})
	require.ErrorIs(t, err, ErrNormalBalanceMismatch)
}

func TestCreateAccountValidation(t *testing.T) {
	svc := NewService(newMemoryAccountRepo())

	_, err := svc.Create(context.Background(), CreateAccountInput{
		OrgID:         uuid.New(),
		Name:          "No Code",
		Type:          AccountTypeAsset,
		NormalBalance: NormalDebit,
	})
	require.Error(t, err)
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestImpliedNormalBalance(t *testing.T) {
	require.Equal(t, NormalDebit, ImpliedNormalBalance(AccountTypeAsset))
	require.Equal(t, NormalDebit, ImpliedNormalBalance(AccountTypeExpense))
	require.Equal(t, NormalCredit, ImpliedNormalBalance(AccountTypeLiability))
	require.Equal(t, NormalCredit, ImpliedNormalBalance(AccountTypeEquity))
	require.Equal(t, NormalCredit, ImpliedNormalBalance(AccountTypeRevenue))
}

func TestDeactivateAccount(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	account, err := svc.Create(context.Background(), CreateAccountInput{
		OrgID:         orgID,
		Code:          "2100",
		Name:          "Accounts Payable",
		Type:          AccountTypeLiability,
		NormalBalance: NormalCredit,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), orgID, account.ID))
	got, err := svc.Get(context.Background(), orgID, account.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	require.ErrorIs(t, svc.Deactivate(context.Background(), uuid.New(), account.ID), ErrAccountNotFound)
}
