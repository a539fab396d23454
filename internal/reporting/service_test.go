package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type stubReportRepo struct {
	balances map[uuid.UUID]float64
	open     []InvoiceBalance
	bank     float64
}

func (s *stubReportRepo) PartyBalance(_ context.Context, _ uuid.UUID, party shared.Party) (float64, error) {
	return s.balances[party.ID], nil
}

func (s *stubReportRepo) OpenInvoiceBalances(_ context.Context, _ uuid.UUID, _ *shared.Party) ([]InvoiceBalance, error) {
	return append([]InvoiceBalance(nil), s.open...), nil
}

func (s *stubReportRepo) BankBalance(_ context.Context, _ uuid.UUID, _ time.Time) (float64, error) {
	return s.bank, nil
}

func openBalance(daysOverdue int, asOf time.Time, balance float64) InvoiceBalance {
	return InvoiceBalance{
		InvoiceID: uuid.New(),
		DueDate:   asOf.AddDate(0, 0, -daysOverdue),
		Total:     balance,
		Balance:   balance,
	}
}

func TestAgingBuckets(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubReportRepo{open: []InvoiceBalance{
		openBalance(-5, asOf, 100), // not yet due
		openBalance(0, asOf, 10),   // due today
		openBalance(15, asOf, 200),
		openBalance(30, asOf, 25), // boundary stays in the 1-30 bucket
		openBalance(45, asOf, 300),
		openBalance(75, asOf, 400),
		openBalance(200, asOf, 500),
	}}
	svc := NewService(repo)

	aging, err := svc.Aging(context.Background(), uuid.New(), nil, asOf)
	require.NoError(t, err)
	require.InDelta(t, 110, aging.Current, 0.001)
	require.InDelta(t, 225, aging.Bucket30, 0.001)
	require.InDelta(t, 300, aging.Bucket60, 0.001)
	require.InDelta(t, 400, aging.Bucket90, 0.001)
	require.InDelta(t, 500, aging.Bucket120, 0.001)
	require.InDelta(t, 1535, aging.Total(), 0.001)
}

func TestAgingSkipsSettledInvoices(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	settled := openBalance(10, asOf, 50)
	settled.Paid = 50
	settled.Balance = 0
	repo := &stubReportRepo{open: []InvoiceBalance{settled, openBalance(10, asOf, 80)}}
	svc := NewService(repo)

	aging, err := svc.Aging(context.Background(), uuid.New(), nil, asOf)
	require.NoError(t, err)
	require.InDelta(t, 80, aging.Total(), 0.001)
}

func TestPartyBalanceValidatesParty(t *testing.T) {
	svc := NewService(&stubReportRepo{})

	_, err := svc.PartyBalance(context.Background(), uuid.New(), shared.Party{})
	require.Error(t, err)
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestPartyStatement(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	party := shared.Customer(uuid.New())
	repo := &stubReportRepo{
		balances: map[uuid.UUID]float64{party.ID: 420},
		open: []InvoiceBalance{
			openBalance(10, asOf, 120),
			openBalance(40, asOf, 300),
		},
	}
	svc := NewService(repo)

	statement, err := svc.PartyStatement(context.Background(), uuid.New(), party, asOf)
	require.NoError(t, err)
	require.Equal(t, party, statement.Party)
	require.InDelta(t, 420, statement.Balance, 0.001)
	require.Len(t, statement.OpenInvoices, 2)
	require.InDelta(t, 120, statement.Aging.Bucket30, 0.001)
	require.InDelta(t, 300, statement.Aging.Bucket60, 0.001)
}

func TestBankBalance(t *testing.T) {
	svc := NewService(&stubReportRepo{bank: -75.25})

	balance, err := svc.BankBalance(context.Background(), uuid.New(), time.Now())
	require.NoError(t, err)
	require.InDelta(t, -75.25, balance, 0.001)
}
