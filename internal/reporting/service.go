package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PartyBalance returns the open amount owed by (receivable) or to
// (payable) the party.
func (s *Service) PartyBalance(ctx context.Context, orgID uuid.UUID, party shared.Party) (float64, error) {
	if err := party.Validate(); err != nil {
		return 0, err
	}
	return s.repo.PartyBalance(ctx, orgID, party)
}

// Aging buckets open invoice balances by days overdue as of a date.
func (s *Service) Aging(ctx context.Context, orgID uuid.UUID, party *shared.Party, asOf time.Time) (AgingBucket, error) {
	balances, err := s.repo.OpenInvoiceBalances(ctx, orgID, party)
	if err != nil {
		return AgingBucket{}, err
	}
	return bucketBalances(balances, asOf), nil
}

// BankBalance nets cleared payments as of a date.
func (s *Service) BankBalance(ctx context.Context, orgID uuid.UUID, asOf time.Time) (float64, error) {
	return s.repo.BankBalance(ctx, orgID, asOf)
}

// PartyStatement gathers balance, aging and open invoices for one party.
// The three aggregations are independent reads and run concurrently.
func (s *Service) PartyStatement(ctx context.Context, orgID uuid.UUID, party shared.Party, asOf time.Time) (PartyStatement, error) {
	if err := party.Validate(); err != nil {
		return PartyStatement{}, err
	}
	statement := PartyStatement{Party: party, AsOf: asOf}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.repo.PartyBalance(ctx, orgID, party)
		if err != nil {
			return err
		}
		statement.Balance = balance
		return nil
	})
	g.Go(func() error {
		open, err := s.repo.OpenInvoiceBalances(ctx, orgID, &party)
		if err != nil {
			return err
		}
		statement.OpenInvoices = open
		statement.Aging = bucketBalances(open, asOf)
		return nil
	})
	if err := g.Wait(); err != nil {
		return PartyStatement{}, err
	}
	return statement, nil
}

func bucketBalances(balances []InvoiceBalance, asOf time.Time) AgingBucket {
	bucket := AgingBucket{}
	for _, inv := range balances {
		if inv.Balance <= 0 {
			continue
		}
		daysOverdue := int(asOf.Sub(inv.DueDate).Hours() / 24)
		switch {
		case daysOverdue <= 0:
			bucket.Current += inv.Balance
		case daysOverdue <= 30:
			bucket.Bucket30 += inv.Balance
		case daysOverdue <= 60:
			bucket.Bucket60 += inv.Balance
		case daysOverdue <= 90:
			bucket.Bucket90 += inv.Balance
		default:
			bucket.Bucket120 += inv.Balance
		}
	}
	return bucket
}
