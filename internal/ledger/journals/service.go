package journals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records ledger actions for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) GetEntry(ctx context.Context, orgID, id uuid.UUID) (JournalEntry, error) {
	return s.repo.GetEntry(ctx, orgID, id)
}

func (s *Service) ListEntries(ctx context.Context, orgID uuid.UUID) ([]JournalEntry, error) {
	return s.repo.ListEntries(ctx, orgID)
}

// CreateEntry validates, numbers and persists a journal entry with its
// lines in one transaction. Nothing is written when validation fails; the
// balance check runs before the first insert.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, line := range input.Lines {
			state, err := tx.GetAccountState(ctx, input.OrgID, line.AccountID)
			if err != nil {
				return err
			}
			if !state.IsActive {
				return ErrAccountInactive
			}
		}
		number, err := tx.NextEntryNumber(ctx)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, input, number, s.now())
		if err != nil {
			return err
		}
		lines, err := tx.InsertLines(ctx, inserted.ID, input.Lines)
		if err != nil {
			return err
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, input.CreatedBy, "journal.create", entry)
	return entry, nil
}

// PostEntry transitions a draft entry to posted. Posted entries are
// immutable; corrections go through ReverseEntry.
func (s *Service) PostEntry(ctx context.Context, orgID, entryID, actorID uuid.UUID) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, orgID, entryID)
		if err != nil {
			return err
		}
		if current.Status != EntryStatusDraft {
			return ErrAlreadyPosted
		}
		lines, err := tx.GetLines(ctx, entryID)
		if err != nil {
			return err
		}
		var debit, credit float64
		for _, line := range lines {
			debit += line.Debit
			credit += line.Credit
		}
		if !amountsEqual(debit, credit) {
			return ErrUnbalanced
		}
		postedAt := s.now()
		if err := tx.MarkPosted(ctx, entryID, postedAt); err != nil {
			return err
		}
		current.Status = EntryStatusPosted
		current.PostedAt = &postedAt
		current.Lines = lines
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actorID, "journal.post", entry)
	return entry, nil
}

// ReverseEntry creates a new posted entry with every line's debit and
// credit swapped, linked to the original through the reference. The
// original row is never mutated.
func (s *Service) ReverseEntry(ctx context.Context, orgID, entryID, actorID uuid.UUID) (JournalEntry, error) {
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, orgID, entryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return ErrNotPosted
		}
		lines, err := tx.GetLines(ctx, entryID)
		if err != nil {
			return err
		}
		posting := CreateEntryInput{
			OrgID:       orgID,
			EntryDate:   s.now(),
			Type:        EntryTypeAdjustment,
			Description: reversalDescription(original.Number),
			Reference:   JournalRef(original.ID),
			Post:        true,
			CreatedBy:   actorID,
			Lines:       reverseLines(lines),
		}
		number, err := tx.NextEntryNumber(ctx)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, posting, number, s.now())
		if err != nil {
			return err
		}
		insertedLines, err := tx.InsertLines(ctx, inserted.ID, posting.Lines)
		if err != nil {
			return err
		}
		inserted.Lines = insertedLines
		reversal = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actorID, "journal.reverse", reversal)
	return reversal, nil
}

func (s *Service) record(ctx context.Context, actorID uuid.UUID, action string, entry JournalEntry) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    entry.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: entry.ID.String(),
		Meta: map[string]any{
			"number": entry.Number,
			"status": string(entry.Status),
		},
		At: s.now(),
	})
}

func reverseLines(lines []JournalLine) []EntryLineInput {
	out := make([]EntryLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, EntryLineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
		})
	}
	return out
}

func reversalDescription(number string) string {
	return "Reversal of " + number
}
