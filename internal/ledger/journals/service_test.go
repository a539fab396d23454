package journals

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryJournalRepo struct {
	accounts map[uuid.UUID]AccountState
	entries  map[uuid.UUID]JournalEntry
	lines    map[uuid.UUID][]JournalLine
	seq      int64
}

func newMemoryJournalRepo() *memoryJournalRepo {
	return &memoryJournalRepo{
		accounts: make(map[uuid.UUID]AccountState),
		entries:  make(map[uuid.UUID]JournalEntry),
		lines:    make(map[uuid.UUID][]JournalLine),
	}
}

func (r *memoryJournalRepo) addAccount(active bool) uuid.UUID {
	id := uuid.New()
	r.accounts[id] = AccountState{ID: id, IsActive: active}
	return id
}

func (r *memoryJournalRepo) GetEntry(_ context.Context, orgID, id uuid.UUID) (JournalEntry, error) {
	entry, ok := r.entries[id]
	if !ok || entry.OrgID != orgID {
		return JournalEntry{}, ErrEntryNotFound
	}
	entry.Lines = append([]JournalLine(nil), r.lines[id]...)
	return entry, nil
}

func (r *memoryJournalRepo) ListEntries(_ context.Context, orgID uuid.UUID) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, entry := range r.entries {
		if entry.OrgID == orgID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryJournalTx{repo: r})
}

type memoryJournalTx struct {
	repo *memoryJournalRepo
}

func (t *memoryJournalTx) NextEntryNumber(context.Context) (string, error) {
	t.repo.seq++
	return fmt.Sprintf("JE-%06d", t.repo.seq), nil
}

func (t *memoryJournalTx) InsertEntry(_ context.Context, in CreateEntryInput, number string, postedAt time.Time) (JournalEntry, error) {
	entry := JournalEntry{
		ID:          uuid.New(),
		OrgID:       in.OrgID,
		Number:      number,
		EntryDate:   in.EntryDate,
		Type:        in.Type,
		Description: in.Description,
		Reference:   in.Reference,
		Status:      EntryStatusDraft,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   time.Now(),
	}
	if in.Post {
		entry.Status = EntryStatusPosted
		entry.PostedAt = &postedAt
	}
	t.repo.entries[entry.ID] = entry
	return entry, nil
}

func (t *memoryJournalTx) InsertLines(_ context.Context, entryID uuid.UUID, inputs []EntryLineInput) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(inputs))
	for idx, in := range inputs {
		line := JournalLine{
			ID:         uuid.New(),
			EntryID:    entryID,
			AccountID:  in.AccountID,
			Debit:      in.Debit,
			Credit:     in.Credit,
			LineNumber: idx + 1,
		}
		t.repo.lines[entryID] = append(t.repo.lines[entryID], line)
		out = append(out, line)
	}
	return out, nil
}

func (t *memoryJournalTx) GetEntryForUpdate(ctx context.Context, orgID, id uuid.UUID) (JournalEntry, error) {
	entry, ok := t.repo.entries[id]
	if !ok || entry.OrgID != orgID {
		return JournalEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (t *memoryJournalTx) GetLines(_ context.Context, entryID uuid.UUID) ([]JournalLine, error) {
	return append([]JournalLine(nil), t.repo.lines[entryID]...), nil
}

func (t *memoryJournalTx) MarkPosted(_ context.Context, entryID uuid.UUID, at time.Time) error {
	entry, ok := t.repo.entries[entryID]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Status = EntryStatusPosted
	entry.PostedAt = &at
	t.repo.entries[entryID] = entry
	return nil
}

func (t *memoryJournalTx) GetAccountState(_ context.Context, _, accountID uuid.UUID) (AccountState, error) {
	state, ok := t.repo.accounts[accountID]
	if !ok {
		return AccountState{}, ErrAccountNotFound
	}
	return state, nil
}

func newTestService(repo *memoryJournalRepo) *Service {
	return NewService(repo, nil)
}

func baseInput(orgID uuid.UUID, lines []EntryLineInput) CreateEntryInput {
	return CreateEntryInput{
		OrgID:       orgID,
		EntryDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:        EntryTypeManual,
		Description: "Office rent March",
		Lines:       lines,
	}
}

func TestCreateEntryBalanced(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	rent := repo.addAccount(true)
	vat := repo.addAccount(true)
	bank := repo.addAccount(true)
	svc := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), baseInput(orgID, []EntryLineInput{
		{AccountID: rent, Debit: 100},
		{AccountID: vat, Debit: 21},
		{AccountID: bank, Credit: 121},
	}))
	require.NoError(t, err)
	require.Equal(t, "JE-000001", entry.Number)
	require.Equal(t, EntryStatusDraft, entry.Status)
	require.Len(t, entry.Lines, 3)
	require.Equal(t, 1, entry.Lines[0].LineNumber)
	require.Equal(t, 3, entry.Lines[2].LineNumber)

	second, err := svc.CreateEntry(context.Background(), baseInput(orgID, []EntryLineInput{
		{AccountID: rent, Debit: 50},
		{AccountID: bank, Credit: 50},
	}))
	require.NoError(t, err)
	require.Equal(t, "JE-000002", second.Number)
}

func TestCreateEntryUnbalancedPersistsNothing(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	a := repo.addAccount(true)
	b := repo.addAccount(true)
	svc := newTestService(repo)

	_, err := svc.CreateEntry(context.Background(), baseInput(orgID, []EntryLineInput{
		{AccountID: a, Debit: 100},
		{AccountID: b, Credit: 99.99},
	}))
	require.ErrorIs(t, err, ErrUnbalanced)
	require.Empty(t, repo.entries)
	require.Empty(t, repo.lines)
}

func TestCreateEntryLineValidation(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	a := repo.addAccount(true)
	b := repo.addAccount(true)
	svc := newTestService(repo)

	cases := map[string][]EntryLineInput{
		"single line":      {{AccountID: a, Debit: 10}},
		"both sides":       {{AccountID: a, Debit: 10, Credit: 10}, {AccountID: b, Credit: 10}},
		"negative amount":  {{AccountID: a, Debit: -10}, {AccountID: b, Credit: -10}},
		"zero amount line": {{AccountID: a}, {AccountID: b, Credit: 0}},
		"missing account":  {{Debit: 10}, {AccountID: b, Credit: 10}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateEntry(context.Background(), baseInput(orgID, lines))
			require.Error(t, err)
			require.Equal(t, shared.KindValidation, shared.KindOf(err))
		})
	}
	require.Empty(t, repo.entries)
}

func TestCreateEntryInactiveAccount(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	active := repo.addAccount(true)
	inactive := repo.addAccount(false)
	svc := newTestService(repo)

	_, err := svc.CreateEntry(context.Background(), baseInput(orgID, []EntryLineInput{
		{AccountID: active, Debit: 10},
		{AccountID: inactive, Credit: 10},
	}))
	require.ErrorIs(t, err, ErrAccountInactive)
	require.Empty(t, repo.entries)
}

func TestPostEntryOnlyOnce(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	a := repo.addAccount(true)
	b := repo.addAccount(true)
	svc := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), baseInput(orgID, []EntryLineInput{
		{AccountID: a, Debit: 75.50},
		{AccountID: b, Credit: 75.50},
	}))
	require.NoError(t, err)

	actor := uuid.New()
	posted, err := svc.PostEntry(context.Background(), orgID, entry.ID, actor)
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)

	_, err = svc.PostEntry(context.Background(), orgID, entry.ID, actor)
	require.ErrorIs(t, err, ErrAlreadyPosted)
}

func TestReverseEntrySwapsSides(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	a := repo.addAccount(true)
	b := repo.addAccount(true)
	c := repo.addAccount(true)
	svc := newTestService(repo)

	input := baseInput(orgID, []EntryLineInput{
		{AccountID: a, Debit: 200},
		{AccountID: b, Credit: 150},
		{AccountID: c, Credit: 50},
	})
	input.Post = true
	original, err := svc.CreateEntry(context.Background(), input)
	require.NoError(t, err)

	actor := uuid.New()
	reversal, err := svc.ReverseEntry(context.Background(), orgID, original.ID, actor)
	require.NoError(t, err)
	require.NotEqual(t, original.ID, reversal.ID)
	require.Equal(t, EntryTypeAdjustment, reversal.Type)
	require.Equal(t, EntryStatusPosted, reversal.Status)
	require.Equal(t, JournalRef(original.ID), reversal.Reference)
	require.Len(t, reversal.Lines, 3)
	require.Equal(t, 0.0, reversal.Lines[0].Debit)
	require.Equal(t, 200.0, reversal.Lines[0].Credit)
	require.Equal(t, 150.0, reversal.Lines[1].Debit)
	require.Equal(t, 50.0, reversal.Lines[2].Debit)

	// original untouched
	kept, err := svc.GetEntry(context.Background(), orgID, original.ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, kept.Status)
	require.Equal(t, 200.0, kept.Lines[0].Debit)
}

// Entries posted at creation must stamp posted_at from the service clock,
// the same clock PostEntry uses, so an overridden clock covers both paths.
func TestCreateEntryPostedAtUsesServiceClock(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	a := repo.addAccount(true)
	b := repo.addAccount(true)
	svc := newTestService(repo)
	fixed := time.Date(2026, 3, 31, 17, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return fixed })

	input := baseInput(orgID, []EntryLineInput{
		{AccountID: a, Debit: 10},
		{AccountID: b, Credit: 10},
	})
	input.Post = true
	entry, err := svc.CreateEntry(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, entry.Status)
	require.NotNil(t, entry.PostedAt)
	require.Equal(t, fixed, *entry.PostedAt)
}

func TestReverseEntryRequiresPosted(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	a := repo.addAccount(true)
	b := repo.addAccount(true)
	svc := newTestService(repo)

	draft, err := svc.CreateEntry(context.Background(), baseInput(orgID, []EntryLineInput{
		{AccountID: a, Debit: 10},
		{AccountID: b, Credit: 10},
	}))
	require.NoError(t, err)

	_, err = svc.ReverseEntry(context.Background(), orgID, draft.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotPosted)
}

func TestCreateEntryRandomBalance(t *testing.T) {
	repo := newMemoryJournalRepo()
	orgID := uuid.New()
	accounts := make([]uuid.UUID, 6)
	for i := range accounts {
		accounts[i] = repo.addAccount(true)
	}
	svc := newTestService(repo)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		// amounts built from integer cents so the 2-decimal comparison
		// is exact
		n := 2 + rng.Intn(4)
		var lines []EntryLineInput
		var totalCents int64
		for j := 0; j < n; j++ {
			cents := int64(1 + rng.Intn(100000))
			totalCents += cents
			lines = append(lines, EntryLineInput{AccountID: accounts[rng.Intn(len(accounts))], Debit: float64(cents) / 100})
		}
		lines = append(lines, EntryLineInput{AccountID: accounts[rng.Intn(len(accounts))], Credit: float64(totalCents) / 100})
		_, err := svc.CreateEntry(context.Background(), baseInput(orgID, lines))
		require.NoError(t, err)

		lines[len(lines)-1].Credit = float64(totalCents+1) / 100
		_, err = svc.CreateEntry(context.Background(), baseInput(orgID, lines))
		require.ErrorIs(t, err, ErrUnbalanced)
	}
}
