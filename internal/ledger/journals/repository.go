package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	GetEntry(ctx context.Context, orgID, id uuid.UUID) (JournalEntry, error)
	ListEntries(ctx context.Context, orgID uuid.UUID) ([]JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextEntryNumber(ctx context.Context) (string, error)
	InsertEntry(ctx context.Context, in CreateEntryInput, number string, postedAt time.Time) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID uuid.UUID, lines []EntryLineInput) ([]JournalLine, error)
	GetEntryForUpdate(ctx context.Context, orgID, id uuid.UUID) (JournalEntry, error)
	GetLines(ctx context.Context, entryID uuid.UUID) ([]JournalLine, error)
	MarkPosted(ctx context.Context, entryID uuid.UUID, at time.Time) error

	// Account lookup needed for line validation inside the same transaction.
	GetAccountState(ctx context.Context, orgID, accountID uuid.UUID) (AccountState, error)
}

// AccountState is the slice of a GL account the engine validates against.
type AccountState struct {
	ID       uuid.UUID
	IsActive bool
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, org_id, number, entry_date, entry_type, description, reference_type, reference_id, status, posted_at, created_by, created_at, updated_at`

func (r *repository) GetEntry(ctx context.Context, orgID, id uuid.UUID) (JournalEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 AND id=$2`, orgID, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) ListEntries(ctx context.Context, orgID uuid.UUID) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 ORDER BY number DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
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

func (r *txRepository) NextEntryNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('journal_entry_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("JE-%06d", seq), nil
}

func (r *txRepository) InsertEntry(ctx context.Context, in CreateEntryInput, number string, postedAt time.Time) (JournalEntry, error) {
	status := EntryStatusDraft
	var posted any
	if in.Post {
		status = EntryStatusPosted
		posted = postedAt
	}
	var refType, refID any
	if !in.Reference.IsZero() {
		refType = string(in.Reference.Type)
		refID = in.Reference.ID
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (org_id, number, entry_date, entry_type, description, reference_type, reference_id, status, posted_at, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+entryColumns,
		in.OrgID, number, in.EntryDate, in.Type, in.Description, refType, refID, status, posted, in.CreatedBy)
	return scanEntry(row)
}

func (r *txRepository) InsertLines(ctx context.Context, entryID uuid.UUID, lines []EntryLineInput) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for idx, line := range lines {
		var inserted JournalLine
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_lines (entry_id, account_id, debit_amount, credit_amount, line_number)
VALUES ($1,$2,$3,$4,$5) RETURNING id, entry_id, account_id, debit_amount, credit_amount, line_number, created_at`,
			entryID, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit), idx+1).
			Scan(&inserted.ID, &inserted.EntryID, &inserted.AccountID, &inserted.Debit, &inserted.Credit, &inserted.LineNumber, &inserted.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, orgID, id uuid.UUID) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) GetLines(ctx context.Context, entryID uuid.UUID) ([]JournalLine, error) {
	return queryLines(ctx, r.tx, entryID)
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID uuid.UUID, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, posted_at=$3, updated_at=NOW() WHERE id=$1`, entryID, EntryStatusPosted, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) GetAccountState(ctx context.Context, orgID, accountID uuid.UUID) (AccountState, error) {
	var state AccountState
	err := r.tx.QueryRow(ctx, `SELECT id, is_active FROM gl_accounts WHERE org_id=$1 AND id=$2`, orgID, accountID).
		Scan(&state.ID, &state.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountState{}, ErrAccountNotFound
		}
		return AccountState{}, err
	}
	return state, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, entryID uuid.UUID) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit_amount, credit_amount, line_number, created_at
FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.LineNumber, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	var refType *string
	var refID *uuid.UUID
	err := row.Scan(&e.ID, &e.OrgID, &e.Number, &e.EntryDate, &e.Type, &e.Description, &refType, &refID, &e.Status, &e.PostedAt, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	if refType != nil && refID != nil {
		e.Reference = Reference{Type: ReferenceType(*refType), ID: *refID}
	}
	return e, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
