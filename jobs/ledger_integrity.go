package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnbalancedEntry reports a posted journal entry whose lines no longer sum
// to equal debits and credits. Any hit means the balance invariant was
// violated outside the engine.
type UnbalancedEntry struct {
	EntryID uuid.UUID
	Number  string
	Debit   float64
	Credit  float64
}

// IntegrityChecker scans posted entries for balance violations.
type IntegrityChecker interface {
	FindUnbalancedEntries(ctx context.Context) ([]UnbalancedEntry, error)
}

type pgIntegrityChecker struct {
	pool *pgxpool.Pool
}

// NewIntegrityChecker builds the Postgres-backed checker.
func NewIntegrityChecker(pool *pgxpool.Pool) IntegrityChecker {
	return &pgIntegrityChecker{pool: pool}
}

func (c *pgIntegrityChecker) FindUnbalancedEntries(ctx context.Context) ([]UnbalancedEntry, error) {
	rows, err := c.pool.Query(ctx, `SELECT e.id, e.number, COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_entries e
JOIN journal_entry_lines l ON l.entry_id = e.id
WHERE e.status = 'posted'
GROUP BY e.id, e.number
HAVING ROUND(SUM(l.debit_amount), 2) <> ROUND(SUM(l.credit_amount), 2)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UnbalancedEntry
	for rows.Next() {
		var e UnbalancedEntry
		if err := rows.Scan(&e.EntryID, &e.Number, &e.Debit, &e.Credit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LedgerIntegrityJob audits posted entries nightly and logs every
// unbalanced one. It never mutates the ledger.
type LedgerIntegrityJob struct {
	checker IntegrityChecker
	logger  *slog.Logger
}

func NewLedgerIntegrityJob(checker IntegrityChecker, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{checker: checker, logger: logger}
}

func (j *LedgerIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) error {
	entries, err := j.checker.FindUnbalancedEntries(ctx)
	if err != nil {
		j.logger.Error("ledger integrity check failed", slog.Any("error", err))
		return err
	}
	if len(entries) == 0 {
		j.logger.Info("ledger integrity check clean")
		return nil
	}
	for _, e := range entries {
		j.logger.Error("unbalanced posted entry",
			slog.String("entry", e.Number),
			slog.String("id", e.EntryID.String()),
			slog.Float64("debit", e.Debit),
			slog.Float64("credit", e.Credit))
	}
	j.logger.Error("ledger integrity check found violations", slog.Int("count", len(entries)))
	return nil
}
