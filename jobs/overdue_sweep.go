package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// OverdueMarker stamps the persisted overdue status on invoices past due.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type pgOverdueMarker struct {
	pool *pgxpool.Pool
}

// NewOverdueMarker builds the Postgres-backed marker.
func NewOverdueMarker(pool *pgxpool.Pool) OverdueMarker {
	return &pgOverdueMarker{pool: pool}
}

// MarkOverdue flips sent, approved and partial invoices whose due date
// passed. Terminal and draft invoices are never touched; the read-side
// overdue predicate stays authoritative between sweeps.
func (m *pgOverdueMarker) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	cmd, err := m.pool.Exec(ctx, `UPDATE invoices SET status='overdue', updated_at=NOW()
WHERE status IN ('sent','approved','partial') AND payment_status <> 'paid' AND due_date < $1`, asOf)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// OverdueSweepJob periodically persists the overdue status. A Redis lock
// keeps concurrent worker replicas from sweeping twice.
type OverdueSweepJob struct {
	marker  OverdueMarker
	redis   *redis.Client
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewOverdueSweepJob(marker OverdueMarker, rdb *redis.Client, lockTTL time.Duration, logger *slog.Logger) *OverdueSweepJob {
	return &OverdueSweepJob{marker: marker, redis: rdb, lockTTL: lockTTL, logger: logger, now: time.Now}
}

// WithNow overrides the clock for tests.
func (j *OverdueSweepJob) WithNow(now func() time.Time) *OverdueSweepJob {
	j.now = now
	return j
}

func (j *OverdueSweepJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j.redis != nil {
		ok, err := j.redis.SetNX(ctx, shared.OverdueSweepLockKey(), "1", j.lockTTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			j.logger.Info("overdue sweep skipped, lock held elsewhere")
			return nil
		}
		defer j.redis.Del(context.WithoutCancel(ctx), shared.OverdueSweepLockKey())
	}

	asOf := j.now().UTC()
	if len(task.Payload()) > 0 {
		var payload OverdueSweepPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return err
		}
		if !payload.AsOf.IsZero() {
			asOf = payload.AsOf
		}
	}

	marked, err := j.marker.MarkOverdue(ctx, asOf)
	if err != nil {
		j.logger.Error("overdue sweep failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("overdue sweep complete", slog.Int64("marked", marked), slog.Time("as_of", asOf))
	return nil
}
