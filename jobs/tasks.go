package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue all ledger maintenance tasks run on.
	QueueDefault = "default"

	// TaskOverdueSweep stamps the persisted overdue status on invoices
	// past their due date.
	TaskOverdueSweep = "ledger:overdue_sweep"
	// TaskLedgerIntegrity verifies that every posted journal entry still
	// balances.
	TaskLedgerIntegrity = "ledger:integrity_check"
)

// OverdueSweepPayload parameterizes the sweep cutoff.
type OverdueSweepPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewOverdueSweepTask builds the sweep task. A zero AsOf means "now" at
// execution time.
func NewOverdueSweepTask(asOf time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(OverdueSweepPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, payload), nil
}

// NewLedgerIntegrityTask builds the integrity check task.
func NewLedgerIntegrityTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskLedgerIntegrity, nil), nil
}
