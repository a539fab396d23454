package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/app"
)

type stubChecker struct {
	entries []UnbalancedEntry
	err     error
}

func (s *stubChecker) FindUnbalancedEntries(context.Context) ([]UnbalancedEntry, error) {
	return s.entries, s.err
}

func TestLedgerIntegrityClean(t *testing.T) {
	logger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	job := NewLedgerIntegrityJob(&stubChecker{}, logger)

	task, err := NewLedgerIntegrityTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestLedgerIntegrityReportsViolations(t *testing.T) {
	logger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	checker := &stubChecker{entries: []UnbalancedEntry{
		{EntryID: uuid.New(), Number: "JE-000013", Debit: 100, Credit: 90},
	}}
	job := NewLedgerIntegrityJob(checker, logger)

	task, err := NewLedgerIntegrityTask()
	require.NoError(t, err)
	// a violation is reported, not retried
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestLedgerIntegrityPropagatesErrors(t *testing.T) {
	logger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	boom := errors.New("connection reset")
	job := NewLedgerIntegrityJob(&stubChecker{err: boom}, logger)

	task, err := NewLedgerIntegrityTask()
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}
