package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type stubMarker struct {
	calls int
	asOf  time.Time
	err   error
}

func (s *stubMarker) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	s.calls++
	s.asOf = asOf
	return 3, s.err
}

func newSweepFixture(t *testing.T) (*stubMarker, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &stubMarker{}, client, mr
}

func TestOverdueSweepRuns(t *testing.T) {
	marker, client, mr := newSweepFixture(t)
	logger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	job := NewOverdueSweepJob(marker, client, time.Minute, logger)

	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	task, err := NewOverdueSweepTask(asOf)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, marker.calls)
	require.Equal(t, asOf, marker.asOf)

	// lock released after the run
	require.False(t, mr.Exists(shared.OverdueSweepLockKey()))
}

func TestOverdueSweepZeroAsOfUsesClock(t *testing.T) {
	marker, client, _ := newSweepFixture(t)
	logger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	now := time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC)
	job := NewOverdueSweepJob(marker, client, time.Minute, logger).WithNow(func() time.Time { return now })

	task, err := NewOverdueSweepTask(time.Time{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, now, marker.asOf)
}

func TestOverdueSweepSkipsWhenLockHeld(t *testing.T) {
	marker, client, mr := newSweepFixture(t)
	logger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	job := NewOverdueSweepJob(marker, client, time.Minute, logger)

	require.NoError(t, mr.Set(shared.OverdueSweepLockKey(), "1"))

	task, err := NewOverdueSweepTask(time.Time{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 0, marker.calls)
	// the foreign lock stays
	require.True(t, mr.Exists(shared.OverdueSweepLockKey()))
}
