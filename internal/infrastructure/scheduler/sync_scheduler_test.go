package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appintegration "github.com/importops/backend/internal/application/integration"
	applisting "github.com/importops/backend/internal/application/listing"
	"github.com/importops/backend/internal/infrastructure/cache"
)

type stubRunner struct {
	mu     sync.Mutex
	runs   int
	report *applisting.SyncReport
	err    error
}

func (r *stubRunner) SyncAll(context.Context) (*applisting.SyncReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return r.report, r.err
}

func (r *stubRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func newTestScheduler(runner StockSyncRunner, locker appintegration.Locker) *StockSyncScheduler {
	return NewStockSyncScheduler(StockSyncSchedulerConfig{
		Enabled:      true,
		CronSchedule: "*/30 * * * *",
		LockTTL:      time.Minute,
	}, runner, locker, zap.NewNop())
}

func TestStockSyncScheduler_RunOnce(t *testing.T) {
	runner := &stubRunner{report: &applisting.SyncReport{Total: 3, Succeeded: 3}}
	s := newTestScheduler(runner, cache.NewInMemoryLocker())

	s.runOnce()

	assert.Equal(t, 1, runner.runCount())
	status := s.GetStatus()
	assert.NotNil(t, status["last_run_at"])
	assert.Equal(t, runner.report, status["last_report"])
}

func TestStockSyncScheduler_RunOnce_SkipsWhenLockHeld(t *testing.T) {
	locker := cache.NewInMemoryLocker()
	_, err := locker.Obtain(context.Background(), syncAllLockKey, time.Minute)
	require.NoError(t, err)

	runner := &stubRunner{report: &applisting.SyncReport{}}
	s := newTestScheduler(runner, locker)

	s.runOnce()

	assert.Equal(t, 0, runner.runCount())
}

func TestStockSyncScheduler_TriggerManualRun_RequiresRunning(t *testing.T) {
	s := newTestScheduler(&stubRunner{report: &applisting.SyncReport{}}, cache.NewInMemoryLocker())

	assert.ErrorIs(t, s.TriggerManualRun(), ErrSchedulerNotRunning)
}

func TestStockSyncScheduler_StartAndStop(t *testing.T) {
	runner := &stubRunner{report: &applisting.SyncReport{}}
	s := newTestScheduler(runner, cache.NewInMemoryLocker())

	require.NoError(t, s.Start())
	// Starting twice is a no-op
	require.NoError(t, s.Start())

	status := s.GetStatus()
	assert.Equal(t, true, status["is_running"])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}

func TestStockSyncScheduler_Start_Disabled(t *testing.T) {
	s := NewStockSyncScheduler(StockSyncSchedulerConfig{
		Enabled:      false,
		CronSchedule: "*/30 * * * *",
	}, &stubRunner{}, cache.NewInMemoryLocker(), zap.NewNop())

	require.NoError(t, s.Start())
	assert.Equal(t, false, s.GetStatus()["is_running"])
}

func TestStockSyncScheduler_Start_InvalidSchedule(t *testing.T) {
	s := NewStockSyncScheduler(StockSyncSchedulerConfig{
		Enabled:      true,
		CronSchedule: "not a cron expression",
	}, &stubRunner{}, cache.NewInMemoryLocker(), zap.NewNop())

	assert.Error(t, s.Start())
}
