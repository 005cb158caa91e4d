package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appintegration "github.com/importops/backend/internal/application/integration"
	applisting "github.com/importops/backend/internal/application/listing"
)

// syncAllLockKey is the distributed lock serializing full sync runs
// across process instances.
const syncAllLockKey = "sync:all"

// ErrSchedulerNotRunning is returned when an operation requires a running scheduler
var ErrSchedulerNotRunning = errors.New("scheduler: not running")

// StockSyncRunner runs one full stock synchronization pass
type StockSyncRunner interface {
	SyncAll(ctx context.Context) (*applisting.SyncReport, error)
}

// StockSyncSchedulerConfig holds configuration for the periodic stock sync
type StockSyncSchedulerConfig struct {
	// Enabled indicates if the periodic sync is enabled
	Enabled bool
	// CronSchedule is the cron expression for sync runs, e.g. "*/30 * * * *"
	CronSchedule string
	// LockTTL bounds how long one run may hold the sync lock
	LockTTL time.Duration
}

// StockSyncScheduler pushes stock to the sales channel on a cron
// schedule. Runs take a distributed lock so only one instance of the
// service syncs at a time.
type StockSyncScheduler struct {
	config StockSyncSchedulerConfig
	runner StockSyncRunner
	locker appintegration.Locker
	logger *zap.Logger
	cron   *cron.Cron

	mu         sync.Mutex
	isRunning  bool
	lastRunAt  *time.Time
	lastReport *applisting.SyncReport
}

// NewStockSyncScheduler creates a new StockSyncScheduler
func NewStockSyncScheduler(
	config StockSyncSchedulerConfig,
	runner StockSyncRunner,
	locker appintegration.Locker,
	logger *zap.Logger,
) *StockSyncScheduler {
	if config.LockTTL <= 0 {
		config.LockTTL = 10 * time.Minute
	}
	return &StockSyncScheduler{
		config: config,
		runner: runner,
		locker: locker,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the cron entry and starts the scheduler
func (s *StockSyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("stock sync scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.CronSchedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("stock sync scheduler started",
		zap.String("schedule", s.config.CronSchedule),
		zap.Duration("lock_ttl", s.config.LockTTL),
	)
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *StockSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("stock sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("stock sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerManualRun runs a sync pass outside the schedule.
// Uses a background context so the run survives the HTTP request
// that triggered it.
func (s *StockSyncScheduler) TriggerManualRun() error {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}

	go s.runOnce()
	return nil
}

// GetStatus returns the current scheduler status
func (s *StockSyncScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":       s.config.Enabled,
		"is_running":    s.isRunning,
		"cron_schedule": s.config.CronSchedule,
		"last_run_at":   s.lastRunAt,
	}
	if s.lastReport != nil {
		status["last_report"] = s.lastReport
	}
	return status
}

// runOnce executes one sync pass under the distributed lock. Losing
// the lock means another instance is already syncing; that is not an
// error.
func (s *StockSyncScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.LockTTL)
	defer cancel()

	release, err := s.locker.Obtain(ctx, syncAllLockKey, s.config.LockTTL)
	if err != nil {
		if errors.Is(err, appintegration.ErrLockNotObtained) {
			s.logger.Debug("skipping stock sync, another instance holds the lock")
			return
		}
		s.logger.Error("failed to obtain stock sync lock", zap.Error(err))
		return
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Warn("failed to release stock sync lock", zap.Error(err))
		}
	}()

	now := time.Now()
	report, err := s.runner.SyncAll(ctx)

	s.mu.Lock()
	s.lastRunAt = &now
	s.lastReport = report
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled stock sync failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled stock sync finished",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
}
