package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/importops/backend/internal/infrastructure/persistence"
	"github.com/importops/backend/internal/infrastructure/scheduler"
)

// SystemHandler handles health and scheduler control endpoints
type SystemHandler struct {
	BaseHandler
	db            *persistence.Database
	syncScheduler *scheduler.StockSyncScheduler
	startedAt     time.Time
	version       string
}

// NewSystemHandler creates a new SystemHandler. syncScheduler may be nil
// when periodic sync is disabled.
func NewSystemHandler(db *persistence.Database, syncScheduler *scheduler.StockSyncScheduler, version string) *SystemHandler {
	return &SystemHandler{
		db:            db,
		syncScheduler: syncScheduler,
		startedAt:     time.Now(),
		version:       version,
	}
}

// Health reports process and database health
func (h *SystemHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		dbStatus = "unreachable"
	}

	h.Success(c, gin.H{
		"status":   "ok",
		"version":  h.version,
		"uptime":   time.Since(h.startedAt).Truncate(time.Second).String(),
		"database": dbStatus,
	})
}

// SchedulerStatus reports the periodic sync scheduler state
func (h *SystemHandler) SchedulerStatus(c *gin.Context) {
	if h.syncScheduler == nil {
		h.Success(c, gin.H{"enabled": false})
		return
	}

	h.Success(c, h.syncScheduler.GetStatus())
}

// TriggerSync kicks off a sync run outside the cron schedule
func (h *SystemHandler) TriggerSync(c *gin.Context) {
	if h.syncScheduler == nil {
		h.Conflict(c, "Periodic sync is disabled")
		return
	}

	if err := h.syncScheduler.TriggerManualRun(); err != nil {
		h.Conflict(c, err.Error())
		return
	}

	h.Success(c, gin.H{"triggered": true})
}
