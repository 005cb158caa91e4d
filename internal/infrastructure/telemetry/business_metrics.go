// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the import operations
// backend. It tracks order finalization, stock sync outcomes, and
// credential refresh health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	ordersStockedTotal     *Counter
	stockedValueTotal      *Counter
	stockSyncTotal         *Counter
	credentialRefreshTotal *Counter

	// Gauge metrics (point-in-time values)
	inventoryStockValue *FloatGauge
	listingSyncErrors   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides inventory and listing data for periodic
// metrics collection. This interface allows the telemetry layer to query
// inventory state without depending on the domain directly.
type StockMetricsProvider interface {
	// GetTotalStockValue returns the USD value of all stock on hand
	GetTotalStockValue(ctx context.Context) (decimal.Decimal, error)

	// GetSyncErrorCount returns the number of listings whose last sync failed
	GetSyncErrorCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error

	bm.ordersStockedTotal, err = NewCounter(
		cfg.Meter,
		"importops_orders_stocked_total",
		"Total number of purchase orders finalized into stock",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockedValueTotal, err = NewCounter(
		cfg.Meter,
		"importops_stocked_value_total",
		"Total landed value received into stock, in USD cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockSyncTotal, err = NewCounter(
		cfg.Meter,
		"importops_stock_sync_total",
		"Total number of per-listing stock sync attempts",
		"{syncs}",
	)
	if err != nil {
		return nil, err
	}

	bm.credentialRefreshTotal, err = NewCounter(
		cfg.Meter,
		"importops_credential_refresh_total",
		"Total number of channel credential refresh attempts",
		"{refreshes}",
	)
	if err != nil {
		return nil, err
	}

	bm.inventoryStockValue, err = NewFloatGauge(
		cfg.Meter,
		"importops_inventory_stock_value",
		"Current USD value of all stock on hand",
		"{usd}",
	)
	if err != nil {
		return nil, err
	}

	bm.listingSyncErrors, err = NewGauge(
		cfg.Meter,
		"importops_listing_sync_errors",
		"Number of listings whose last stock sync failed",
		"{listings}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderStocked records a purchase order finalization. The total
// value is the landed cost of everything received, recorded in cents.
func (bm *BusinessMetrics) RecordOrderStocked(ctx context.Context, totalValue decimal.Decimal) {
	bm.ordersStockedTotal.Inc(ctx)

	valueCents := totalValue.Mul(decimal.NewFromInt(100)).IntPart()
	bm.stockedValueTotal.Add(ctx, valueCents)
}

// =============================================================================
// Sync Metrics
// =============================================================================

// RecordStockSync records the outcome of one per-listing stock push.
// Result is one of "success", "warning", "error".
func (bm *BusinessMetrics) RecordStockSync(ctx context.Context, channel string, result string) {
	bm.stockSyncTotal.Inc(ctx,
		AttrChannel.String(channel),
		AttrSyncResult.String(result),
	)
}

// RecordCredentialRefresh records a token refresh attempt against a channel.
func (bm *BusinessMetrics) RecordCredentialRefresh(ctx context.Context, channel string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	bm.credentialRefreshTotal.Inc(ctx,
		AttrChannel.String(channel),
		AttrRefreshResult.String(result),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects stock metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectStockMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStockMetrics(ctx)
		}
	}
}

// collectStockMetrics collects inventory and listing gauge metrics.
func (bm *BusinessMetrics) collectStockMetrics(ctx context.Context) {
	if bm.stockProvider == nil {
		bm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	stockValue, err := bm.stockProvider.GetTotalStockValue(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get total stock value", zap.Error(err))
	} else {
		value, _ := stockValue.Float64()
		bm.inventoryStockValue.Record(ctx, value)
	}

	errorCount, err := bm.stockProvider.GetSyncErrorCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get listing sync error count", zap.Error(err))
	} else {
		bm.listingSyncErrors.Record(ctx, errorCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
