package persistence

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/importops/backend/internal/infrastructure/telemetry"
)

// GormStockMetrics answers the aggregate queries behind the periodic
// business gauges.
type GormStockMetrics struct {
	db *gorm.DB
}

// NewGormStockMetrics creates a new GormStockMetrics
func NewGormStockMetrics(db *gorm.DB) *GormStockMetrics {
	return &GormStockMetrics{db: db}
}

// GetTotalStockValue returns the USD value of all stock on hand
func (m *GormStockMetrics) GetTotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := m.db.WithContext(ctx).
		Raw("SELECT COALESCE(SUM(stock * average_unit_cost_usd), 0) FROM products").
		Scan(&value).Error
	if err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// GetSyncErrorCount returns the number of listings whose last sync failed
func (m *GormStockMetrics) GetSyncErrorCount(ctx context.Context) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM channel_listings WHERE sync_error LIKE 'ERROR: %'").
		Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ telemetry.StockMetricsProvider = (*GormStockMetrics)(nil)
