package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/purchasing"
)

// setupTestDB builds an in-memory sqlite database with the full schema.
// Connections are pinned to one so every query sees the same memory DB.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&purchasing.PurchaseOrder{},
		&purchasing.OrderItem{},
		&purchasing.ImportCost{},
		&inventory.Product{},
		&inventory.ProductBatch{},
		&listing.ChannelListing{},
		&listing.StockMapping{},
		&listing.ListingAttribute{},
		&integration.ChannelCredential{},
	))

	return db
}
