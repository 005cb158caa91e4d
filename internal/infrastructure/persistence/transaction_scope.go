package persistence

import (
	"context"

	"gorm.io/gorm"

	apppurchasing "github.com/importops/backend/internal/application/purchasing"
	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/purchasing"
)

// GormTransactionScope implements apppurchasing.TransactionScope using
// GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apppurchasing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) OrderRepo() purchasing.Repository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() inventory.Repository {
	return NewGormProductRepository(r.tx)
}

var _ apppurchasing.TransactionScope = (*GormTransactionScope)(nil)
var _ apppurchasing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
