package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/importops/backend/internal/domain/purchasing"
	"github.com/importops/backend/internal/domain/shared"
)

// GormPurchaseOrderRepository implements purchasing.Repository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by ID with items and import costs loaded
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var order purchasing.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ImportCosts").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds a purchase order by its order number
func (r *GormPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*purchasing.PurchaseOrder, error) {
	var order purchasing.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ImportCosts").
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds purchase orders matching the filter
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*purchasing.PurchaseOrder, error) {
	var orders []*purchasing.PurchaseOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&purchasing.PurchaseOrder{}).
			Preload("Items").
			Preload("ImportCosts"),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&purchasing.PurchaseOrder{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a purchase order together with its items and
// costs. Items or costs removed from the aggregate are pruned.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *purchasing.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error; err != nil {
			return err
		}

		itemIDs := make([]uuid.UUID, 0, len(order.Items))
		for _, item := range order.Items {
			itemIDs = append(itemIDs, item.ID)
		}
		prune := tx.Where("order_id = ?", order.ID)
		if len(itemIDs) > 0 {
			prune = prune.Where("id NOT IN ?", itemIDs)
		}
		if err := prune.Delete(&purchasing.OrderItem{}).Error; err != nil {
			return err
		}

		costIDs := make([]uuid.UUID, 0, len(order.ImportCosts))
		for _, cost := range order.ImportCosts {
			costIDs = append(costIDs, cost.ID)
		}
		prune = tx.Where("order_id = ?", order.ID)
		if len(costIDs) > 0 {
			prune = prune.Where("id NOT IN ?", costIDs)
		}
		return prune.Delete(&purchasing.ImportCost{}).Error
	})
}

// Delete removes a purchase order together with its items and costs
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&purchasing.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&purchasing.ImportCost{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&purchasing.PurchaseOrder{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// MarkStocked sets the stocked latch with a conditional update. The
// WHERE clause on the latch makes concurrent finalizations race-safe:
// exactly one caller observes a row change.
func (r *GormPurchaseOrderRepository) MarkStocked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&purchasing.PurchaseOrder{}).
		Where("id = ? AND stocked = ?", id, false).
		Updates(map[string]interface{}{
			"stocked":    true,
			"stocked_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// NextOrderNumber generates the next sequential order number.
// Draft deletions can leave gaps; the unique index on order_number
// surfaces any collision at Save time.
func (r *GormPurchaseOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&purchasing.PurchaseOrder{}).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%06d", count+1), nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "stocked":
			query = query.Where("stocked = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		}
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("order_number LIKE ? OR supplier_name LIKE ?", pattern, pattern)
	}

	return query
}

// Ensure GormPurchaseOrderRepository implements purchasing.Repository
var _ purchasing.Repository = (*GormPurchaseOrderRepository)(nil)
