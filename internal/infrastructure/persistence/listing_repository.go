package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/shared"
)

// GormListingRepository implements listing.Repository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by its ID with mappings and attributes loaded
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.ChannelListing, error) {
	var l listing.ChannelListing
	if err := r.db.WithContext(ctx).
		Preload("Mappings").
		Preload("Attributes").
		First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindByExternalID finds a listing by its channel-side ID
func (r *GormListingRepository) FindByExternalID(ctx context.Context, externalID string) (*listing.ChannelListing, error) {
	var l listing.ChannelListing
	if err := r.db.WithContext(ctx).
		Preload("Mappings").
		Preload("Attributes").
		First(&l, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindAll finds listings matching the filter
func (r *GormListingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*listing.ChannelListing, error) {
	var listings []*listing.ChannelListing
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&listing.ChannelListing{}).
			Preload("Mappings").
			Preload("Attributes"),
		filter,
	)

	if err := query.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// FindSyncable finds listings eligible for stock pushes: sync enabled
// and not closed on the channel.
func (r *GormListingRepository) FindSyncable(ctx context.Context) ([]*listing.ChannelListing, error) {
	var listings []*listing.ChannelListing
	if err := r.db.WithContext(ctx).
		Preload("Mappings").
		Where("sync_enabled = ? AND status <> ?", true, listing.ListingStatusClosed).
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// FindByProduct finds listings with a mapping to the given product
func (r *GormListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*listing.ChannelListing, error) {
	var listings []*listing.ChannelListing
	if err := r.db.WithContext(ctx).
		Preload("Mappings").
		Joins("JOIN stock_mappings ON stock_mappings.listing_id = channel_listings.id").
		Where("stock_mappings.product_id = ?", productID).
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// Count counts listings matching the filter
func (r *GormListingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&listing.ChannelListing{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a listing together with its mappings and
// attributes. Mappings or attributes removed from the aggregate are pruned.
func (r *GormListingRepository) Save(ctx context.Context, l *listing.ChannelListing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(l).Error; err != nil {
			return err
		}

		mappingIDs := make([]uuid.UUID, 0, len(l.Mappings))
		for _, m := range l.Mappings {
			mappingIDs = append(mappingIDs, m.ID)
		}
		prune := tx.Where("listing_id = ?", l.ID)
		if len(mappingIDs) > 0 {
			prune = prune.Where("id NOT IN ?", mappingIDs)
		}
		if err := prune.Delete(&listing.StockMapping{}).Error; err != nil {
			return err
		}

		attrIDs := make([]uuid.UUID, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			attrIDs = append(attrIDs, a.ID)
		}
		prune = tx.Where("listing_id = ?", l.ID)
		if len(attrIDs) > 0 {
			prune = prune.Where("id NOT IN ?", attrIDs)
		}
		return prune.Delete(&listing.ListingAttribute{}).Error
	})
}

// Delete removes a listing together with its mappings and attributes
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&listing.StockMapping{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&listing.ListingAttribute{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&listing.ChannelListing{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyFilter applies filter options including pagination and ordering
func (r *GormListingRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ListingSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormListingRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "sync_enabled":
			query = query.Where("sync_enabled = ?", value)
		case "has_sync_error":
			if value == true {
				query = query.Where("sync_error LIKE ?", "ERROR: %")
			}
		}
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR external_id LIKE ?", pattern, pattern)
	}

	return query
}

// Ensure GormListingRepository implements listing.Repository
var _ listing.Repository = (*GormListingRepository)(nil)
