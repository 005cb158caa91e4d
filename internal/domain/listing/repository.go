package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/importops/backend/internal/domain/shared"
)

// Repository defines the interface for channel listing persistence
type Repository interface {
	// FindByID finds a listing by ID, with mappings and attributes loaded
	FindByID(ctx context.Context, id uuid.UUID) (*ChannelListing, error)

	// FindByExternalID finds a listing by its channel-side ID
	FindByExternalID(ctx context.Context, externalID string) (*ChannelListing, error)

	// FindAll finds listings matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]*ChannelListing, error)

	// FindSyncable finds all listings eligible for stock pushes
	FindSyncable(ctx context.Context) ([]*ChannelListing, error)

	// FindByProduct finds listings that map the given product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]*ChannelListing, error)

	// Count counts listings matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a listing with its mappings and attributes
	Save(ctx context.Context, l *ChannelListing) error

	// Delete removes a listing and its mappings
	Delete(ctx context.Context, id uuid.UUID) error
}
