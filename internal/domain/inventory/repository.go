package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/importops/backend/internal/domain/shared"
)

// Repository defines the interface for product persistence
type Repository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByLeadID finds a product by its originating catalog lead
	FindByLeadID(ctx context.Context, leadID uuid.UUID) (*Product, error)

	// FindByLeadIDForUpdate finds a product by lead ID and locks the row
	// for the duration of the surrounding transaction
	FindByLeadIDForUpdate(ctx context.Context, leadID uuid.UUID) (*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]*Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a product and any new batch records
	Save(ctx context.Context, product *Product) error

	// FindBatches returns the receipt ledger for a product, newest first
	FindBatches(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]*ProductBatch, error)
}
