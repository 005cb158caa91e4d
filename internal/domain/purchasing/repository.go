package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/importops/backend/internal/domain/shared"
)

// Repository defines the interface for purchase order persistence
type Repository interface {
	// FindByID finds a purchase order by ID, with items and import costs loaded
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByOrderNumber finds a purchase order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)

	// FindAll finds purchase orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]*PurchaseOrder, error)

	// Count counts purchase orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a purchase order together with its items and costs
	Save(ctx context.Context, order *PurchaseOrder) error

	// Delete removes a purchase order. Only draft orders may be deleted.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkStocked sets the stocked latch with a conditional update.
	// Returns false if the order was already stocked.
	MarkStocked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// NextOrderNumber generates the next sequential order number
	NextOrderNumber(ctx context.Context) (string, error)
}
