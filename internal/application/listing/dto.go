package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/listing"
)

// CreateListingRequest registers an existing channel publication locally
type CreateListingRequest struct {
	ExternalID string          `json:"external_id" binding:"required,min=1,max=50"`
	Title      string          `json:"title" binding:"required,min=1,max=200"`
	CategoryID string          `json:"category_id" binding:"max=50"`
	PriceArs   decimal.Decimal `json:"price_ars" binding:"required"`
}

// PublishListingRequest creates a brand-new publication on the channel
type PublishListingRequest struct {
	Title           string                  `json:"title" binding:"required,min=1,max=200"`
	CategoryID      string                  `json:"category_id" binding:"required,min=1,max=50"`
	PriceArs        decimal.Decimal         `json:"price_ars" binding:"required"`
	InitialQuantity int64                   `json:"initial_quantity" binding:"min=0"`
	Attributes      []ListingAttributeInput `json:"attributes"`
}

// ListingAttributeInput is one channel attribute in a publish request
type ListingAttributeInput struct {
	AttributeID string `json:"attribute_id" binding:"required"`
	Name        string `json:"name"`
	ValueID     string `json:"value_id"`
	ValueName   string `json:"value_name"`
}

// MapProductRequest attaches a product to a listing
type MapProductRequest struct {
	ProductID    uuid.UUID `json:"product_id" binding:"required"`
	UnitsPerSale int64     `json:"units_per_sale" binding:"required,min=1"`
	Priority     int       `json:"priority"`
}

// ConnectMappingsRequest replaces the full mapping set of a listing.
// An empty set disconnects every product.
type ConnectMappingsRequest struct {
	Mappings []MapProductRequest `json:"mappings" binding:"dive"`
}

// ListingListFilter represents filter options for the listing list
type ListingListFilter struct {
	Search   string  `form:"search"`
	Status   *string `form:"status"`
	Page     int     `form:"page" binding:"min=0"`
	PageSize int     `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string  `form:"order_by"`
	OrderDir string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListingResponse represents a channel listing in API responses
type ListingResponse struct {
	ID              uuid.UUID                  `json:"id"`
	ExternalID      string                     `json:"external_id"`
	Title           string                     `json:"title"`
	CategoryID      string                     `json:"category_id,omitempty"`
	PriceArs        decimal.Decimal            `json:"price_ars"`
	Status          string                     `json:"status"`
	SyncEnabled     bool                       `json:"sync_enabled"`
	LastSyncedAt    *time.Time                 `json:"last_synced_at,omitempty"`
	LastSyncedStock *int64                     `json:"last_synced_stock,omitempty"`
	SyncError       string                     `json:"sync_error,omitempty"`
	Mappings        []StockMappingResponse     `json:"mappings"`
	Attributes      []ListingAttributeResponse `json:"attributes,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// StockMappingResponse represents a stock mapping in API responses
type StockMappingResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	UnitsPerSale int64     `json:"units_per_sale"`
	Priority     int       `json:"priority"`
	Enabled      bool      `json:"enabled"`
}

// ListingAttributeResponse represents a listing attribute in API responses
type ListingAttributeResponse struct {
	AttributeID string `json:"attribute_id"`
	Name        string `json:"name,omitempty"`
	ValueID     string `json:"value_id,omitempty"`
	ValueName   string `json:"value_name,omitempty"`
}

// SyncReport summarizes a bulk synchronization run
type SyncReport struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Warned    int           `json:"warned"`
	Failed    int           `json:"failed"`
	Failures  []SyncFailure `json:"failures,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  string        `json:"duration"`
}

// Sync outcome values reported by ConnectMappingsResponse
const (
	SyncOutcomeOK      = "ok"
	SyncOutcomeWarning = "warning"
	SyncOutcomeError   = "error"
)

// ConnectMappingsResponse reports the outcome of a mapping-set replace.
// The mapping save and the follow-up stock push succeed or fail
// independently: "ok" means both landed, "warning" means the mappings
// were saved but the push was deferred, "error" means the mappings were
// saved and the push failed hard.
type ConnectMappingsResponse struct {
	Listing     ListingResponse `json:"listing"`
	SyncOutcome string          `json:"sync_outcome"`
	SyncMessage string          `json:"sync_message,omitempty"`
}

// SyncFailure describes one listing that could not be synced
type SyncFailure struct {
	ListingID  uuid.UUID `json:"listing_id"`
	ExternalID string    `json:"external_id"`
	Message    string    `json:"message"`
}

// ToListingResponse converts a domain listing to a response DTO
func ToListingResponse(l *listing.ChannelListing) ListingResponse {
	mappings := make([]StockMappingResponse, 0, len(l.Mappings))
	for _, m := range l.Mappings {
		mappings = append(mappings, StockMappingResponse{
			ID:           m.ID,
			ProductID:    m.ProductID,
			UnitsPerSale: m.UnitsPerSale,
			Priority:     m.Priority,
			Enabled:      m.Enabled,
		})
	}

	attrs := make([]ListingAttributeResponse, 0, len(l.Attributes))
	for _, a := range l.Attributes {
		attrs = append(attrs, ListingAttributeResponse{
			AttributeID: a.AttributeID,
			Name:        a.Name,
			ValueID:     a.ValueID,
			ValueName:   a.ValueName,
		})
	}

	return ListingResponse{
		ID:              l.ID,
		ExternalID:      l.ExternalID,
		Title:           l.Title,
		CategoryID:      l.CategoryID,
		PriceArs:        l.PriceArs,
		Status:          string(l.Status),
		SyncEnabled:     l.SyncEnabled,
		LastSyncedAt:    l.LastSyncedAt,
		LastSyncedStock: l.LastSyncedStock,
		SyncError:       l.SyncError,
		Mappings:        mappings,
		Attributes:      attrs,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}
