package listing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/shared"
)

// Sync error message prefixes. A warning means the listing itself was
// updated but something non-fatal happened; an error means the update
// did not go through.
const (
	syncWarnPrefix  = "WARN: "
	syncErrorPrefix = "ERROR: "
)

// ListingStatus mirrors the lifecycle states a sales channel reports
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "ACTIVE"
	ListingStatusPaused ListingStatus = "PAUSED"
	ListingStatusClosed ListingStatus = "CLOSED"
)

// IsValid checks if the status is a known ListingStatus
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusPaused, ListingStatusClosed:
		return true
	}
	return false
}

// ChannelListing represents a publication on an external sales channel.
// It is the aggregate root for stock synchronization: the stock pushed
// to the channel is derived from the listing's product mappings.
type ChannelListing struct {
	shared.BaseAggregateRoot
	ExternalID      string          `gorm:"type:varchar(50);not null;uniqueIndex"` // Channel-side listing ID, e.g. MLA123456789
	Title           string          `gorm:"type:varchar(200);not null"`
	CategoryID      string          `gorm:"type:varchar(50)"`
	PriceArs        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status          ListingStatus   `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	SyncEnabled     bool            `gorm:"not null;default:true"`
	LastSyncedAt    *time.Time
	LastSyncedStock *int64
	SyncError       string `gorm:"type:varchar(1000)"`

	Mappings   []StockMapping     `gorm:"foreignKey:ListingID;references:ID"`
	Attributes []ListingAttribute `gorm:"foreignKey:ListingID;references:ID"`
}

// TableName returns the table name for GORM
func (ChannelListing) TableName() string {
	return "channel_listings"
}

// NewChannelListing creates a new channel listing
func NewChannelListing(externalID, title string, priceArs decimal.Decimal) (*ChannelListing, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "Channel listing ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Listing title cannot be empty")
	}
	if priceArs.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Listing price cannot be negative")
	}

	return &ChannelListing{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ExternalID:        externalID,
		Title:             title,
		PriceArs:          priceArs,
		Status:            ListingStatusActive,
		SyncEnabled:       true,
		Mappings:          make([]StockMapping, 0),
		Attributes:        make([]ListingAttribute, 0),
	}, nil
}

// MapProduct attaches a product to this listing. A listing selling a
// bundle maps each component with the units consumed per sale.
func (l *ChannelListing) MapProduct(productID uuid.UUID, unitsPerSale int64, priority int) (*StockMapping, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if unitsPerSale <= 0 {
		return nil, shared.NewDomainError("INVALID_RATIO", "Units per sale must be positive")
	}

	for _, m := range l.Mappings {
		if m.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_MAPPING", "Product is already mapped to this listing")
		}
	}

	mapping := NewStockMapping(l.ID, productID, unitsPerSale, priority)
	l.Mappings = append(l.Mappings, *mapping)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return mapping, nil
}

// UnmapProduct removes a product mapping from the listing
func (l *ChannelListing) UnmapProduct(productID uuid.UUID) error {
	for idx, m := range l.Mappings {
		if m.ProductID == productID {
			l.Mappings = append(l.Mappings[:idx], l.Mappings[idx+1:]...)
			l.UpdatedAt = time.Now()
			l.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("MAPPING_NOT_FOUND", "Product is not mapped to this listing")
}

// SetMappingEnabled toggles a single mapping without removing it
func (l *ChannelListing) SetMappingEnabled(productID uuid.UUID, enabled bool) error {
	for idx := range l.Mappings {
		if l.Mappings[idx].ProductID == productID {
			l.Mappings[idx].Enabled = enabled
			l.Mappings[idx].UpdatedAt = time.Now()
			l.UpdatedAt = time.Now()
			l.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("MAPPING_NOT_FOUND", "Product is not mapped to this listing")
}

// MappingSpec describes one product connection for ReplaceMappings
type MappingSpec struct {
	ProductID    uuid.UUID
	UnitsPerSale int64
	Priority     int
}

// ReplaceMappings swaps the whole mapping set in one operation. The
// previous set is only discarded once every spec validates.
func (l *ChannelListing) ReplaceMappings(specs []MappingSpec) error {
	next := make([]StockMapping, 0, len(specs))
	seen := make(map[uuid.UUID]struct{}, len(specs))
	for _, spec := range specs {
		if spec.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if spec.UnitsPerSale <= 0 {
			return shared.NewDomainError("INVALID_RATIO", "Units per sale must be positive")
		}
		if _, dup := seen[spec.ProductID]; dup {
			return shared.NewDomainError("DUPLICATE_MAPPING", "Product appears more than once in the mapping set")
		}
		seen[spec.ProductID] = struct{}{}
		next = append(next, *NewStockMapping(l.ID, spec.ProductID, spec.UnitsPerSale, spec.Priority))
	}
	l.Mappings = next
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// EnabledMappings returns the mappings that participate in stock derivation
func (l *ChannelListing) EnabledMappings() []StockMapping {
	enabled := make([]StockMapping, 0, len(l.Mappings))
	for _, m := range l.Mappings {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// EnableSync enables automatic stock synchronization
func (l *ChannelListing) EnableSync() {
	l.SyncEnabled = true
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// DisableSync disables automatic stock synchronization
func (l *ChannelListing) DisableSync() {
	l.SyncEnabled = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// SetStatus updates the channel-reported lifecycle status
func (l *ChannelListing) SetStatus(status ListingStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown listing status")
	}
	l.Status = status
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// RecordSyncSuccess records a clean stock push and clears any sync message
func (l *ChannelListing) RecordSyncSuccess(stock int64) {
	now := time.Now()
	l.LastSyncedAt = &now
	l.LastSyncedStock = &stock
	l.SyncError = ""
	l.UpdatedAt = now
	l.IncrementVersion()
}

// SetSyncWarning records a non-fatal sync condition. The stock push
// itself succeeded; the message explains what to look at.
func (l *ChannelListing) SetSyncWarning(stock int64, message string) {
	now := time.Now()
	l.LastSyncedAt = &now
	l.LastSyncedStock = &stock
	l.SyncError = syncWarnPrefix + message
	l.UpdatedAt = now
	l.IncrementVersion()
}

// SetSyncRecoverable records a stock push the channel rejected with a
// transient condition. The push did not land, so LastSyncedStock keeps
// its previous value; the message carries the warning tag so the
// listing is picked up again on the next retry pass.
func (l *ChannelListing) SetSyncRecoverable(message string) {
	l.SyncError = syncWarnPrefix + message
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// SetSyncError records a hard sync failure. LastSyncedAt marks the
// attempt; LastSyncedStock keeps its previous value because nothing
// reached the channel.
func (l *ChannelListing) SetSyncError(message string) {
	now := time.Now()
	l.LastSyncedAt = &now
	l.SyncError = syncErrorPrefix + message
	l.UpdatedAt = now
	l.IncrementVersion()
}

// ClearSyncError removes any recorded sync message
func (l *ChannelListing) ClearSyncError() {
	l.SyncError = ""
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// HasSyncError returns true if the last sync attempt failed
func (l *ChannelListing) HasSyncError() bool {
	return strings.HasPrefix(l.SyncError, syncErrorPrefix)
}

// HasSyncWarning returns true if the last sync left a warning-tagged message
func (l *ChannelListing) HasSyncWarning() bool {
	return strings.HasPrefix(l.SyncError, syncWarnPrefix)
}

// IsSyncable returns true if the listing should receive stock pushes
func (l *ChannelListing) IsSyncable() bool {
	return l.SyncEnabled && l.Status != ListingStatusClosed
}

// SetAttributes replaces the listing's channel attribute set
func (l *ChannelListing) SetAttributes(attrs []ListingAttribute) {
	for idx := range attrs {
		attrs[idx].ListingID = l.ID
	}
	l.Attributes = attrs
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// StockMapping links a listing to one stocked product. UnitsPerSale is
// how many product units one channel sale consumes. Priority is kept
// for operator bookkeeping; it does not affect stock derivation.
type StockMapping struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ListingID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UnitsPerSale int64     `gorm:"not null;default:1"`
	Priority     int       `gorm:"not null;default:0"`
	Enabled      bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMapping) TableName() string {
	return "stock_mappings"
}

// NewStockMapping creates a new enabled stock mapping
func NewStockMapping(listingID, productID uuid.UUID, unitsPerSale int64, priority int) *StockMapping {
	now := time.Now()
	return &StockMapping{
		ID:           uuid.New(),
		ListingID:    listingID,
		ProductID:    productID,
		UnitsPerSale: unitsPerSale,
		Priority:     priority,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ListingAttribute is one channel attribute attached to a listing,
// e.g. BRAND=Sony. IDs are channel-side identifiers.
type ListingAttribute struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ListingID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AttributeID string    `gorm:"type:varchar(50);not null"`
	Name        string    `gorm:"type:varchar(100)"`
	ValueID     string    `gorm:"type:varchar(50)"`
	ValueName   string    `gorm:"type:varchar(200)"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ListingAttribute) TableName() string {
	return "listing_attributes"
}

// NewListingAttribute creates a new listing attribute
func NewListingAttribute(attributeID, name, valueID, valueName string) ListingAttribute {
	now := time.Now()
	return ListingAttribute{
		ID:          uuid.New(),
		AttributeID: attributeID,
		Name:        name,
		ValueID:     valueID,
		ValueName:   valueName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
