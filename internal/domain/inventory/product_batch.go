package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductBatch is an immutable ledger record of a single stock receipt.
// It preserves the fully landed unit cost of each batch so the history
// behind the moving average remains auditable. Batches are written once
// during order finalization and never updated.
type ProductBatch struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostUsd decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Landed cost per unit, USD
	ReceivedAt  time.Time       `gorm:"not null;index"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductBatch) TableName() string {
	return "product_batches"
}

// NewProductBatch creates a new receipt ledger record
func NewProductBatch(productID, orderID, itemID uuid.UUID, quantity, unitCost decimal.Decimal) *ProductBatch {
	now := time.Now()
	return &ProductBatch{
		ID:          uuid.New(),
		ProductID:   productID,
		OrderID:     orderID,
		OrderItemID: itemID,
		Quantity:    quantity,
		UnitCostUsd: unitCost,
		ReceivedAt:  now,
		CreatedAt:   now,
	}
}

// TotalCost returns the batch's total landed cost
func (b *ProductBatch) TotalCost() decimal.Decimal {
	return b.Quantity.Mul(b.UnitCostUsd)
}
