package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/shared"
	"github.com/importops/backend/internal/domain/shared/valueobject"
)

// Product represents a stocked product. It is the aggregate root for
// inventory operations: each receipt folds into the moving weighted
// average cost, and the ARS sale price is derived from that average.
// A product is keyed one-to-one to the catalog lead it originated from.
type Product struct {
	shared.BaseAggregateRoot
	LeadID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Name               string          `gorm:"type:varchar(200);not null"`
	Sku                string          `gorm:"type:varchar(50);index"`
	Stock              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageUnitCostUsd decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Moving weighted average, USD
	FinalPriceArs      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"` // Derived sale price, ARS

	// Receipt ledger - loaded lazily
	Batches []ProductBatch `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product for a catalog lead, with zero stock
func NewProduct(leadID uuid.UUID, name, sku string) (*Product, error) {
	if leadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEAD", "Product lead ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		LeadID:             leadID,
		Name:               name,
		Sku:                sku,
		Stock:              decimal.Zero,
		AverageUnitCostUsd: decimal.Zero,
		FinalPriceArs:      decimal.Zero,
		Batches:            make([]ProductBatch, 0),
	}, nil
}

// Receive folds a receipt into the product: stock increases, the
// average unit cost is recalculated as a moving weighted average, and
// the ARS price is re-derived. A batch record is appended to the ledger.
//
// New Average = (Old Stock * Old Average + Quantity * Unit Cost) / (Old Stock + Quantity)
func (p *Product) Receive(orderID, itemID uuid.UUID, quantity decimal.Decimal, unitCost valueobject.Money, pricing PricingParams) (*ProductBatch, error) {
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be a positive integer")
	}
	if unitCost.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}

	oldStock := p.Stock
	oldAverage := p.AverageUnitCostUsd

	if oldStock.IsZero() {
		p.AverageUnitCostUsd = unitCost.Amount().Round(4)
	} else {
		totalValue := oldStock.Mul(oldAverage).Add(quantity.Mul(unitCost.Amount()))
		p.AverageUnitCostUsd = totalValue.Div(oldStock.Add(quantity)).Round(4)
	}

	p.Stock = oldStock.Add(quantity)
	p.Reprice(pricing)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	batch := NewProductBatch(p.ID, orderID, itemID, quantity, unitCost.Amount())
	p.Batches = append(p.Batches, *batch)

	return batch, nil
}

// Reprice re-derives the ARS sale price from the current average cost.
// Final Price = Average Cost * FX Rate * (1 + Markup%), rounded to cents.
func (p *Product) Reprice(pricing PricingParams) {
	markup := decimal.NewFromInt(1).Add(pricing.MarkupPercent.Div(decimal.NewFromInt(100)))
	p.FinalPriceArs = p.AverageUnitCostUsd.Mul(pricing.FxRateArs).Mul(markup).Round(2)
}

// AdjustStock sets the stock to the counted quantity. The average cost
// is left untouched; only the on-hand units change.
func (p *Product) AdjustStock(actualQuantity decimal.Decimal, reason string) error {
	if actualQuantity.IsNegative() || !actualQuantity.IsInteger() {
		return shared.NewDomainError("INVALID_QUANTITY", "Actual quantity must be a non-negative integer")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}

	p.Stock = actualQuantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// DeductStock removes sold units from stock
func (p *Product) DeductStock(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be a positive integer")
	}
	if p.Stock.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock to deduct")
	}

	p.Stock = p.Stock.Sub(quantity)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// AverageUnitCost returns the average cost as a Money value object
func (p *Product) AverageUnitCost() valueobject.Money {
	return valueobject.NewMoneyUSD(p.AverageUnitCostUsd)
}

// StockValue returns the total value of on-hand stock at average cost
func (p *Product) StockValue() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Stock.Mul(p.AverageUnitCostUsd))
}

// HasStock returns true if any units are on hand
func (p *Product) HasStock() bool {
	return p.Stock.GreaterThan(decimal.Zero)
}

// PricingParams carries the inputs for deriving the ARS sale price
type PricingParams struct {
	FxRateArs     decimal.Decimal // ARS per USD
	MarkupPercent decimal.Decimal
}

// Validate checks the pricing parameters
func (pp PricingParams) Validate() error {
	if pp.FxRateArs.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_FX_RATE", "FX rate must be positive")
	}
	if pp.MarkupPercent.IsNegative() {
		return shared.NewDomainError("INVALID_MARKUP", "Markup percent cannot be negative")
	}
	return nil
}
