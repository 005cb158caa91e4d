package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/inventory"
)

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search   string `form:"search"`
	InStock  *bool  `form:"in_stock"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity" binding:"required"`
	Reason         string          `json:"reason" binding:"required,min=1,max=500"`
}

// RepriceRequest recomputes ARS prices with new pricing inputs
type RepriceRequest struct {
	FxRateArs     decimal.Decimal `json:"fx_rate_ars" binding:"required"`
	MarkupPercent decimal.Decimal `json:"markup_percent" binding:"required"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                 uuid.UUID       `json:"id"`
	LeadID             uuid.UUID       `json:"lead_id"`
	Name               string          `json:"name"`
	Sku                string          `json:"sku,omitempty"`
	Stock              decimal.Decimal `json:"stock"`
	AverageUnitCostUsd decimal.Decimal `json:"average_unit_cost_usd"`
	FinalPriceArs      decimal.Decimal `json:"final_price_ars"`
	StockValueUsd      decimal.Decimal `json:"stock_value_usd"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

// ProductBatchResponse represents one receipt ledger entry
type ProductBatchResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	OrderItemID  uuid.UUID       `json:"order_item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCostUsd  decimal.Decimal `json:"unit_cost_usd"`
	TotalCostUsd decimal.Decimal `json:"total_cost_usd"`
	ReceivedAt   time.Time       `json:"received_at"`
}

// ToProductResponse converts a domain product to a response DTO
func ToProductResponse(p *inventory.Product) ProductResponse {
	return ProductResponse{
		ID:                 p.ID,
		LeadID:             p.LeadID,
		Name:               p.Name,
		Sku:                p.Sku,
		Stock:              p.Stock,
		AverageUnitCostUsd: p.AverageUnitCostUsd,
		FinalPriceArs:      p.FinalPriceArs,
		StockValueUsd:      p.StockValue().Amount(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		Version:            p.Version,
	}
}

// ToProductBatchResponse converts a domain batch to a response DTO
func ToProductBatchResponse(b *inventory.ProductBatch) ProductBatchResponse {
	return ProductBatchResponse{
		ID:           b.ID,
		OrderID:      b.OrderID,
		OrderItemID:  b.OrderItemID,
		Quantity:     b.Quantity,
		UnitCostUsd:  b.UnitCostUsd,
		TotalCostUsd: b.TotalCost(),
		ReceivedAt:   b.ReceivedAt,
	}
}
