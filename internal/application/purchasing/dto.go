package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/purchasing"
)

// ==================== Purchase Order DTOs ====================

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID   uuid.UUID                      `json:"supplier_id" binding:"required"`
	SupplierName string                         `json:"supplier_name" binding:"required,min=1,max=200"`
	Items        []CreatePurchaseOrderItemInput `json:"items"`
	Remark       string                         `json:"remark"`
}

// CreatePurchaseOrderItemInput represents an item in the create order request
type CreatePurchaseOrderItemInput struct {
	LeadID          uuid.UUID       `json:"lead_id" binding:"required"`
	LeadName        string          `json:"lead_name" binding:"required,min=1,max=200"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPriceUsd    decimal.Decimal `json:"unit_price_usd" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// AddOrderItemRequest represents a request to add an item to a draft order
type AddOrderItemRequest struct {
	LeadID          uuid.UUID       `json:"lead_id" binding:"required"`
	LeadName        string          `json:"lead_name" binding:"required,min=1,max=200"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPriceUsd    decimal.Decimal `json:"unit_price_usd" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// AddImportCostRequest represents a request to attach a shared import charge
type AddImportCostRequest struct {
	Category  string          `json:"category" binding:"required,oneof=FREIGHT CUSTOMS INSURANCE OTHER"`
	AmountUsd decimal.Decimal `json:"amount_usd" binding:"required"`
	Remark    string          `json:"remark" binding:"max=500"`
}

// AdvanceOrderRequest represents a request to move an order to its next status
type AdvanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// FinalizeOrderRequest represents a request to stock a received order.
// FX rate and markup override the configured defaults when provided.
type FinalizeOrderRequest struct {
	FxRateArs     *decimal.Decimal `json:"fx_rate_ars"`
	MarkupPercent *decimal.Decimal `json:"markup_percent"`
}

// PurchaseOrderListFilter represents filter options for the order list
type PurchaseOrderListFilter struct {
	Search     string     `form:"search"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Status     *string    `form:"status"`
	Stocked    *bool      `form:"stocked"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                 uuid.UUID                   `json:"id"`
	OrderNumber        string                      `json:"order_number"`
	SupplierID         uuid.UUID                   `json:"supplier_id"`
	SupplierName       string                      `json:"supplier_name"`
	Status             string                      `json:"status"`
	Stocked            bool                        `json:"stocked"`
	StockedAt          *time.Time                  `json:"stocked_at,omitempty"`
	Items              []PurchaseOrderItemResponse `json:"items"`
	ImportCosts        []ImportCostResponse        `json:"import_costs"`
	TotalFobValueUsd   decimal.Decimal             `json:"total_fob_value_usd"`
	TotalImportCostUsd decimal.Decimal             `json:"total_import_cost_usd"`
	Remark             string                      `json:"remark"`
	ReceivedAt         *time.Time                  `json:"received_at,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
	Version            int                         `json:"version"`
}

// PurchaseOrderItemResponse represents an order item in API responses
type PurchaseOrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	LeadID          uuid.UUID       `json:"lead_id"`
	LeadName        string          `json:"lead_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPriceUsd    decimal.Decimal `json:"unit_price_usd"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	NetUnitPriceUsd decimal.Decimal `json:"net_unit_price_usd"`
	FobValueUsd     decimal.Decimal `json:"fob_value_usd"`
}

// ImportCostResponse represents an import cost in API responses
type ImportCostResponse struct {
	ID        uuid.UUID       `json:"id"`
	Category  string          `json:"category"`
	AmountUsd decimal.Decimal `json:"amount_usd"`
	Remark    string          `json:"remark,omitempty"`
}

// AllocationResponse represents the cost allocation preview for one item
type AllocationResponse struct {
	ItemID               uuid.UUID       `json:"item_id"`
	LeadID               uuid.UUID       `json:"lead_id"`
	Quantity             decimal.Decimal `json:"quantity"`
	NetUnitPriceUsd      decimal.Decimal `json:"net_unit_price_usd"`
	FobValueUsd          decimal.Decimal `json:"fob_value_usd"`
	ImportCostShareUsd   decimal.Decimal `json:"import_cost_share_usd"`
	ImportCostPerUnitUsd decimal.Decimal `json:"import_cost_per_unit_usd"`
	FinalUnitCostUsd     decimal.Decimal `json:"final_unit_cost_usd"`
	TotalFinalCostUsd    decimal.Decimal `json:"total_final_cost_usd"`
}

// FinalizeResultResponse summarizes a completed finalization
type FinalizeResultResponse struct {
	OrderID     uuid.UUID            `json:"order_id"`
	StockedAt   time.Time            `json:"stocked_at"`
	Allocations []AllocationResponse `json:"allocations"`
}

// ToPurchaseOrderResponse converts a domain order to a response DTO
func ToPurchaseOrderResponse(order *purchasing.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(order.Items))
	for idx := range order.Items {
		item := &order.Items[idx]
		items = append(items, PurchaseOrderItemResponse{
			ID:              item.ID,
			LeadID:          item.LeadID,
			LeadName:        item.LeadName,
			Quantity:        item.Quantity,
			UnitPriceUsd:    item.UnitPriceUsd,
			DiscountPercent: item.DiscountPercent,
			NetUnitPriceUsd: item.NetUnitPrice(),
			FobValueUsd:     item.FobValue(),
		})
	}

	costs := make([]ImportCostResponse, 0, len(order.ImportCosts))
	for _, cost := range order.ImportCosts {
		costs = append(costs, ImportCostResponse{
			ID:        cost.ID,
			Category:  string(cost.Category),
			AmountUsd: cost.AmountUsd,
			Remark:    cost.Remark,
		})
	}

	return PurchaseOrderResponse{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		SupplierID:         order.SupplierID,
		SupplierName:       order.SupplierName,
		Status:             string(order.Status),
		Stocked:            order.Stocked,
		StockedAt:          order.StockedAt,
		Items:              items,
		ImportCosts:        costs,
		TotalFobValueUsd:   order.TotalFobValue(),
		TotalImportCostUsd: order.TotalImportCost(),
		Remark:             order.Remark,
		ReceivedAt:         order.ReceivedAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
		Version:            order.Version,
	}
}

// ToAllocationResponses converts domain allocations to response DTOs
func ToAllocationResponses(allocations []purchasing.ItemAllocation) []AllocationResponse {
	out := make([]AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, AllocationResponse{
			ItemID:               a.ItemID,
			LeadID:               a.LeadID,
			Quantity:             a.Quantity,
			NetUnitPriceUsd:      a.NetUnitPrice,
			FobValueUsd:          a.FobValue,
			ImportCostShareUsd:   a.ImportCostShare,
			ImportCostPerUnitUsd: a.ImportCostPerUnit,
			FinalUnitCostUsd:     a.FinalUnitCost,
			TotalFinalCostUsd:    a.TotalFinalCost,
		})
	}
	return out
}
