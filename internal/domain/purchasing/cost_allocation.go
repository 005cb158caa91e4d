package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/shared"
)

// ItemAllocation is the result of distributing an order's shared import
// costs across one line item. All amounts are in USD.
type ItemAllocation struct {
	ItemID            uuid.UUID
	LeadID            uuid.UUID
	Quantity          decimal.Decimal
	NetUnitPrice      decimal.Decimal
	FobValue          decimal.Decimal
	ImportCostShare   decimal.Decimal
	ImportCostPerUnit decimal.Decimal
	FinalUnitCost     decimal.Decimal
	TotalFinalCost    decimal.Decimal
}

// AllocateImportCosts distributes a pool of shared import costs across
// order items proportionally to each item's FOB value. Shares are
// rounded to 2 decimal places; any rounding remainder is attributed to
// the item with the highest FOB value so the shares always sum to the
// pool exactly.
func AllocateImportCosts(items []OrderItem, pool decimal.Decimal) ([]ItemAllocation, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Cannot allocate costs over an empty order")
	}
	if pool.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Import cost pool cannot be negative")
	}

	allocations := make([]ItemAllocation, len(items))
	totalFob := decimal.Zero
	maxIdx := 0
	for idx := range items {
		item := &items[idx]
		net := item.NetUnitPrice()
		fob := item.Quantity.Mul(net)
		allocations[idx] = ItemAllocation{
			ItemID:       item.ID,
			LeadID:       item.LeadID,
			Quantity:     item.Quantity,
			NetUnitPrice: net,
			FobValue:     fob,
		}
		totalFob = totalFob.Add(fob)
		if fob.GreaterThan(allocations[maxIdx].FobValue) {
			maxIdx = idx
		}
	}

	if pool.IsPositive() && !totalFob.IsPositive() {
		return nil, shared.NewDomainError("ZERO_FOB_VALUE", "Cannot allocate costs over items with zero total FOB value")
	}

	allocated := decimal.Zero
	for idx := range allocations {
		a := &allocations[idx]
		if pool.IsPositive() {
			a.ImportCostShare = pool.Mul(a.FobValue).Div(totalFob).Round(2)
		} else {
			a.ImportCostShare = decimal.Zero
		}
		allocated = allocated.Add(a.ImportCostShare)
	}

	// Rounding drift lands on the highest-FOB item.
	remainder := pool.Sub(allocated)
	if !remainder.IsZero() {
		allocations[maxIdx].ImportCostShare = allocations[maxIdx].ImportCostShare.Add(remainder)
	}

	for idx := range allocations {
		a := &allocations[idx]
		a.ImportCostPerUnit = a.ImportCostShare.Div(a.Quantity).Round(4)
		a.FinalUnitCost = a.NetUnitPrice.Add(a.ImportCostPerUnit)
		a.TotalFinalCost = a.FobValue.Add(a.ImportCostShare)
	}

	return allocations, nil
}

// Allocate distributes the order's own import cost pool across its items
func (o *PurchaseOrder) Allocate() ([]ItemAllocation, error) {
	return AllocateImportCosts(o.Items, o.TotalImportCost())
}
