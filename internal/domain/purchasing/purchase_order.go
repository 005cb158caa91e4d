package purchasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/importops/backend/internal/domain/shared"
	"github.com/importops/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft          PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusPendingPayment PurchaseOrderStatus = "PENDING_PAYMENT"
	PurchaseOrderStatusPaid           PurchaseOrderStatus = "PAID"
	PurchaseOrderStatusShipped        PurchaseOrderStatus = "SHIPPED"
	PurchaseOrderStatusInTransit      PurchaseOrderStatus = "IN_TRANSIT"
	PurchaseOrderStatusReceived       PurchaseOrderStatus = "RECEIVED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPendingPayment, PurchaseOrderStatusPaid,
		PurchaseOrderStatusShipped, PurchaseOrderStatusInTransit, PurchaseOrderStatusReceived:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// Next returns the status that follows s in the order lifecycle,
// or empty string if s is terminal.
func (s PurchaseOrderStatus) Next() PurchaseOrderStatus {
	switch s {
	case PurchaseOrderStatusDraft:
		return PurchaseOrderStatusPendingPayment
	case PurchaseOrderStatusPendingPayment:
		return PurchaseOrderStatusPaid
	case PurchaseOrderStatusPaid:
		return PurchaseOrderStatusShipped
	case PurchaseOrderStatusShipped:
		return PurchaseOrderStatusInTransit
	case PurchaseOrderStatusInTransit:
		return PurchaseOrderStatusReceived
	}
	return ""
}

// CanTransitionTo checks if the status can transition to the target status.
// The lifecycle is strictly linear; no status can be skipped or reverted.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	next := s.Next()
	return next != "" && next == target
}

// ImportCostCategory classifies a shared import charge
type ImportCostCategory string

const (
	ImportCostCategoryFreight   ImportCostCategory = "FREIGHT"
	ImportCostCategoryCustoms   ImportCostCategory = "CUSTOMS"
	ImportCostCategoryInsurance ImportCostCategory = "INSURANCE"
	ImportCostCategoryOther     ImportCostCategory = "OTHER"
)

// IsValid checks if the category is a known ImportCostCategory
func (c ImportCostCategory) IsValid() bool {
	switch c {
	case ImportCostCategoryFreight, ImportCostCategoryCustoms, ImportCostCategoryInsurance, ImportCostCategoryOther:
		return true
	}
	return false
}

// OrderItem represents a line item in a purchase order.
// It references a product lead (catalog entry) that may not yet exist in inventory.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	LeadID          uuid.UUID       `gorm:"type:uuid;not null"`
	LeadName        string          `gorm:"type:varchar(200);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceUsd    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // FOB price before discount and allocation
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order item
func NewOrderItem(orderID, leadID uuid.UUID, leadName string, quantity decimal.Decimal, unitPrice valueobject.Money, discountPercent decimal.Decimal) (*OrderItem, error) {
	if leadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEAD", "Product lead ID cannot be empty")
	}
	if leadName == "" {
		return nil, shared.NewDomainError("INVALID_LEAD_NAME", "Product lead name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}
	if unitPrice.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}

	now := time.Now()
	return &OrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		LeadID:          leadID,
		LeadName:        leadName,
		Quantity:        quantity,
		UnitPriceUsd:    unitPrice.Amount(),
		DiscountPercent: discountPercent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NetUnitPrice returns the per-unit FOB price after discount, rounded to 4 decimal places
func (i *OrderItem) NetUnitPrice() decimal.Decimal {
	discount := decimal.NewFromInt(1).Sub(i.DiscountPercent.Div(decimal.NewFromInt(100)))
	return i.UnitPriceUsd.Mul(discount).Round(4)
}

// FobValue returns the item's total FOB value (quantity x net unit price)
func (i *OrderItem) FobValue() decimal.Decimal {
	return i.Quantity.Mul(i.NetUnitPrice())
}

// ImportCost represents a shared import charge attached to a purchase order.
// The amount is distributed across the order's items during finalization.
type ImportCost struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	Category  ImportCostCategory `gorm:"type:varchar(20);not null"`
	AmountUsd decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Remark    string             `gorm:"type:varchar(500)"`
	CreatedAt time.Time          `gorm:"not null"`
	UpdatedAt time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImportCost) TableName() string {
	return "import_costs"
}

// NewImportCost creates a new import cost record
func NewImportCost(orderID uuid.UUID, category ImportCostCategory, amount valueobject.Money) (*ImportCost, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Unknown import cost category %q", category))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Import cost amount must be positive")
	}

	now := time.Now()
	return &ImportCost{
		ID:        uuid.New(),
		OrderID:   orderID,
		Category:  category,
		AmountUsd: amount.Amount(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PurchaseOrder represents a purchase order aggregate root.
// It tracks a supplier order from draft through receipt, and carries
// the write-once "stocked" latch set when its goods enter inventory.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName string              `gorm:"type:varchar(200);not null"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Stocked      bool                `gorm:"not null;default:false"`
	StockedAt    *time.Time
	Items        []OrderItem  `gorm:"foreignKey:OrderID;references:ID"`
	ImportCosts  []ImportCost `gorm:"foreignKey:OrderID;references:ID"`
	Remark       string       `gorm:"type:text"`
	ReceivedAt   *time.Time   `gorm:"index"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in DRAFT status
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Status:            PurchaseOrderStatusDraft,
		Items:             make([]OrderItem, 0),
		ImportCosts:       make([]ImportCost, 0),
	}, nil
}

// AddItem adds a new line item to the order.
// Only allowed in DRAFT status.
func (o *PurchaseOrder) AddItem(leadID uuid.UUID, leadName string, quantity decimal.Decimal, unitPrice valueobject.Money, discountPercent decimal.Decimal) (*OrderItem, error) {
	if o.Status != PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft order")
	}

	for _, item := range o.Items {
		if item.LeadID == leadID {
			return nil, shared.NewDomainError("DUPLICATE_LEAD", "Product lead already exists in order")
		}
	}

	item, err := NewOrderItem(o.ID, leadID, leadName, quantity, unitPrice, discountPercent)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return item, nil
}

// RemoveItem removes a line item from the order.
// Only allowed in DRAFT status.
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft order")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// AddImportCost attaches a shared import charge to the order.
// Allowed in any status before the order is stocked, since charges
// (customs, final freight invoices) often arrive after shipment.
func (o *PurchaseOrder) AddImportCost(category ImportCostCategory, amount valueobject.Money, remark string) (*ImportCost, error) {
	if o.Stocked {
		return nil, shared.NewDomainError("ALREADY_PROCESSED", "Cannot add import costs to a stocked order")
	}

	cost, err := NewImportCost(o.ID, category, amount)
	if err != nil {
		return nil, err
	}
	cost.Remark = remark

	o.ImportCosts = append(o.ImportCosts, *cost)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return cost, nil
}

// RemoveImportCost removes an import charge from the order
func (o *PurchaseOrder) RemoveImportCost(costID uuid.UUID) error {
	if o.Stocked {
		return shared.NewDomainError("ALREADY_PROCESSED", "Cannot remove import costs from a stocked order")
	}

	for idx, cost := range o.ImportCosts {
		if cost.ID == costID {
			o.ImportCosts = append(o.ImportCosts[:idx], o.ImportCosts[idx+1:]...)
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("COST_NOT_FOUND", "Import cost not found")
}

// Advance transitions the order to the target status.
// Leaving DRAFT requires at least one item.
func (o *PurchaseOrder) Advance(target PurchaseOrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	if o.Status == PurchaseOrderStatusDraft && len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot submit an order without items")
	}

	now := time.Now()
	o.Status = target
	if target == PurchaseOrderStatusReceived {
		o.ReceivedAt = &now
	}
	o.UpdatedAt = now
	o.IncrementVersion()

	return nil
}

// MarkStocked sets the write-once stocked latch.
// The order must be RECEIVED and must not already be stocked.
func (o *PurchaseOrder) MarkStocked(at time.Time) error {
	if o.Status != PurchaseOrderStatusReceived {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot stock order in %s status", o.Status))
	}
	if o.Stocked {
		return shared.ErrAlreadyProcessed
	}

	o.Stocked = true
	o.StockedAt = &at
	o.UpdatedAt = at
	o.IncrementVersion()

	return nil
}

// TotalFobValue returns the sum of all items' FOB values
func (o *PurchaseOrder) TotalFobValue() decimal.Decimal {
	total := decimal.Zero
	for idx := range o.Items {
		total = total.Add(o.Items[idx].FobValue())
	}
	return total
}

// TotalImportCost returns the sum of all import cost amounts
func (o *PurchaseOrder) TotalImportCost() decimal.Decimal {
	total := decimal.Zero
	for _, cost := range o.ImportCosts {
		total = total.Add(cost.AmountUsd)
	}
	return total
}

// ItemCount returns the number of line items
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// IsReceived returns true if the order has been received
func (o *PurchaseOrder) IsReceived() bool {
	return o.Status == PurchaseOrderStatusReceived
}

// CanModify returns true if the order contents can still be edited
func (o *PurchaseOrder) CanModify() bool {
	return o.Status == PurchaseOrderStatusDraft
}

// GetItem returns an item by its ID
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}
