package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/purchasing"
	"github.com/importops/backend/internal/domain/shared"
	"github.com/importops/backend/internal/domain/shared/valueobject"
	"github.com/importops/backend/internal/infrastructure/telemetry"
)

// FinalizeService turns a received purchase order into stocked
// inventory. In a single transaction it allocates the order's import
// costs, sets the write-once stocked latch, and folds every item into
// its product's moving average cost. Running it twice for the same
// order fails with ALREADY_PROCESSED; a failure partway leaves nothing
// behind.
type FinalizeService struct {
	scope           TransactionScope
	defaultPricing  inventory.PricingParams
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewFinalizeService creates a new FinalizeService
func NewFinalizeService(scope TransactionScope, defaultPricing inventory.PricingParams, logger *zap.Logger) *FinalizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalizeService{
		scope:          scope,
		defaultPricing: defaultPricing,
		logger:         logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *FinalizeService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Finalize stocks a received order
func (s *FinalizeService) Finalize(ctx context.Context, orderID uuid.UUID, req FinalizeOrderRequest) (*FinalizeResultResponse, error) {
	pricing := s.defaultPricing
	if req.FxRateArs != nil {
		pricing.FxRateArs = *req.FxRateArs
	}
	if req.MarkupPercent != nil {
		pricing.MarkupPercent = *req.MarkupPercent
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}

	var result *FinalizeResultResponse
	var totalValue decimal.Decimal

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsReceived() {
			return shared.NewDomainError("INVALID_STATE", "Only received orders can be stocked")
		}
		if order.Stocked {
			return shared.ErrAlreadyProcessed
		}

		allocations, err := order.Allocate()
		if err != nil {
			return err
		}

		// The conditional update is the real guard: a concurrent
		// finalize that won the race flips the latch first and this
		// transaction backs out.
		now := time.Now()
		latched, err := repos.OrderRepo().MarkStocked(ctx, orderID, now)
		if err != nil {
			return err
		}
		if !latched {
			return shared.ErrAlreadyProcessed
		}

		for idx := range allocations {
			alloc := &allocations[idx]
			if err := s.receiveAllocation(ctx, repos.ProductRepo(), order, alloc, pricing); err != nil {
				return err
			}
			totalValue = totalValue.Add(alloc.TotalFinalCost)
		}

		result = &FinalizeResultResponse{
			OrderID:     orderID,
			StockedAt:   now,
			Allocations: ToAllocationResponses(allocations),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order stocked",
		zap.String("order_id", orderID.String()),
		zap.Int("items", len(result.Allocations)),
		zap.String("total_value_usd", totalValue.String()),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderStocked(ctx, totalValue)
	}

	return result, nil
}

// receiveAllocation folds one allocated item into its product,
// creating the product on first receipt.
func (s *FinalizeService) receiveAllocation(ctx context.Context, productRepo inventory.Repository, order *purchasing.PurchaseOrder, alloc *purchasing.ItemAllocation, pricing inventory.PricingParams) error {
	product, err := productRepo.FindByLeadIDForUpdate(ctx, alloc.LeadID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		item := order.GetItem(alloc.ItemID)
		product, err = inventory.NewProduct(alloc.LeadID, item.LeadName, "")
		if err != nil {
			return err
		}
	}

	unitCost := valueobject.NewMoneyUSD(alloc.FinalUnitCost)
	if _, err := product.Receive(order.ID, alloc.ItemID, alloc.Quantity, unitCost, pricing); err != nil {
		return err
	}

	return productRepo.Save(ctx, product)
}
