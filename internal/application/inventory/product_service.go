package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/shared"
)

// ProductService handles product queries and stock corrections.
// Stock receipts happen through order finalization, never here.
type ProductService struct {
	productRepo inventory.Repository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo inventory.Repository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetByLeadID retrieves a product by its originating catalog lead
func (s *ProductService) GetByLeadID(ctx context.Context, leadID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByLeadID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.InStock != nil {
		domainFilter.Filters["in_stock"] = *filter.InStock
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, ToProductResponse(p))
	}
	return responses, total, nil
}

// ListBatches retrieves the receipt ledger for a product
func (s *ProductService) ListBatches(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]ProductBatchResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	filter.OrderBy = "received_at"
	filter.OrderDir = "desc"

	batches, err := s.productRepo.FindBatches(ctx, productID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductBatchResponse, 0, len(batches))
	for _, b := range batches {
		responses = append(responses, ToProductBatchResponse(b))
	}
	return responses, nil
}

// AdjustStock corrects a product's stock to the counted quantity
func (s *ProductService) AdjustStock(ctx context.Context, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	previous := product.Stock
	if err := product.AdjustStock(req.ActualQuantity, req.Reason); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product stock adjusted",
		zap.String("product_id", productID.String()),
		zap.String("from", previous.String()),
		zap.String("to", req.ActualQuantity.String()),
		zap.String("reason", req.Reason),
	)

	response := ToProductResponse(product)
	return &response, nil
}

// RepriceAll recomputes ARS prices for every product using new pricing
// inputs, e.g. after an FX rate move. Returns the number of products updated.
func (s *ProductService) RepriceAll(ctx context.Context, req RepriceRequest) (int, error) {
	pricing := inventory.PricingParams{
		FxRateArs:     req.FxRateArs,
		MarkupPercent: req.MarkupPercent,
	}
	if err := pricing.Validate(); err != nil {
		return 0, err
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 200
	updated := 0

	for {
		products, err := s.productRepo.FindAll(ctx, filter)
		if err != nil {
			return updated, err
		}
		if len(products) == 0 {
			break
		}

		for _, product := range products {
			product.Reprice(pricing)
			if err := s.productRepo.Save(ctx, product); err != nil {
				return updated, err
			}
			updated++
		}

		if len(products) < filter.PageSize {
			break
		}
		filter.Page++
	}

	s.logger.Info("products repriced",
		zap.Int("count", updated),
		zap.String("fx_rate_ars", req.FxRateArs.String()),
		zap.String("markup_percent", req.MarkupPercent.String()),
	)
	return updated, nil
}
