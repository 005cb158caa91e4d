package listing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/shared"
)

// ListingService handles local listing records and their product mappings
type ListingService struct {
	listingRepo listing.Repository
	productRepo inventory.Repository
	logger      *zap.Logger
}

// NewListingService creates a new ListingService
func NewListingService(listingRepo listing.Repository, productRepo inventory.Repository, logger *zap.Logger) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		listingRepo: listingRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create registers a channel publication locally
func (s *ListingService) Create(ctx context.Context, req CreateListingRequest) (*ListingResponse, error) {
	if existing, err := s.listingRepo.FindByExternalID(ctx, req.ExternalID); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	l, err := listing.NewChannelListing(req.ExternalID, req.Title, req.PriceArs)
	if err != nil {
		return nil, err
	}
	l.CategoryID = req.CategoryID

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	response := ToListingResponse(l)
	return &response, nil
}

// GetByID retrieves a listing by ID
func (s *ListingService) GetByID(ctx context.Context, listingID uuid.UUID) (*ListingResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	response := ToListingResponse(l)
	return &response, nil
}

// List retrieves listings with filtering and pagination
func (s *ListingService) List(ctx context.Context, filter ListingListFilter) ([]ListingResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}

	listings, err := s.listingRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.listingRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, ToListingResponse(l))
	}
	return responses, total, nil
}

// MapProduct attaches a product to a listing. The product must exist.
func (s *ListingService) MapProduct(ctx context.Context, listingID uuid.UUID, req MapProductRequest) (*ListingResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	if _, err := l.MapProduct(req.ProductID, req.UnitsPerSale, req.Priority); err != nil {
		return nil, err
	}

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	response := ToListingResponse(l)
	return &response, nil
}

// UnmapProduct removes a product mapping from a listing
func (s *ListingService) UnmapProduct(ctx context.Context, listingID, productID uuid.UUID) (*ListingResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if err := l.UnmapProduct(productID); err != nil {
		return nil, err
	}

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	response := ToListingResponse(l)
	return &response, nil
}

// SetMappingEnabled toggles one mapping without removing it
func (s *ListingService) SetMappingEnabled(ctx context.Context, listingID, productID uuid.UUID, enabled bool) (*ListingResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if err := l.SetMappingEnabled(productID, enabled); err != nil {
		return nil, err
	}

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	response := ToListingResponse(l)
	return &response, nil
}

// SetSyncEnabled toggles stock pushes for a listing
func (s *ListingService) SetSyncEnabled(ctx context.Context, listingID uuid.UUID, enabled bool) (*ListingResponse, error) {
	l, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if enabled {
		l.EnableSync()
	} else {
		l.DisableSync()
	}

	if err := s.listingRepo.Save(ctx, l); err != nil {
		return nil, err
	}

	response := ToListingResponse(l)
	return &response, nil
}

// Delete removes a local listing record. The channel publication is
// not touched.
func (s *ListingService) Delete(ctx context.Context, listingID uuid.UUID) error {
	if _, err := s.listingRepo.FindByID(ctx, listingID); err != nil {
		return err
	}
	return s.listingRepo.Delete(ctx, listingID)
}
