package listing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/shared"
)

func newListingService(listingRepo *MockListingRepository, productRepo *MockProductRepository) *ListingService {
	return NewListingService(listingRepo, productRepo, zap.NewNop())
}

func TestListingService_Create(t *testing.T) {
	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	listingRepo.On("FindByExternalID", mock.Anything, "MLA123").Return(nil, shared.ErrNotFound)
	listingRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Create(context.Background(), CreateListingRequest{
		ExternalID: "MLA123",
		Title:      "Parlante Bluetooth JBL Flip 6",
		CategoryID: "MLA1234",
		PriceArs:   decimal.NewFromInt(120000),
	})
	require.NoError(t, err)
	assert.Equal(t, "MLA123", resp.ExternalID)
	assert.Equal(t, "ACTIVE", resp.Status)
	assert.True(t, resp.SyncEnabled)
	listingRepo.AssertExpectations(t)
}

func TestListingService_Create_DuplicateExternalID(t *testing.T) {
	existing, err := listing.NewChannelListing("MLA123", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))
	listingRepo.On("FindByExternalID", mock.Anything, "MLA123").Return(existing, nil)

	_, err = svc.Create(context.Background(), CreateListingRequest{
		ExternalID: "MLA123",
		Title:      "Parlante",
		PriceArs:   decimal.NewFromInt(120000),
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	listingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestListingService_Create_InvalidPrice(t *testing.T) {
	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))
	listingRepo.On("FindByExternalID", mock.Anything, "MLA123").Return(nil, shared.ErrNotFound)

	_, err := svc.Create(context.Background(), CreateListingRequest{
		ExternalID: "MLA123",
		Title:      "Parlante",
		PriceArs:   decimal.NewFromInt(-1),
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PRICE", domainErr.Code)
}

func TestListingService_List(t *testing.T) {
	l1, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)
	l2, err := listing.NewChannelListing("MLA2", "Auriculares", decimal.NewFromInt(90000))
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	listingRepo.On("FindAll", mock.Anything, mock.Anything).Return([]*listing.ChannelListing{l1, l2}, nil)
	listingRepo.On("Count", mock.Anything, mock.Anything).Return(int64(2), nil)

	responses, total, err := svc.List(context.Background(), ListingListFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, responses, 2)
	assert.Equal(t, "MLA1", responses[0].ExternalID)
}

func TestListingService_MapProduct(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)
	product, err := inventory.NewProduct(uuid.New(), "Bluetooth Speaker", "SPK-001")
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	productRepo := new(MockProductRepository)
	svc := newListingService(listingRepo, productRepo)

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	listingRepo.On("Save", mock.Anything, l).Return(nil)

	resp, err := svc.MapProduct(context.Background(), l.ID, MapProductRequest{
		ProductID:    product.ID,
		UnitsPerSale: 2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Mappings, 1)
	assert.Equal(t, int64(2), resp.Mappings[0].UnitsPerSale)
}

func TestListingService_MapProduct_UnknownProduct(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)
	productID := uuid.New()

	listingRepo := new(MockListingRepository)
	productRepo := new(MockProductRepository)
	svc := newListingService(listingRepo, productRepo)

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	productRepo.On("FindByID", mock.Anything, productID).Return(nil, shared.ErrNotFound)

	_, err = svc.MapProduct(context.Background(), l.ID, MapProductRequest{
		ProductID:    productID,
		UnitsPerSale: 1,
	})
	require.Error(t, err)
	listingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestListingService_MapProduct_Duplicate(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)
	product, err := inventory.NewProduct(uuid.New(), "Bluetooth Speaker", "SPK-001")
	require.NoError(t, err)
	_, err = l.MapProduct(product.ID, 1, 0)
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	productRepo := new(MockProductRepository)
	svc := newListingService(listingRepo, productRepo)

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	_, err = svc.MapProduct(context.Background(), l.ID, MapProductRequest{
		ProductID:    product.ID,
		UnitsPerSale: 1,
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "DUPLICATE_MAPPING", domainErr.Code)
}

func TestListingService_UnmapProduct(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)
	productID := uuid.New()
	_, err = l.MapProduct(productID, 1, 0)
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	listingRepo.On("Save", mock.Anything, l).Return(nil)

	resp, err := svc.UnmapProduct(context.Background(), l.ID, productID)
	require.NoError(t, err)
	assert.Empty(t, resp.Mappings)
}

func TestListingService_SetMappingEnabled(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)
	productID := uuid.New()
	_, err = l.MapProduct(productID, 1, 0)
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	listingRepo.On("Save", mock.Anything, l).Return(nil)

	resp, err := svc.SetMappingEnabled(context.Background(), l.ID, productID, false)
	require.NoError(t, err)
	require.Len(t, resp.Mappings, 1)
	assert.False(t, resp.Mappings[0].Enabled)
	assert.Empty(t, l.EnabledMappings())
}

func TestListingService_SetSyncEnabled(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	listingRepo.On("Save", mock.Anything, l).Return(nil)

	resp, err := svc.SetSyncEnabled(context.Background(), l.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.SyncEnabled)

	resp, err = svc.SetSyncEnabled(context.Background(), l.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.SyncEnabled)
}

func TestListingService_Delete(t *testing.T) {
	l, err := listing.NewChannelListing("MLA1", "Parlante", decimal.NewFromInt(120000))
	require.NoError(t, err)

	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
	listingRepo.On("Delete", mock.Anything, l.ID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), l.ID))
	listingRepo.AssertExpectations(t)
}

func TestListingService_Delete_NotFound(t *testing.T) {
	listingRepo := new(MockListingRepository)
	svc := newListingService(listingRepo, new(MockProductRepository))

	id := uuid.New()
	listingRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	err := svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	listingRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
