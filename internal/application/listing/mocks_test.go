package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/shared"
)

// MockListingRepository is a mock implementation of listing.Repository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.ChannelListing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ChannelListing), args.Error(1)
}

func (m *MockListingRepository) FindByExternalID(ctx context.Context, externalID string) (*listing.ChannelListing, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ChannelListing), args.Error(1)
}

func (m *MockListingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*listing.ChannelListing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.ChannelListing), args.Error(1)
}

func (m *MockListingRepository) FindSyncable(ctx context.Context) ([]*listing.ChannelListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.ChannelListing), args.Error(1)
}

func (m *MockListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*listing.ChannelListing, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.ChannelListing), args.Error(1)
}

func (m *MockListingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, l *listing.ChannelListing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of inventory.Repository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByLeadID(ctx context.Context, leadID uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByLeadIDForUpdate(ctx context.Context, leadID uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*inventory.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindBatches(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]*inventory.ProductBatch, error) {
	args := m.Called(ctx, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.ProductBatch), args.Error(1)
}

// MockSalesChannel is a mock implementation of integration.SalesChannel
type MockSalesChannel struct {
	mock.Mock
}

func (m *MockSalesChannel) Name() string {
	return "mercadolibre"
}

func (m *MockSalesChannel) ExchangeAuthCode(ctx context.Context, code string) (*integration.TokenPair, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TokenPair), args.Error(1)
}

func (m *MockSalesChannel) RefreshToken(ctx context.Context, refreshToken string) (*integration.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TokenPair), args.Error(1)
}

func (m *MockSalesChannel) UpdateListingStock(ctx context.Context, accessToken, externalID string, quantity int64) error {
	args := m.Called(ctx, accessToken, externalID, quantity)
	return args.Error(0)
}

func (m *MockSalesChannel) FetchListing(ctx context.Context, accessToken, externalID string) (*integration.RemoteListing, error) {
	args := m.Called(ctx, accessToken, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteListing), args.Error(1)
}

func (m *MockSalesChannel) FetchCategoryAttributes(ctx context.Context, accessToken, categoryID string) ([]integration.CategoryAttribute, error) {
	args := m.Called(ctx, accessToken, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.CategoryAttribute), args.Error(1)
}

func (m *MockSalesChannel) CreateListing(ctx context.Context, accessToken string, draft *integration.ListingDraft) (*integration.RemoteListing, error) {
	args := m.Called(ctx, accessToken, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteListing), args.Error(1)
}

func (m *MockSalesChannel) UpdateListing(ctx context.Context, accessToken, externalID string, draft *integration.ListingDraft) error {
	args := m.Called(ctx, accessToken, externalID, draft)
	return args.Error(0)
}

// staticTokenProvider returns a fixed token
type staticTokenProvider struct {
	token string
	err   error
}

func (p staticTokenProvider) GetValidToken(context.Context) (string, error) {
	return p.token, p.err
}
