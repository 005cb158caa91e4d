package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/shared"
)

// MockCredentialRepository is a mock implementation of integration.CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) FindByChannel(ctx context.Context, channelName string) (*integration.ChannelCredential, error) {
	args := m.Called(ctx, channelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ChannelCredential), args.Error(1)
}

func (m *MockCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ChannelCredential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ChannelCredential), args.Error(1)
}

func (m *MockCredentialRepository) Save(ctx context.Context, cred *integration.ChannelCredential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepository) Delete(ctx context.Context, channelName string) error {
	args := m.Called(ctx, channelName)
	return args.Error(0)
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

// noopLocker always grants the lock immediately
type noopLocker struct{}

func (noopLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

func validCredential(t *testing.T) *integration.ChannelCredential {
	t.Helper()
	cred, err := integration.NewChannelCredential("mercadolibre", &integration.TokenPair{
		AccessToken:   "APP_USR-access",
		RefreshToken:  "TG-refresh",
		ExpiresIn:     21600,
		ChannelUserID: "123456",
	})
	require.NoError(t, err)
	return cred
}

func expiredCredential(t *testing.T) *integration.ChannelCredential {
	t.Helper()
	cred := validCredential(t)
	cred.ExpiresAt = time.Now().Add(-time.Minute)
	return cred
}

func TestCredentialService_Connect(t *testing.T) {
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	channel.On("ExchangeAuthCode", mock.Anything, "AUTH-CODE").Return(&integration.TokenPair{
		AccessToken:   "APP_USR-new",
		RefreshToken:  "TG-new",
		ExpiresIn:     21600,
		ChannelUserID: "123456",
	}, nil)
	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(nil, shared.ErrNotConnected)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	status, err := svc.Connect(context.Background(), "AUTH-CODE")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "123456", status.ChannelUserID)
	repo.AssertExpectations(t)
}

func TestCredentialService_Connect_ReplacesExisting(t *testing.T) {
	existing := validCredential(t)
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	channel.On("ExchangeAuthCode", mock.Anything, "AUTH-CODE").Return(&integration.TokenPair{
		AccessToken:   "APP_USR-rotated",
		RefreshToken:  "TG-rotated",
		ExpiresIn:     21600,
		ChannelUserID: "123456",
	}, nil)
	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(existing, nil)
	repo.On("Save", mock.Anything, existing).Return(nil)

	_, err := svc.Connect(context.Background(), "AUTH-CODE")
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-rotated", existing.AccessToken)
}

func TestCredentialService_Connect_EmptyCode(t *testing.T) {
	svc := NewCredentialService(new(MockCredentialRepository), new(MockSalesChannel), noopLocker{}, zap.NewNop())
	_, err := svc.Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestCredentialService_GetValidToken_Fresh(t *testing.T) {
	cred := validCredential(t)
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(cred, nil)

	token, err := svc.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-access", token)
	channel.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
}

func TestCredentialService_GetValidToken_Refreshes(t *testing.T) {
	cred := expiredCredential(t)
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(cred, nil)
	channel.On("RefreshToken", mock.Anything, "TG-refresh").Return(&integration.TokenPair{
		AccessToken:   "APP_USR-rotated",
		RefreshToken:  "TG-rotated",
		ExpiresIn:     21600,
		ChannelUserID: "123456",
	}, nil)
	repo.On("Save", mock.Anything, cred).Return(nil)

	token, err := svc.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-rotated", token)
	assert.Equal(t, "TG-rotated", cred.RefreshToken)
}

func TestCredentialService_GetValidToken_DoubleCheckAfterLock(t *testing.T) {
	// First read sees an expired token; the re-read under the lock
	// returns a credential another worker already refreshed.
	stale := expiredCredential(t)
	fresh := validCredential(t)
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(stale, nil).Once()
	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(fresh, nil).Once()

	token, err := svc.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-access", token)
	channel.AssertNotCalled(t, "RefreshToken", mock.Anything, mock.Anything)
}

func TestCredentialService_GetValidToken_RefreshRejected(t *testing.T) {
	cred := expiredCredential(t)
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(cred, nil)
	channel.On("RefreshToken", mock.Anything, "TG-refresh").Return(nil, integration.ErrChannelAuthFailed)
	repo.On("Delete", mock.Anything, "mercadolibre").Return(nil)

	_, err := svc.GetValidToken(context.Background())
	assert.ErrorIs(t, err, shared.ErrNotConnected)
	repo.AssertCalled(t, "Delete", mock.Anything, "mercadolibre")
}

func TestCredentialService_GetValidToken_TransportErrorKeepsCredential(t *testing.T) {
	cred := expiredCredential(t)
	repo := new(MockCredentialRepository)
	channel := new(MockSalesChannel)
	svc := NewCredentialService(repo, channel, noopLocker{}, zap.NewNop())

	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(cred, nil)
	channel.On("RefreshToken", mock.Anything, "TG-refresh").Return(nil, integration.ErrChannelUnavailable)

	_, err := svc.GetValidToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrChannelUnavailable)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCredentialService_GetValidToken_NotConnected(t *testing.T) {
	repo := new(MockCredentialRepository)
	svc := NewCredentialService(repo, new(MockSalesChannel), noopLocker{}, zap.NewNop())

	repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(nil, shared.ErrNotConnected)

	_, err := svc.GetValidToken(context.Background())
	assert.ErrorIs(t, err, shared.ErrNotConnected)
}

func TestCredentialService_Status(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		cred := validCredential(t)
		repo := new(MockCredentialRepository)
		svc := NewCredentialService(repo, new(MockSalesChannel), noopLocker{}, zap.NewNop())
		repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(cred, nil)

		status, err := svc.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Connected)
	})

	t.Run("not connected", func(t *testing.T) {
		repo := new(MockCredentialRepository)
		svc := NewCredentialService(repo, new(MockSalesChannel), noopLocker{}, zap.NewNop())
		repo.On("FindByChannel", mock.Anything, "mercadolibre").Return(nil, shared.ErrNotConnected)

		status, err := svc.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Connected)
	})
}
