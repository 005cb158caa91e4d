package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	listingapp "github.com/importops/backend/internal/application/listing"
	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/domain/listing"
	"github.com/importops/backend/internal/domain/shared/valueobject"
	"github.com/importops/backend/internal/infrastructure/persistence"
)

// stubChannel is a minimal SalesChannel for handler tests. Only stock
// pushes are exercised; the remaining calls fail loudly if reached.
type stubChannel struct {
	stockErr   error
	lastPushed int64
}

func (c *stubChannel) Name() string { return "mercadolibre" }

func (c *stubChannel) ExchangeAuthCode(context.Context, string) (*integration.TokenPair, error) {
	return nil, integration.ErrChannelRequestFailed
}

func (c *stubChannel) RefreshToken(context.Context, string) (*integration.TokenPair, error) {
	return nil, integration.ErrChannelRequestFailed
}

func (c *stubChannel) UpdateListingStock(_ context.Context, _, _ string, quantity int64) error {
	if c.stockErr != nil {
		return c.stockErr
	}
	c.lastPushed = quantity
	return nil
}

func (c *stubChannel) FetchListing(context.Context, string, string) (*integration.RemoteListing, error) {
	return nil, integration.ErrListingNotFound
}

func (c *stubChannel) FetchCategoryAttributes(context.Context, string, string) ([]integration.CategoryAttribute, error) {
	return nil, integration.ErrChannelRequestFailed
}

func (c *stubChannel) CreateListing(context.Context, string, *integration.ListingDraft) (*integration.RemoteListing, error) {
	return nil, integration.ErrChannelRequestFailed
}

func (c *stubChannel) UpdateListing(context.Context, string, string, *integration.ListingDraft) error {
	return integration.ErrChannelRequestFailed
}

type stubTokens struct{}

func (stubTokens) GetValidToken(context.Context) (string, error) { return "APP_USR-token", nil }

type listingTestEnv struct {
	router      *gin.Engine
	channel     *stubChannel
	listingRepo *persistence.GormListingRepository
	productRepo *persistence.GormProductRepository
}

func newListingTestEnv(t *testing.T) *listingTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&listing.ChannelListing{},
		&listing.StockMapping{},
		&listing.ListingAttribute{},
		&inventory.Product{},
		&inventory.ProductBatch{},
	))

	channel := &stubChannel{}
	listingRepo := persistence.NewGormListingRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	h := NewListingHandler(
		listingapp.NewListingService(listingRepo, productRepo, zap.NewNop()),
		listingapp.NewSyncService(listingRepo, productRepo, channel, stubTokens{}, 2, zap.NewNop()),
	)

	r := gin.New()
	r.POST("/listings/:id/mappings", h.MapProduct)
	r.PUT("/listings/:id/mappings", h.ConnectMappings)
	return &listingTestEnv{router: r, channel: channel, listingRepo: listingRepo, productRepo: productRepo}
}

func (e *listingTestEnv) seedListing(t *testing.T) *listing.ChannelListing {
	t.Helper()
	l, err := listing.NewChannelListing("MLA-HANDLER", "Parlante Bluetooth JBL", decimal.NewFromInt(85000))
	require.NoError(t, err)
	require.NoError(t, e.listingRepo.Save(context.Background(), l))
	return l
}

func (e *listingTestEnv) seedProduct(t *testing.T, units int64) *inventory.Product {
	t.Helper()
	product, err := inventory.NewProduct(uuid.New(), "Bluetooth Speaker", "SPK-"+uuid.New().String()[:8])
	require.NoError(t, err)
	_, err = product.Receive(uuid.New(), uuid.New(), decimal.NewFromInt(units), valueobject.NewMoneyUSDFromFloat(5.00), inventory.PricingParams{
		FxRateArs:     decimal.NewFromInt(1000),
		MarkupPercent: decimal.NewFromInt(60),
	})
	require.NoError(t, err)
	require.NoError(t, e.productRepo.Save(context.Background(), product))
	return product
}

func TestListingHandler_ConnectMappings(t *testing.T) {
	env := newListingTestEnv(t)
	l := env.seedListing(t)
	speaker := env.seedProduct(t, 10)
	cable := env.seedProduct(t, 40)

	w := doJSON(t, env.router, http.MethodPut, "/listings/"+l.ID.String()+"/mappings", gin.H{
		"mappings": []gin.H{
			{"product_id": speaker.ID.String(), "units_per_sale": 1},
			{"product_id": cable.ID.String(), "units_per_sale": 4},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data listingapp.ConnectMappingsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, listingapp.SyncOutcomeOK, resp.Data.SyncOutcome)
	assert.Len(t, resp.Data.Listing.Mappings, 2)
	assert.Equal(t, int64(10), env.channel.lastPushed)
}

func TestListingHandler_ConnectMappings_ReplacesExistingSet(t *testing.T) {
	env := newListingTestEnv(t)
	l := env.seedListing(t)
	first := env.seedProduct(t, 10)
	second := env.seedProduct(t, 6)

	w := doJSON(t, env.router, http.MethodPost, "/listings/"+l.ID.String()+"/mappings", gin.H{
		"product_id":     first.ID.String(),
		"units_per_sale": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, env.router, http.MethodPut, "/listings/"+l.ID.String()+"/mappings", gin.H{
		"mappings": []gin.H{{"product_id": second.ID.String(), "units_per_sale": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data listingapp.ConnectMappingsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Listing.Mappings, 1)
	assert.Equal(t, second.ID, resp.Data.Listing.Mappings[0].ProductID)
	assert.Equal(t, int64(6), env.channel.lastPushed)
}

func TestListingHandler_ConnectMappings_PushRejectedKeepsMappings(t *testing.T) {
	env := newListingTestEnv(t)
	env.channel.stockErr = integration.ErrChannelRecoverable
	l := env.seedListing(t)
	product := env.seedProduct(t, 10)

	w := doJSON(t, env.router, http.MethodPut, "/listings/"+l.ID.String()+"/mappings", gin.H{
		"mappings": []gin.H{{"product_id": product.ID.String(), "units_per_sale": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data listingapp.ConnectMappingsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, listingapp.SyncOutcomeWarning, resp.Data.SyncOutcome)
	assert.NotEmpty(t, resp.Data.SyncMessage)
	assert.Len(t, resp.Data.Listing.Mappings, 1)

	stored, err := env.listingRepo.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Mappings, 1, "the saved mapping set survives the rejected push")
	assert.True(t, stored.HasSyncWarning())
}

func TestListingHandler_ConnectMappings_BadUUID(t *testing.T) {
	env := newListingTestEnv(t)

	w := doJSON(t, env.router, http.MethodPut, "/listings/not-a-uuid/mappings", gin.H{"mappings": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
