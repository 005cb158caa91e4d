package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importops/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestMercadoLibreConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *MercadoLibreConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: &MercadoLibreConfig{
				AppID:      "12345",
				Secret:     "secret",
				APIBaseURL: "https://api.mercadolibre.com",
			},
		},
		{
			name: "missing app ID",
			config: &MercadoLibreConfig{
				Secret:     "secret",
				APIBaseURL: "https://api.mercadolibre.com",
			},
			wantErr: true,
		},
		{
			name: "missing secret",
			config: &MercadoLibreConfig{
				AppID:      "12345",
				APIBaseURL: "https://api.mercadolibre.com",
			},
			wantErr: true,
		},
		{
			name: "missing base URL",
			config: &MercadoLibreConfig{
				AppID:  "12345",
				Secret: "secret",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				// A default timeout is filled in
				assert.True(t, tt.config.Timeout > 0)
			}
		})
	}
}

func TestMercadoLibreConfig_AuthorizationURL(t *testing.T) {
	config := &MercadoLibreConfig{
		AppID:       "12345",
		RedirectURI: "https://example.com/callback",
		AuthBaseURL: "https://auth.mercadolibre.com.ar",
	}

	authURL := config.AuthorizationURL("xyz")
	assert.Contains(t, authURL, "https://auth.mercadolibre.com.ar/authorization?")
	assert.Contains(t, authURL, "client_id=12345")
	assert.Contains(t, authURL, "response_type=code")
	assert.Contains(t, authURL, "state=xyz")
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func newTestAdapter(t *testing.T, handler http.Handler) (*MercadoLibreAdapter, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewMercadoLibreAdapter(&MercadoLibreConfig{
		AppID:       "12345",
		Secret:      "secret",
		RedirectURI: "https://example.com/callback",
		APIBaseURL:  server.URL,
		AuthBaseURL: server.URL,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	return adapter, server
}

func TestMercadoLibreAdapter_Name(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.NotFoundHandler())
	assert.Equal(t, "mercadolibre", adapter.Name())
}

func TestMercadoLibreAdapter_ExchangeAuthCode(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "TG-code", r.PostForm.Get("code"))
		assert.Equal(t, "12345", r.PostForm.Get("client_id"))

		json.NewEncoder(w).Encode(mlTokenResponse{
			AccessToken:  "APP_USR-access",
			RefreshToken: "TG-refresh",
			ExpiresIn:    21600,
			UserID:       987654,
		})
	}))

	tokens, err := adapter.ExchangeAuthCode(context.Background(), "TG-code")
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-access", tokens.AccessToken)
	assert.Equal(t, "TG-refresh", tokens.RefreshToken)
	assert.Equal(t, int64(21600), tokens.ExpiresIn)
	assert.Equal(t, "987654", tokens.ChannelUserID)
}

func TestMercadoLibreAdapter_RefreshToken_Rejected(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(mlErrorResponse{
			Error:   "invalid_grant",
			Message: "refresh token is invalid",
			Status:  400,
		})
	}))

	_, err := adapter.RefreshToken(context.Background(), "TG-dead")
	assert.ErrorIs(t, err, integration.ErrChannelAuthFailed)
}

func TestMercadoLibreAdapter_UpdateListingStock(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/items/MLA123", r.URL.Path)
		assert.Equal(t, "Bearer APP_USR-access", r.Header.Get("Authorization"))

		var payload mlStockUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, int64(7), payload.AvailableQuantity)

		json.NewEncoder(w).Encode(mlItem{ID: "MLA123", AvailableQuantity: 7})
	}))

	err := adapter.UpdateListingStock(context.Background(), "APP_USR-access", "MLA123", 7)
	assert.NoError(t, err)
}

func TestMercadoLibreAdapter_UpdateListingStock_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    mlErrorResponse
		wantErr error
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			wantErr: integration.ErrChannelUnavailable,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    mlErrorResponse{Message: "invalid token"},
			wantErr: integration.ErrChannelAuthFailed,
		},
		{
			name:    "unknown listing",
			status:  http.StatusNotFound,
			body:    mlErrorResponse{Message: "item not found"},
			wantErr: integration.ErrListingNotFound,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    mlErrorResponse{Message: "too many requests"},
			wantErr: integration.ErrChannelRecoverable,
		},
		{
			name:    "item locked",
			status:  http.StatusBadRequest,
			body:    mlErrorResponse{Message: "item.attributes locked by an active purchase"},
			wantErr: integration.ErrChannelRecoverable,
		},
		{
			name:    "validation failure",
			status:  http.StatusBadRequest,
			body:    mlErrorResponse{Message: "available_quantity is invalid"},
			wantErr: integration.ErrChannelRequestFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))

			err := adapter.UpdateListingStock(context.Background(), "token", "MLA123", 1)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMercadoLibreAdapter_UpdateListingStock_Timeout(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := adapter.UpdateListingStock(ctx, "token", "MLA123", 1)
	assert.ErrorIs(t, err, integration.ErrChannelUnavailable)
}

func TestMercadoLibreAdapter_FetchListing(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/MLA123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "MLA123",
			"title":              "USB Hub 4 Puertos",
			"category_id":        "MLA1055",
			"price":              15000.50,
			"currency_id":        "ARS",
			"available_quantity": 12,
			"status":             "active",
			"permalink":          "https://articulo.mercadolibre.com.ar/MLA123",
			"attributes": []map[string]string{
				{"id": "BRAND", "name": "Marca", "value_name": "Generico"},
			},
		})
	}))

	remote, err := adapter.FetchListing(context.Background(), "token", "MLA123")
	require.NoError(t, err)
	assert.Equal(t, "MLA123", remote.ExternalID)
	assert.Equal(t, "USB Hub 4 Puertos", remote.Title)
	assert.Equal(t, "MLA1055", remote.CategoryID)
	assert.Equal(t, "15000.5", remote.PriceArs.String())
	assert.Equal(t, "active", remote.Status)
	assert.Equal(t, int64(12), remote.AvailableQuantity)
	require.Len(t, remote.Attributes, 1)
	assert.Equal(t, "BRAND", remote.Attributes[0].ID)
	assert.Equal(t, "Generico", remote.Attributes[0].ValueName)
}

func TestMercadoLibreAdapter_FetchCategoryAttributes(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories/MLA1055/attributes", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"id":   "BRAND",
				"name": "Marca",
				"tags": map[string]bool{"required": true},
				"values": []map[string]string{
					{"id": "9344", "name": "Sony"},
				},
			},
			{
				"id":   "COLOR",
				"name": "Color",
				"tags": map[string]bool{},
			},
		})
	}))

	attrs, err := adapter.FetchCategoryAttributes(context.Background(), "token", "MLA1055")
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "BRAND", attrs[0].ID)
	assert.True(t, attrs[0].Required)
	require.Len(t, attrs[0].Values, 1)
	assert.Equal(t, "Sony", attrs[0].Values[0].Name)
	assert.False(t, attrs[1].Required)
}

func TestMercadoLibreAdapter_CreateListing(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "USB Hub 4 Puertos", payload["title"])
		assert.Equal(t, "ARS", payload["currency_id"])
		assert.Equal(t, float64(15000), payload["price"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(mlItem{
			ID:     "MLA555",
			Title:  "USB Hub 4 Puertos",
			Status: "active",
		})
	}))

	remote, err := adapter.CreateListing(context.Background(), "token", &integration.ListingDraft{
		Title:             "USB Hub 4 Puertos",
		CategoryID:        "MLA1055",
		PriceArs:          decimal.NewFromInt(15000),
		AvailableQuantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "MLA555", remote.ExternalID)
	assert.Equal(t, "active", remote.Status)
}

func TestMercadoLibreAdapter_UpdateListing(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/items/MLA123", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Nuevo Titulo", payload["title"])
		// A stock-less update must not touch available_quantity
		_, hasQuantity := payload["available_quantity"]
		assert.False(t, hasQuantity)

		json.NewEncoder(w).Encode(mlItem{ID: "MLA123"})
	}))

	err := adapter.UpdateListing(context.Background(), "token", "MLA123", &integration.ListingDraft{
		Title:    "Nuevo Titulo",
		PriceArs: decimal.NewFromInt(18000),
	})
	assert.NoError(t, err)
}
