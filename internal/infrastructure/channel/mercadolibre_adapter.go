package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/importops/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the channel API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// channelName is the identifier this adapter registers under
const channelName = "mercadolibre"

// currencyArs is the only currency listings are published in
const currencyArs = "ARS"

// MercadoLibreAdapter implements the integration.SalesChannel port
// against the MercadoLibre REST API.
type MercadoLibreAdapter struct {
	config     *MercadoLibreConfig
	httpClient *http.Client
}

// NewMercadoLibreAdapter creates a new adapter with the given configuration
func NewMercadoLibreAdapter(config *MercadoLibreConfig) (*MercadoLibreAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MercadoLibreAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Name returns the channel identifier
func (a *MercadoLibreAdapter) Name() string {
	return channelName
}

// ---------------------------------------------------------------------------
// OAuth Operations
// ---------------------------------------------------------------------------

// ExchangeAuthCode trades an OAuth authorization code for tokens
func (a *MercadoLibreAdapter) ExchangeAuthCode(ctx context.Context, code string) (*integration.TokenPair, error) {
	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("client_id", a.config.AppID)
	values.Set("client_secret", a.config.Secret)
	values.Set("code", code)
	values.Set("redirect_uri", a.config.RedirectURI)

	return a.requestToken(ctx, values)
}

// RefreshToken trades a refresh token for a fresh token pair
func (a *MercadoLibreAdapter) RefreshToken(ctx context.Context, refreshToken string) (*integration.TokenPair, error) {
	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("client_id", a.config.AppID)
	values.Set("client_secret", a.config.Secret)
	values.Set("refresh_token", refreshToken)

	return a.requestToken(ctx, values)
}

// requestToken posts to the OAuth token endpoint and parses the result.
// MercadoLibre reports rejected grants as 400 invalid_grant; those map
// to the auth sentinel so callers drop the dead credential.
func (a *MercadoLibreAdapter) requestToken(ctx context.Context, values url.Values) (*integration.TokenPair, error) {
	endpoint := a.config.APIBaseURL + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrChannelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr mlErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: HTTP %d", integration.ErrChannelUnavailable, resp.StatusCode)
		}
		if apiErr.Error == "invalid_grant" || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s", integration.ErrChannelAuthFailed, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d - %s", integration.ErrChannelRequestFailed, resp.StatusCode, apiErr.Message)
	}

	var token mlTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", integration.ErrChannelRequestFailed)
	}

	return &integration.TokenPair{
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
		ExpiresIn:     token.ExpiresIn,
		ChannelUserID: strconv.FormatInt(token.UserID, 10),
	}, nil
}

// ---------------------------------------------------------------------------
// Listing Operations
// ---------------------------------------------------------------------------

// UpdateListingStock pushes an absolute available quantity to a listing
func (a *MercadoLibreAdapter) UpdateListingStock(ctx context.Context, accessToken, externalID string, quantity int64) error {
	payload := mlStockUpdate{AvailableQuantity: quantity}
	_, err := a.doRequest(ctx, http.MethodPut, "/items/"+url.PathEscape(externalID), accessToken, payload)
	return err
}

// FetchListing retrieves a listing from the channel
func (a *MercadoLibreAdapter) FetchListing(ctx context.Context, accessToken, externalID string) (*integration.RemoteListing, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/items/"+url.PathEscape(externalID), accessToken, nil)
	if err != nil {
		return nil, err
	}

	var item mlItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to parse item response: %w", err)
	}
	return convertItem(&item), nil
}

// FetchCategoryAttributes retrieves the attribute schema for a category
func (a *MercadoLibreAdapter) FetchCategoryAttributes(ctx context.Context, accessToken, categoryID string) ([]integration.CategoryAttribute, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/categories/"+url.PathEscape(categoryID)+"/attributes", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var schema []mlCategoryAttribute
	if err := json.Unmarshal(body, &schema); err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to parse attribute schema: %w", err)
	}

	attrs := make([]integration.CategoryAttribute, 0, len(schema))
	for _, entry := range schema {
		attr := integration.CategoryAttribute{
			ID:       entry.ID,
			Name:     entry.Name,
			Required: entry.Tags.Required,
			Values:   make([]integration.RemoteAttributeValue, 0, len(entry.Values)),
		}
		for _, value := range entry.Values {
			attr.Values = append(attr.Values, integration.RemoteAttributeValue{
				ID:   value.ID,
				Name: value.Name,
			})
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// CreateListing publishes a new listing and returns it as the channel created it
func (a *MercadoLibreAdapter) CreateListing(ctx context.Context, accessToken string, draft *integration.ListingDraft) (*integration.RemoteListing, error) {
	quantity := draft.AvailableQuantity
	payload := mlItemDraft{
		Title:             draft.Title,
		CategoryID:        draft.CategoryID,
		Price:             draft.PriceArs.InexactFloat64(),
		CurrencyID:        currencyArs,
		AvailableQuantity: &quantity,
		Attributes:        convertDraftAttributes(draft.Attributes),
	}

	body, err := a.doRequest(ctx, http.MethodPost, "/items", accessToken, payload)
	if err != nil {
		return nil, err
	}

	var item mlItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to parse item response: %w", err)
	}
	return convertItem(&item), nil
}

// UpdateListing updates title, price, and attributes of a listing
func (a *MercadoLibreAdapter) UpdateListing(ctx context.Context, accessToken, externalID string, draft *integration.ListingDraft) error {
	payload := mlItemDraft{
		Title:      draft.Title,
		Price:      draft.PriceArs.InexactFloat64(),
		Attributes: convertDraftAttributes(draft.Attributes),
	}

	_, err := a.doRequest(ctx, http.MethodPut, "/items/"+url.PathEscape(externalID), accessToken, payload)
	return err
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an authenticated JSON request against the channel
// API and maps failures onto the integration sentinels.
func (a *MercadoLibreAdapter) doRequest(ctx context.Context, method, path, accessToken string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mercadolibre: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrChannelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mercadolibre: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, a.mapError(resp.StatusCode, body)
	}
	return body, nil
}

// mapError translates an API error response into an integration sentinel
func (a *MercadoLibreAdapter) mapError(status int, body []byte) error {
	var apiErr mlErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d", integration.ErrChannelUnavailable, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", integration.ErrChannelAuthFailed, apiErr.Message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", integration.ErrListingNotFound, apiErr.Message)
	case status == http.StatusConflict || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d - %s", integration.ErrChannelRecoverable, status, apiErr.Message)
	case strings.Contains(strings.ToLower(apiErr.Message), "locked"):
		// Items under moderation or an active purchase reject updates
		// with a 400 and a "locked" message; those clear on their own.
		return fmt.Errorf("%w: %s", integration.ErrChannelRecoverable, apiErr.Message)
	default:
		return fmt.Errorf("%w: HTTP %d - %s", integration.ErrChannelRequestFailed, status, apiErr.Message)
	}
}

// convertItem converts a wire item to the domain representation
func convertItem(item *mlItem) *integration.RemoteListing {
	listing := &integration.RemoteListing{
		ExternalID:        item.ID,
		Title:             item.Title,
		CategoryID:        item.CategoryID,
		PriceArs:          item.Price,
		Status:            item.Status,
		AvailableQuantity: item.AvailableQuantity,
		Attributes:        make([]integration.RemoteAttribute, 0, len(item.Attributes)),
		PermalinkURL:      item.Permalink,
	}
	for _, attr := range item.Attributes {
		listing.Attributes = append(listing.Attributes, integration.RemoteAttribute{
			ID:        attr.ID,
			Name:      attr.Name,
			ValueID:   attr.ValueID,
			ValueName: attr.ValueName,
		})
	}
	return listing
}

// convertDraftAttributes converts domain attributes to the wire format
func convertDraftAttributes(attrs []integration.RemoteAttribute) []mlAttribute {
	if len(attrs) == 0 {
		return nil
	}
	converted := make([]mlAttribute, 0, len(attrs))
	for _, attr := range attrs {
		converted = append(converted, mlAttribute{
			ID:        attr.ID,
			ValueID:   attr.ValueID,
			ValueName: attr.ValueName,
		})
	}
	return converted
}

// Ensure MercadoLibreAdapter implements the SalesChannel port
var _ integration.SalesChannel = (*MercadoLibreAdapter)(nil)
