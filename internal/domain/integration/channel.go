package integration

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// SalesChannel Errors
// ---------------------------------------------------------------------------

var (
	// ErrChannelRecoverable marks a failure the caller may retry later
	// without operator intervention (listing locked, rate limited).
	ErrChannelRecoverable = errors.New("integration: channel temporarily rejected the request")

	// ErrChannelRequestFailed marks a hard failure: the channel rejected
	// the request and retrying without changes will not help.
	ErrChannelRequestFailed = errors.New("integration: channel request failed")

	// ErrChannelUnavailable marks a transport-level failure: timeout,
	// connection refused, or a 5xx response.
	ErrChannelUnavailable = errors.New("integration: channel unavailable")

	// ErrChannelAuthFailed marks a rejected or expired credential
	ErrChannelAuthFailed = errors.New("integration: channel authentication failed")

	// ErrListingNotFound is returned when the channel does not know the listing
	ErrListingNotFound = errors.New("integration: listing not found on channel")
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// TokenPair is the result of an OAuth code or refresh exchange
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64
	// ChannelUserID is the channel-side account the tokens belong to
	ChannelUserID string
}

// RemoteListing is a listing as the channel reports it
type RemoteListing struct {
	ExternalID string
	Title      string
	CategoryID string
	PriceArs   decimal.Decimal
	// Status is the channel's own status string, e.g. "active", "paused"
	Status            string
	AvailableQuantity int64
	Attributes        []RemoteAttribute
	PermalinkURL      string
}

// RemoteAttribute is one channel attribute on a remote listing
type RemoteAttribute struct {
	ID        string
	Name      string
	ValueID   string
	ValueName string
}

// CategoryAttribute describes an attribute the channel accepts for a category
type CategoryAttribute struct {
	ID       string
	Name     string
	Required bool
	Values   []RemoteAttributeValue
}

// RemoteAttributeValue is one allowed value for a category attribute
type RemoteAttributeValue struct {
	ID   string
	Name string
}

// ListingDraft carries the fields for creating or updating a listing on the channel
type ListingDraft struct {
	Title             string
	CategoryID        string
	PriceArs          decimal.Decimal
	AvailableQuantity int64
	Attributes        []RemoteAttribute
}

// ---------------------------------------------------------------------------
// SalesChannel Port Interface
// ---------------------------------------------------------------------------

// SalesChannel is the port for an external marketplace. It is defined
// here and implemented by infrastructure adapters; every method takes
// an access token so credential lifecycle stays with the caller.
type SalesChannel interface {
	// Name returns the channel identifier, e.g. "mercadolibre"
	Name() string

	// ExchangeAuthCode trades an OAuth authorization code for tokens
	ExchangeAuthCode(ctx context.Context, code string) (*TokenPair, error)

	// RefreshToken trades a refresh token for a fresh token pair
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	// UpdateListingStock pushes an absolute available quantity to a listing
	UpdateListingStock(ctx context.Context, accessToken, externalID string, quantity int64) error

	// FetchListing retrieves a listing from the channel
	FetchListing(ctx context.Context, accessToken, externalID string) (*RemoteListing, error)

	// FetchCategoryAttributes retrieves the attribute schema for a category
	FetchCategoryAttributes(ctx context.Context, accessToken, categoryID string) ([]CategoryAttribute, error)

	// CreateListing publishes a new listing and returns its channel-side ID
	CreateListing(ctx context.Context, accessToken string, draft *ListingDraft) (*RemoteListing, error)

	// UpdateListing updates title, price, and attributes of a listing
	UpdateListing(ctx context.Context, accessToken, externalID string, draft *ListingDraft) error
}
