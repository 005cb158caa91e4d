package channel

import (
	"errors"
	"net/url"
	"time"
)

// MercadoLibreConfig holds the application credentials and endpoints for
// the MercadoLibre API.
type MercadoLibreConfig struct {
	// AppID is the MercadoLibre application ID
	AppID string
	// Secret is the MercadoLibre application secret
	Secret string
	// RedirectURI is the OAuth callback registered for the application
	RedirectURI string
	// APIBaseURL is the REST API base, e.g. https://api.mercadolibre.com
	APIBaseURL string
	// AuthBaseURL is the user authorization base, e.g. https://auth.mercadolibre.com.ar
	AuthBaseURL string
	// Timeout bounds each HTTP request to the channel
	Timeout time.Duration
}

// Validate checks that the configuration is usable
func (c *MercadoLibreConfig) Validate() error {
	if c.AppID == "" {
		return errors.New("mercadolibre: app ID is required")
	}
	if c.Secret == "" {
		return errors.New("mercadolibre: secret is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("mercadolibre: API base URL is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}

// AuthorizationURL builds the URL the operator visits to grant access.
// The state value is echoed back on the callback for CSRF protection.
func (c *MercadoLibreConfig) AuthorizationURL(state string) string {
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", c.AppID)
	values.Set("redirect_uri", c.RedirectURI)
	if state != "" {
		values.Set("state", state)
	}
	return c.AuthBaseURL + "/authorization?" + values.Encode()
}
