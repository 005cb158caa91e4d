package channel

import "github.com/shopspring/decimal"

// mlTokenResponse is the OAuth token endpoint response
type mlTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// mlErrorResponse is the error envelope MercadoLibre returns on 4xx/5xx
type mlErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// mlAttribute is one attribute on an item
type mlAttribute struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	ValueID   string `json:"value_id,omitempty"`
	ValueName string `json:"value_name,omitempty"`
}

// mlItem is an item as the /items endpoint reports it
type mlItem struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	CategoryID        string          `json:"category_id"`
	Price             decimal.Decimal `json:"price"`
	CurrencyID        string          `json:"currency_id"`
	AvailableQuantity int64           `json:"available_quantity"`
	Status            string          `json:"status"`
	Permalink         string          `json:"permalink"`
	Attributes        []mlAttribute   `json:"attributes"`
}

// mlItemDraft is the request body for creating or updating an item
type mlItemDraft struct {
	Title             string        `json:"title,omitempty"`
	CategoryID        string        `json:"category_id,omitempty"`
	Price             float64       `json:"price,omitempty"`
	CurrencyID        string        `json:"currency_id,omitempty"`
	AvailableQuantity *int64        `json:"available_quantity,omitempty"`
	Attributes        []mlAttribute `json:"attributes,omitempty"`
}

// mlStockUpdate is the request body for a stock-only item update
type mlStockUpdate struct {
	AvailableQuantity int64 `json:"available_quantity"`
}

// mlCategoryAttribute is one entry of the category attribute schema
type mlCategoryAttribute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tags struct {
		Required bool `json:"required"`
	} `json:"tags"`
	Values []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"values"`
}
