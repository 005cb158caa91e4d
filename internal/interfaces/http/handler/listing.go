package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	listingapp "github.com/importops/backend/internal/application/listing"
)

// ListingHandler handles channel listing and stock sync API endpoints
type ListingHandler struct {
	BaseHandler
	listingService *listingapp.ListingService
	syncService    *listingapp.SyncService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(
	listingService *listingapp.ListingService,
	syncService *listingapp.SyncService,
) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		syncService:    syncService,
	}
}

// setEnabledRequest toggles a boolean flag on a listing or mapping
type setEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Create registers an existing channel publication locally
func (h *ListingHandler) Create(c *gin.Context) {
	var req listingapp.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.listingService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, l)
}

// GetByID retrieves a listing by ID
func (h *ListingHandler) GetByID(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	l, err := h.listingService.GetByID(c.Request.Context(), listingID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, l)
}

// List retrieves listings with filtering and pagination
func (h *ListingHandler) List(c *gin.Context) {
	var filter listingapp.ListingListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	listings, total, err := h.listingService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, listings, total, page, pageSize)
}

// MapProduct attaches a product to a listing with a units-per-sale ratio
func (h *ListingHandler) MapProduct(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	var req listingapp.MapProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.listingService.MapProduct(c.Request.Context(), listingID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, l)
}

// ConnectMappings replaces the listing's full mapping set and pushes
// the re-derived stock. The body reports the push outcome separately
// from the mapping save, which is never rolled back by a failed push.
func (h *ListingHandler) ConnectMappings(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	var req listingapp.ConnectMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.syncService.ConnectMappings(c.Request.Context(), listingID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UnmapProduct detaches a product from a listing
func (h *ListingHandler) UnmapProduct(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	l, err := h.listingService.UnmapProduct(c.Request.Context(), listingID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, l)
}

// SetMappingEnabled toggles whether one mapping contributes to the
// published stock figure
func (h *ListingHandler) SetMappingEnabled(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.listingService.SetMappingEnabled(c.Request.Context(), listingID, productID, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, l)
}

// SetSyncEnabled toggles automatic stock synchronization for a listing
func (h *ListingHandler) SetSyncEnabled(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.listingService.SetSyncEnabled(c.Request.Context(), listingID, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, l)
}

// Sync pushes the computed stock figure for one listing to the channel
func (h *ListingHandler) Sync(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	l, err := h.syncService.Sync(c.Request.Context(), listingID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, l)
}

// SyncAll pushes stock for every syncable listing and returns a run report
func (h *ListingHandler) SyncAll(c *gin.Context) {
	report, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RetryFailed re-syncs only the listings whose last sync recorded an error
func (h *ListingHandler) RetryFailed(c *gin.Context) {
	report, err := h.syncService.RetryFailed(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// importListingRequest identifies a channel publication to pull in
type importListingRequest struct {
	ExternalID string `json:"external_id" binding:"required,min=1,max=50"`
}

// Import pulls a publication from the channel and registers it locally
func (h *ListingHandler) Import(c *gin.Context) {
	var req importListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.syncService.ImportListing(c.Request.Context(), req.ExternalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, l)
}

// Publish creates a brand-new publication on the channel
func (h *ListingHandler) Publish(c *gin.Context) {
	var req listingapp.PublishListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.syncService.Publish(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, l)
}

// PushDetails pushes title, price, and attributes to the channel
func (h *ListingHandler) PushDetails(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	if err := h.syncService.PushDetails(c.Request.Context(), listingID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete removes a listing and its mappings locally. The channel
// publication itself is untouched.
func (h *ListingHandler) Delete(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), listingID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
