package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/importops/backend/internal/application/integration"
)

// ChannelHandler handles sales channel credential API endpoints
type ChannelHandler struct {
	BaseHandler
	credentialService *integrationapp.CredentialService
	authorizationURL  func(state string) string
}

// NewChannelHandler creates a new ChannelHandler. authorizationURL builds
// the channel consent page URL for a given state parameter.
func NewChannelHandler(
	credentialService *integrationapp.CredentialService,
	authorizationURL func(state string) string,
) *ChannelHandler {
	return &ChannelHandler{
		credentialService: credentialService,
		authorizationURL:  authorizationURL,
	}
}

// connectRequest carries the authorization code obtained from the consent page
type connectRequest struct {
	Code string `json:"code" binding:"required"`
}

// AuthURL returns the channel consent page URL the operator must visit
func (h *ChannelHandler) AuthURL(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		state = uuid.New().String()
	}

	h.Success(c, gin.H{
		"authorization_url": h.authorizationURL(state),
		"state":             state,
	})
}

// Connect exchanges an authorization code for tokens and stores them
func (h *ChannelHandler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	status, err := h.credentialService.Connect(c.Request.Context(), req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Callback is the OAuth redirect target. The channel appends the
// authorization code as a query parameter.
func (h *ChannelHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		h.BadRequest(c, "Missing authorization code")
		return
	}

	status, err := h.credentialService.Connect(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Status reports whether the channel is connected and when tokens expire
func (h *ChannelHandler) Status(c *gin.Context) {
	status, err := h.credentialService.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Disconnect removes the stored credential
func (h *ChannelHandler) Disconnect(c *gin.Context) {
	if err := h.credentialService.Disconnect(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
