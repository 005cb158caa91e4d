package integration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/importops/backend/internal/domain/shared"
)

// Access tokens are treated as expired this long before the channel
// would actually reject them, so a token never dies mid-request.
const expirySkew = 60 * time.Second

// ChannelCredential stores the OAuth tokens for one channel account.
// There is at most one credential per channel; connecting again
// replaces the stored tokens.
type ChannelCredential struct {
	shared.BaseEntity
	ChannelName   string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	ChannelUserID string    `gorm:"type:varchar(100);not null"`
	AccessToken   string    `gorm:"type:varchar(500);not null"`
	RefreshToken  string    `gorm:"type:varchar(500);not null"`
	ExpiresAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChannelCredential) TableName() string {
	return "channel_credentials"
}

// NewChannelCredential creates a credential from a fresh token pair
func NewChannelCredential(channelName string, tokens *TokenPair) (*ChannelCredential, error) {
	if channelName == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel name cannot be empty")
	}
	if tokens == nil || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, shared.NewDomainError("INVALID_TOKENS", "Token pair is incomplete")
	}

	cred := &ChannelCredential{
		BaseEntity:  shared.NewBaseEntity(),
		ChannelName: channelName,
	}
	cred.Apply(tokens)
	return cred, nil
}

// Apply replaces the stored tokens with a fresh pair
func (c *ChannelCredential) Apply(tokens *TokenPair) {
	now := time.Now()
	c.AccessToken = tokens.AccessToken
	c.RefreshToken = tokens.RefreshToken
	c.ChannelUserID = tokens.ChannelUserID
	c.ExpiresAt = now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	c.UpdatedAt = now
}

// IsExpired returns true once the token is within the safety skew of
// its expiry time.
func (c *ChannelCredential) IsExpired() bool {
	return !time.Now().Before(c.ExpiresAt.Add(-expirySkew))
}

// IdentityKey returns the channel account identity this credential
// represents, used to detect account switches on reconnect.
func (c *ChannelCredential) IdentityKey() string {
	return c.ChannelName + ":" + c.ChannelUserID
}

// CredentialRepository defines the interface for credential persistence
type CredentialRepository interface {
	// FindByChannel finds the stored credential for a channel.
	// Returns shared.ErrNotConnected if none exists.
	FindByChannel(ctx context.Context, channelName string) (*ChannelCredential, error)

	// FindByID finds a credential by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ChannelCredential, error)

	// Save creates or replaces the credential for a channel
	Save(ctx context.Context, cred *ChannelCredential) error

	// Delete removes the credential for a channel
	Delete(ctx context.Context, channelName string) error
}
