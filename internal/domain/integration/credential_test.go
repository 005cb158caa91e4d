package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshTokens() *TokenPair {
	return &TokenPair{
		AccessToken:   "APP_USR-access",
		RefreshToken:  "TG-refresh",
		ExpiresIn:     21600,
		ChannelUserID: "123456",
	}
}

func TestNewChannelCredential(t *testing.T) {
	t.Run("valid credential", func(t *testing.T) {
		cred, err := NewChannelCredential("mercadolibre", freshTokens())
		require.NoError(t, err)
		assert.Equal(t, "APP_USR-access", cred.AccessToken)
		assert.Equal(t, "mercadolibre:123456", cred.IdentityKey())
		assert.False(t, cred.IsExpired())
	})

	t.Run("empty channel name", func(t *testing.T) {
		_, err := NewChannelCredential("", freshTokens())
		assert.Error(t, err)
	})

	t.Run("incomplete tokens", func(t *testing.T) {
		_, err := NewChannelCredential("mercadolibre", &TokenPair{AccessToken: "x"})
		assert.Error(t, err)
	})
}

func TestChannelCredential_IsExpired(t *testing.T) {
	cred, err := NewChannelCredential("mercadolibre", freshTokens())
	require.NoError(t, err)

	t.Run("fresh token is valid", func(t *testing.T) {
		assert.False(t, cred.IsExpired())
	})

	t.Run("expired within the skew window", func(t *testing.T) {
		cred.ExpiresAt = time.Now().Add(30 * time.Second)
		assert.True(t, cred.IsExpired())
	})

	t.Run("valid just outside the skew window", func(t *testing.T) {
		cred.ExpiresAt = time.Now().Add(90 * time.Second)
		assert.False(t, cred.IsExpired())
	})

	t.Run("expired in the past", func(t *testing.T) {
		cred.ExpiresAt = time.Now().Add(-time.Hour)
		assert.True(t, cred.IsExpired())
	})
}

func TestChannelCredential_Apply(t *testing.T) {
	cred, err := NewChannelCredential("mercadolibre", freshTokens())
	require.NoError(t, err)
	originalExpiry := cred.ExpiresAt

	cred.Apply(&TokenPair{
		AccessToken:   "APP_USR-rotated",
		RefreshToken:  "TG-rotated",
		ExpiresIn:     21600,
		ChannelUserID: "123456",
	})

	assert.Equal(t, "APP_USR-rotated", cred.AccessToken)
	assert.Equal(t, "TG-rotated", cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.After(originalExpiry) || cred.ExpiresAt.Equal(originalExpiry))
}
