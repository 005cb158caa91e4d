package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/shared"
	"github.com/importops/backend/internal/infrastructure/telemetry"
)

const refreshLockTTL = 30 * time.Second

// CredentialService manages the OAuth credential lifecycle for a sales
// channel: the initial code exchange, transparent refresh, and
// disconnection. Refreshes are serialized through a distributed lock
// because channel refresh tokens are single-use.
type CredentialService struct {
	credRepo        integration.CredentialRepository
	channel         integration.SalesChannel
	locker          Locker
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(credRepo integration.CredentialRepository, channel integration.SalesChannel, locker Locker, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{
		credRepo: credRepo,
		channel:  channel,
		locker:   locker,
		logger:   logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *CredentialService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Connect exchanges an OAuth authorization code and stores the
// resulting tokens. Reconnecting replaces any stored credential.
func (s *CredentialService) Connect(ctx context.Context, code string) (*CredentialStatusResponse, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Authorization code cannot be empty")
	}

	tokens, err := s.channel.ExchangeAuthCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange auth code: %w", err)
	}

	existing, err := s.credRepo.FindByChannel(ctx, s.channel.Name())
	switch {
	case err == nil:
		if existing.ChannelUserID != tokens.ChannelUserID {
			s.logger.Warn("channel account changed on reconnect",
				zap.String("channel", s.channel.Name()),
				zap.String("previous_user", existing.ChannelUserID),
				zap.String("new_user", tokens.ChannelUserID),
			)
		}
		existing.Apply(tokens)
		if err := s.credRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return toCredentialStatus(existing), nil
	case errors.Is(err, shared.ErrNotConnected):
		cred, err := integration.NewChannelCredential(s.channel.Name(), tokens)
		if err != nil {
			return nil, err
		}
		if err := s.credRepo.Save(ctx, cred); err != nil {
			return nil, err
		}
		s.logger.Info("channel connected",
			zap.String("channel", s.channel.Name()),
			zap.String("channel_user", tokens.ChannelUserID),
		)
		return toCredentialStatus(cred), nil
	default:
		return nil, err
	}
}

// GetValidToken returns an access token that is safe to use, refreshing
// it first when it is at or past the expiry skew.
func (s *CredentialService) GetValidToken(ctx context.Context) (string, error) {
	cred, err := s.credRepo.FindByChannel(ctx, s.channel.Name())
	if err != nil {
		return "", err
	}
	if !cred.IsExpired() {
		return cred.AccessToken, nil
	}
	return s.refresh(ctx)
}

// refresh exchanges the refresh token under a distributed lock. After
// obtaining the lock the credential is re-read: whoever held the lock
// before us probably already rotated the tokens.
func (s *CredentialService) refresh(ctx context.Context) (string, error) {
	release, err := s.locker.Obtain(ctx, "credential:refresh:"+s.channel.Name(), refreshLockTTL)
	if err != nil {
		return "", fmt.Errorf("obtain refresh lock: %w", err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Warn("failed to release refresh lock", zap.Error(err))
		}
	}()

	cred, err := s.credRepo.FindByChannel(ctx, s.channel.Name())
	if err != nil {
		return "", err
	}
	if !cred.IsExpired() {
		return cred.AccessToken, nil
	}

	tokens, err := s.channel.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		s.recordRefresh(ctx, false)
		// A rejected refresh token is dead; drop the credential so the
		// operator reconnects instead of every request failing the
		// same way. Transport problems keep the credential.
		if errors.Is(err, integration.ErrChannelAuthFailed) || errors.Is(err, integration.ErrChannelRequestFailed) {
			if delErr := s.credRepo.Delete(ctx, s.channel.Name()); delErr != nil {
				s.logger.Error("failed to delete dead credential", zap.Error(delErr))
			}
			s.logger.Warn("channel credential invalidated",
				zap.String("channel", s.channel.Name()),
				zap.Error(err),
			)
			return "", shared.ErrNotConnected
		}
		return "", fmt.Errorf("refresh token: %w", err)
	}

	cred.Apply(tokens)
	if err := s.credRepo.Save(ctx, cred); err != nil {
		return "", err
	}

	s.recordRefresh(ctx, true)
	s.logger.Info("channel token refreshed",
		zap.String("channel", s.channel.Name()),
		zap.Time("expires_at", cred.ExpiresAt),
	)
	return cred.AccessToken, nil
}

// Disconnect removes the stored credential
func (s *CredentialService) Disconnect(ctx context.Context) error {
	if err := s.credRepo.Delete(ctx, s.channel.Name()); err != nil {
		return err
	}
	s.logger.Info("channel disconnected", zap.String("channel", s.channel.Name()))
	return nil
}

// Status reports whether the channel is connected and for which account
func (s *CredentialService) Status(ctx context.Context) (*CredentialStatusResponse, error) {
	cred, err := s.credRepo.FindByChannel(ctx, s.channel.Name())
	if errors.Is(err, shared.ErrNotConnected) {
		return &CredentialStatusResponse{Channel: s.channel.Name(), Connected: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return toCredentialStatus(cred), nil
}

func (s *CredentialService) recordRefresh(ctx context.Context, success bool) {
	if s.businessMetrics == nil {
		return
	}
	s.businessMetrics.RecordCredentialRefresh(ctx, s.channel.Name(), success)
}

// CredentialStatusResponse reports the connection state of a channel
type CredentialStatusResponse struct {
	Channel       string     `json:"channel"`
	Connected     bool       `json:"connected"`
	ChannelUserID string     `json:"channel_user_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func toCredentialStatus(cred *integration.ChannelCredential) *CredentialStatusResponse {
	expiresAt := cred.ExpiresAt
	return &CredentialStatusResponse{
		Channel:       cred.ChannelName,
		Connected:     true,
		ChannelUserID: cred.ChannelUserID,
		ExpiresAt:     &expiresAt,
	}
}
