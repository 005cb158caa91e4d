package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/importops/backend/internal/domain/integration"
	"github.com/importops/backend/internal/domain/shared"
)

// GormCredentialRepository implements integration.CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindByChannel finds the stored credential for a channel
func (r *GormCredentialRepository) FindByChannel(ctx context.Context, channelName string) (*integration.ChannelCredential, error) {
	var cred integration.ChannelCredential
	if err := r.db.WithContext(ctx).
		First(&cred, "channel_name = ?", channelName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotConnected
		}
		return nil, err
	}
	return &cred, nil
}

// FindByID finds a credential by its ID
func (r *GormCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ChannelCredential, error) {
	var cred integration.ChannelCredential
	if err := r.db.WithContext(ctx).First(&cred, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// Save creates or replaces the credential for a channel
func (r *GormCredentialRepository) Save(ctx context.Context, cred *integration.ChannelCredential) error {
	return r.db.WithContext(ctx).Save(cred).Error
}

// Delete removes the credential for a channel
func (r *GormCredentialRepository) Delete(ctx context.Context, channelName string) error {
	result := r.db.WithContext(ctx).
		Delete(&integration.ChannelCredential{}, "channel_name = ?", channelName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotConnected
	}
	return nil
}

// Ensure GormCredentialRepository implements integration.CredentialRepository
var _ integration.CredentialRepository = (*GormCredentialRepository)(nil)
