package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

// GormSyncConfigRepository implements TenantSyncConfigRepository using GORM
type GormSyncConfigRepository struct {
	db *gorm.DB
}

// NewGormSyncConfigRepository creates a new GormSyncConfigRepository
func NewGormSyncConfigRepository(db *gorm.DB) *GormSyncConfigRepository {
	return &GormSyncConfigRepository{db: db}
}

// FindByTenant finds the sync config for a tenant
func (r *GormSyncConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*domainsync.TenantSyncConfig, error) {
	var config domainsync.TenantSyncConfig
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// FindBySecret finds the sync config whose webhook secret matches
func (r *GormSyncConfigRepository) FindBySecret(ctx context.Context, secret string) (*domainsync.TenantSyncConfig, error) {
	if secret == "" {
		return nil, shared.ErrNotFound
	}
	var config domainsync.TenantSyncConfig
	if err := r.db.WithContext(ctx).
		Where("webhook_secret = ?", secret).
		First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// Save creates or updates a sync config
func (r *GormSyncConfigRepository) Save(ctx context.Context, config *domainsync.TenantSyncConfig) error {
	return r.db.WithContext(ctx).Save(config).Error
}

// Ensure GormSyncConfigRepository implements TenantSyncConfigRepository
var _ domainsync.TenantSyncConfigRepository = (*GormSyncConfigRepository)(nil)
