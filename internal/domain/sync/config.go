package sync

import (
	"context"

	"github.com/bloomshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantSyncConfig holds the per-tenant CRM integration settings.
// Sync logic never acts on a tenant without an explicit, loaded config;
// absence of a config is a no-op, not an error.
type TenantSyncConfig struct {
	shared.BaseEntity
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Enabled       bool      `gorm:"not null;default:false"`
	WebhookSecret string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	CRMBaseURL    string    `gorm:"type:varchar(500);not null"`
	CRMToken      string    `gorm:"type:varchar(256);not null"`
}

// TableName returns the table name for GORM
func (TenantSyncConfig) TableName() string {
	return "tenant_sync_configs"
}

// NewTenantSyncConfig creates a sync config for a CRM-backed tenant
func NewTenantSyncConfig(tenantID uuid.UUID, webhookSecret, crmBaseURL, crmToken string) (*TenantSyncConfig, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if webhookSecret == "" {
		return nil, shared.NewDomainError("INVALID_SECRET", "Webhook secret cannot be empty")
	}

	return &TenantSyncConfig{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		Enabled:       true,
		WebhookSecret: webhookSecret,
		CRMBaseURL:    crmBaseURL,
		CRMToken:      crmToken,
	}, nil
}

// CanPushToCRM returns true when outbound pushes are allowed for this
// tenant
func (c *TenantSyncConfig) CanPushToCRM() bool {
	return c.Enabled && c.CRMBaseURL != ""
}

// TenantSyncConfigRepository defines the persistence interface for
// tenant sync configs
type TenantSyncConfigRepository interface {
	// FindByTenant finds the config for a tenant.
	// Returns shared.ErrNotFound for tenants that are not CRM-backed.
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*TenantSyncConfig, error)

	// FindBySecret finds the config whose webhook secret matches.
	// Returns shared.ErrNotFound when no tenant matches.
	FindBySecret(ctx context.Context, secret string) (*TenantSyncConfig, error)

	// Save creates or updates a config
	Save(ctx context.Context, config *TenantSyncConfig) error
}
