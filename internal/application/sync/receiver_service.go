package sync

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"

	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

// ReceiverService is the inbound half of the sync engine: it resolves
// the delivering tenant from the webhook secret, parses the raw payload
// into a normalized event and hands it to the upsert engine.
//
// The CRM does not carry a tenant identifier in the webhook path; the
// per-tenant secret is the only claim of origin, so it doubles as the
// tenant lookup key.
type ReceiverService struct {
	configs domainsync.TenantSyncConfigRepository
	upsert  *UpsertService
	logger  *zap.Logger
}

// NewReceiverService creates the webhook receiver
func NewReceiverService(
	configs domainsync.TenantSyncConfigRepository,
	upsert *UpsertService,
	logger *zap.Logger,
) *ReceiverService {
	return &ReceiverService{
		configs: configs,
		upsert:  upsert,
		logger:  logger.Named("receiver"),
	}
}

// HandleProductEvent authenticates and applies one product webhook
// delivery
func (s *ReceiverService) HandleProductEvent(ctx context.Context, secret string, raw []byte) error {
	config, err := s.authenticate(ctx, secret)
	if err != nil {
		return err
	}

	event, err := domainsync.ParseProductEvent(config.TenantID, raw)
	if err != nil {
		return err
	}
	return s.upsert.Apply(ctx, event)
}

// HandleOrderEvent authenticates and applies one order-status webhook
// delivery
func (s *ReceiverService) HandleOrderEvent(ctx context.Context, secret string, raw []byte) error {
	config, err := s.authenticate(ctx, secret)
	if err != nil {
		return err
	}

	event, err := domainsync.ParseOrderStatusEvent(config.TenantID, raw)
	if err != nil {
		return err
	}
	return s.upsert.Apply(ctx, event)
}

// authenticate resolves the tenant behind a webhook secret. An unknown
// or empty secret and a disabled tenant are indistinguishable to the
// caller except for the disabled case being its own error.
func (s *ReceiverService) authenticate(ctx context.Context, secret string) (*domainsync.TenantSyncConfig, error) {
	if secret == "" {
		return nil, domainsync.ErrInvalidSecret
	}

	config, err := s.configs.FindBySecret(ctx, secret)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, domainsync.ErrInvalidSecret
	}
	if err != nil {
		return nil, err
	}

	// The lookup already matched; the explicit compare keeps the
	// accept path constant-time in the secret contents.
	if subtle.ConstantTimeCompare([]byte(config.WebhookSecret), []byte(secret)) != 1 {
		return nil, domainsync.ErrInvalidSecret
	}
	if !config.Enabled {
		return nil, domainsync.ErrTenantNotBacked
	}
	return config, nil
}
