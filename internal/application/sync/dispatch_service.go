package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomshop/backend/internal/domain/catalog"
	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

// DispatchService pushes locally authored product changes out to the
// CRM. Dispatch never gates the local mutation: the local write has
// already committed when dispatch runs, pushes are single-attempt and
// failures are logged, not surfaced.
//
// Tenants without a sync config, and tenants whose config disables
// outbound pushes, are silently skipped.
type DispatchService struct {
	configs domainsync.TenantSyncConfigRepository
	gateway domainsync.CRMGateway
	runner  TaskRunner
	logger  *zap.Logger
}

// NewDispatchService creates the outbound dispatcher
func NewDispatchService(
	configs domainsync.TenantSyncConfigRepository,
	gateway domainsync.CRMGateway,
	runner TaskRunner,
	logger *zap.Logger,
) *DispatchService {
	return &DispatchService{
		configs: configs,
		gateway: gateway,
		runner:  runner,
		logger:  logger.Named("dispatch"),
	}
}

// ProductChanged dispatches a local product mutation to the tenant's
// CRM in the background. Safe to call for every tenant: non-CRM tenants
// are a no-op.
func (s *DispatchService) ProductChanged(ctx context.Context, tenantID uuid.UUID, product *catalog.Product) {
	config, err := s.configs.FindByTenant(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("Sync config lookup failed, push skipped",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return
	}
	if !config.CanPushToCRM() {
		return
	}

	push := &domainsync.ProductPush{
		Name:        product.Name,
		Price:       domainsync.FormatPrice(product.Price),
		Image:       product.PrimaryImageURL(),
		Enabled:     product.Enabled,
		Description: product.Description,
	}
	productID := product.ID

	submitted := s.runner.Submit("crm-push-product", func(taskCtx context.Context) {
		if err := s.gateway.PushProduct(taskCtx, config, push); err != nil {
			s.logger.Warn("CRM push failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("product_id", productID.String()),
				zap.Error(err))
			return
		}
		s.logger.Info("Product pushed to CRM",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()))
	})
	if !submitted {
		s.logger.Warn("CRM push dropped, task queue saturated",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()))
	}
}
