package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomshop/backend/internal/domain/catalog"
	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

// defaultCoalesceWindow bounds how often a single product can trigger a
// reindex. A burst of sync events for one product collapses into one
// worker call per window.
const defaultCoalesceWindow = 30 * time.Second

// ReindexService schedules visual-search reindex triggers for changed
// products. Triggers are best-effort: a failed or dropped trigger is
// logged and forgotten, the platform state is already committed and the
// next change will schedule a fresh one.
type ReindexService struct {
	client   domainsync.ReindexClient
	products catalog.ProductRepository
	dedup    shared.IdempotencyStore
	runner   TaskRunner
	logger   *zap.Logger
	coalesce time.Duration
}

// NewReindexService creates a reindex scheduler
func NewReindexService(
	client domainsync.ReindexClient,
	products catalog.ProductRepository,
	dedup shared.IdempotencyStore,
	runner TaskRunner,
	logger *zap.Logger,
) *ReindexService {
	return &ReindexService{
		client:   client,
		products: products,
		dedup:    dedup,
		runner:   runner,
		logger:   logger.Named("reindex"),
		coalesce: defaultCoalesceWindow,
	}
}

// SetCoalesceWindow overrides the default coalescing window
func (s *ReindexService) SetCoalesceWindow(window time.Duration) {
	if window > 0 {
		s.coalesce = window
	}
}

// Schedule queues a reindex trigger for one product. Repeated triggers
// for the same product within the coalescing window are collapsed into
// one worker call. Never returns an error: reindexing is decoupled from
// the mutation that caused it.
func (s *ReindexService) Schedule(ctx context.Context, tenantID, productID uuid.UUID) {
	// A nil client means reindex triggers are disabled by configuration.
	if s.client == nil {
		return
	}

	submitted := s.runner.Submit("reindex-one", func(taskCtx context.Context) {
		s.trigger(taskCtx, tenantID, productID)
	})
	if !submitted {
		s.logger.Warn("Reindex trigger dropped, task queue saturated",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()))
	}
}

// trigger runs one scheduled reindex. The product state is re-read
// here, not at schedule time, and the coalescing key is consumed only
// when the worker is actually called: a trigger that is skipped must
// not suppress the next real one.
func (s *ReindexService) trigger(ctx context.Context, tenantID, productID uuid.UUID) {
	product, err := s.products.FindByIDForTenant(ctx, tenantID, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("Reindex product lookup failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return
	}
	if !product.Enabled {
		s.logger.Debug("Reindex skipped for disabled product",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()))
		return
	}

	key := "reindex:" + tenantID.String() + ":" + productID.String()
	fresh, err := s.dedup.MarkProcessed(ctx, key, s.coalesce)
	if err != nil {
		// Dedup store trouble must not block the trigger.
		s.logger.Warn("Reindex dedup check failed, triggering anyway",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()),
			zap.Error(err))
		fresh = true
	}
	if !fresh {
		s.logger.Debug("Reindex coalesced",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()))
		return
	}

	if err := s.client.ReindexOne(ctx, tenantID, productID); err != nil {
		s.logger.Warn("Reindex trigger failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}
}
