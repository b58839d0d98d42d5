package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bloomshop/backend/internal/domain/catalog"
	"github.com/bloomshop/backend/internal/domain/ordering"
	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
	"github.com/bloomshop/backend/internal/infrastructure/synclock"
)

// UpsertService applies normalized sync events to the platform state.
// It is the single write path for CRM-origin mutations: lookups key on
// the CRM's external IDs, CRM writes win over local state, and all
// mutations against one entity are serialized.
type UpsertService struct {
	products catalog.ProductRepository
	orders   ordering.OrderRepository
	locks    *synclock.KeyedMutex
	reindex  *ReindexService
	logger   *zap.Logger
}

// NewUpsertService creates the sync upsert engine
func NewUpsertService(
	products catalog.ProductRepository,
	orders ordering.OrderRepository,
	locks *synclock.KeyedMutex,
	reindex *ReindexService,
	logger *zap.Logger,
) *UpsertService {
	return &UpsertService{
		products: products,
		orders:   orders,
		locks:    locks,
		reindex:  reindex,
		logger:   logger.Named("upsert"),
	}
}

// Apply processes one sync event to completion. A second event for the
// same entity arriving while the first is in flight fails with
// ErrEntityLocked; the CRM retries the delivery.
func (s *UpsertService) Apply(ctx context.Context, event *domainsync.SyncEvent) error {
	release, ok := s.locks.TryAcquire(event.EntityKey())
	if !ok {
		return domainsync.ErrEntityLocked
	}

	var reindexProduct *catalog.Product
	err := func() error {
		defer release()

		switch event.Kind {
		case domainsync.EventProductCreated, domainsync.EventProductUpdated:
			product, err := s.upsertProduct(ctx, event)
			if err != nil {
				return err
			}
			reindexProduct = product
			return nil
		case domainsync.EventProductDeleted:
			// Deletes never reindex; scheduling one would burn the
			// coalescing window on a trigger that is skipped anyway.
			return s.disableProduct(ctx, event)
		case domainsync.EventOrderStatusChanged:
			return s.applyOrderStatus(ctx, event)
		default:
			return domainsync.ErrInvalidEnvelope
		}
	}()
	if err != nil {
		return err
	}

	// Scheduled after the entity lock is released so a slow dedup store
	// never extends the critical section.
	if reindexProduct != nil {
		s.reindex.Schedule(ctx, event.TenantID, reindexProduct.ID)
	}
	return nil
}

// upsertProduct creates or updates the product matching the event's
// external ID. Created and updated events are deliberately handled the
// same way: the CRM's event kinds are advisory and deliveries can
// arrive out of order.
func (s *UpsertService) upsertProduct(ctx context.Context, event *domainsync.SyncEvent) (*catalog.Product, error) {
	payload := event.Product

	product, err := s.products.FindByExternalID(ctx, event.TenantID, payload.ExternalID)
	switch {
	case err == nil:
		if err := product.ApplyCRMFields(payload.Name, payload.Price, payload.DimensionCM, payload.Enabled); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		product, err = catalog.NewCRMProduct(event.TenantID, payload.ExternalID, payload.Name, payload.Price)
		if err != nil {
			return nil, err
		}
		product.DimensionCM = payload.DimensionCM
		if !payload.Enabled {
			product.Disable()
		}
	default:
		return nil, err
	}

	if payload.ImageURL != "" {
		product.ReplaceImages([]string{payload.ImageURL})
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product synced from CRM",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("external_id", payload.ExternalID),
		zap.String("event", event.Kind.String()))
	return product, nil
}

// disableProduct soft-deletes the product matching the event's external
// ID. Deleting an unknown or already disabled product succeeds: delete
// deliveries are replayed by the CRM.
func (s *UpsertService) disableProduct(ctx context.Context, event *domainsync.SyncEvent) error {
	product, err := s.products.FindByExternalID(ctx, event.TenantID, event.Product.ExternalID)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Debug("Delete for unknown product ignored",
			zap.String("tenant_id", event.TenantID.String()),
			zap.String("external_id", event.Product.ExternalID))
		return nil
	}
	if err != nil {
		return err
	}

	if !product.Enabled {
		return nil
	}
	product.Disable()
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.logger.Info("Product disabled from CRM delete",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("external_id", event.Product.ExternalID))
	return nil
}

// applyOrderStatus applies a CRM status change to the matching local
// order. Orders are never created from status events: an unmatched
// external order ID is a semantic rejection.
func (s *UpsertService) applyOrderStatus(ctx context.Context, event *domainsync.SyncEvent) error {
	payload := event.Order

	order, err := s.orders.FindByExternalOrderID(ctx, event.TenantID, payload.ExternalOrderID)
	if errors.Is(err, shared.ErrNotFound) {
		return domainsync.ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	changedBy := fmt.Sprintf("manager:%d", payload.ChangedByID)
	if err := order.ApplyCRMStatus(payload.Status, changedBy, payload.Note); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}

	s.logger.Info("Order status synced from CRM",
		zap.String("tenant_id", event.TenantID.String()),
		zap.Int64("external_order_id", payload.ExternalOrderID),
		zap.String("crm_code", payload.CRMCode),
		zap.String("status", payload.Status.String()))
	return nil
}
