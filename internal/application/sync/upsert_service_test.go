package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bloomshop/backend/internal/domain/catalog"
	"github.com/bloomshop/backend/internal/domain/ordering"
	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
	"github.com/bloomshop/backend/internal/infrastructure/cache"
	"github.com/bloomshop/backend/internal/infrastructure/synclock"
)

type upsertFixture struct {
	products *MockProductRepository
	orders   *MockOrderRepository
	reindex  *MockReindexClient
	dedup    *MockIdempotencyStore
	runner   *inlineRunner
	locks    *synclock.KeyedMutex
	service  *UpsertService
}

func newUpsertFixture() *upsertFixture {
	f := &upsertFixture{
		products: new(MockProductRepository),
		orders:   new(MockOrderRepository),
		reindex:  new(MockReindexClient),
		dedup:    new(MockIdempotencyStore),
		runner:   &inlineRunner{},
		locks:    synclock.NewKeyedMutex(),
	}
	reindexService := NewReindexService(f.reindex, f.products, f.dedup, f.runner, zap.NewNop())
	f.service = NewUpsertService(f.products, f.orders, f.locks, reindexService, zap.NewNop())
	return f
}

func productEvent(tenantID uuid.UUID, kind domainsync.EventKind, payload *domainsync.ProductPayload) *domainsync.SyncEvent {
	return &domainsync.SyncEvent{
		TenantID: tenantID,
		Kind:     kind,
		Product:  payload,
	}
}

func TestUpsertServiceApplyProduct(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Creates a product for an unseen external ID", func(t *testing.T) {
		f := newUpsertFixture()
		stored, err := catalog.NewCRMProduct(tenantID, "4521", "Букет «Весна»", 500000)
		require.NoError(t, err)
		f.products.On("FindByExternalID", ctx, tenantID, "4521").Return(nil, shared.ErrNotFound)
		f.products.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)
		f.products.On("FindByIDForTenant", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(stored, nil)
		f.dedup.On("MarkProcessed", ctx, mock.AnythingOfType("string"), defaultCoalesceWindow).Return(true, nil)
		f.reindex.On("ReindexOne", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(nil)

		event := productEvent(tenantID, domainsync.EventProductCreated, &domainsync.ProductPayload{
			ExternalID:  "4521",
			Name:        "Букет «Весна»",
			Price:       500000,
			DimensionCM: 65,
			Enabled:     true,
			ImageURL:    "https://crm.example/img/4521.jpg",
		})
		require.NoError(t, f.service.Apply(ctx, event))

		saved := f.products.Calls[1].Arguments.Get(1).(*catalog.Product)
		assert.Equal(t, "Букет «Весна»", saved.Name)
		assert.Equal(t, int64(500000), saved.Price)
		assert.Equal(t, 65, saved.DimensionCM)
		assert.True(t, saved.Enabled)
		assert.True(t, saved.CRMManaged)
		require.Len(t, saved.Images, 1)
		assert.Equal(t, "https://crm.example/img/4521.jpg", saved.PrimaryImageURL())
		f.reindex.AssertExpectations(t)
	})

	t.Run("Updates an existing product, created kind included", func(t *testing.T) {
		f := newUpsertFixture()
		existing, err := catalog.NewCRMProduct(tenantID, "4521", "Роза", 75000)
		require.NoError(t, err)
		existing.Description = "местное описание"

		f.products.On("FindByExternalID", ctx, tenantID, "4521").Return(existing, nil)
		f.products.On("Save", ctx, existing).Return(nil)
		f.products.On("FindByIDForTenant", mock.Anything, tenantID, existing.ID).Return(existing, nil)

		// Re-delivered created events must behave as updates.
		event := productEvent(tenantID, domainsync.EventProductCreated, &domainsync.ProductPayload{
			ExternalID:  "4521",
			Name:        "Роза красная",
			Price:       80000,
			DimensionCM: 40,
			Enabled:     false,
		})
		require.NoError(t, f.service.Apply(ctx, event))

		assert.Equal(t, "Роза красная", existing.Name)
		assert.Equal(t, int64(80000), existing.Price)
		assert.False(t, existing.Enabled)
		assert.Equal(t, "местное описание", existing.Description)
		// The event disabled the product, so the execute-time check
		// drops the scheduled reindex without consuming the window.
		f.reindex.AssertNotCalled(t, "ReindexOne", mock.Anything, mock.Anything, mock.Anything)
		f.dedup.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Repository failure is surfaced and nothing is reindexed", func(t *testing.T) {
		f := newUpsertFixture()
		f.products.On("FindByExternalID", ctx, tenantID, "4521").Return(nil, assert.AnError)

		event := productEvent(tenantID, domainsync.EventProductUpdated, &domainsync.ProductPayload{
			ExternalID: "4521", Name: "Роза", Price: 75000, DimensionCM: 40, Enabled: true,
		})
		assert.ErrorIs(t, f.service.Apply(ctx, event), assert.AnError)
		f.reindex.AssertNotCalled(t, "ReindexOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Lock is released after apply", func(t *testing.T) {
		f := newUpsertFixture()
		stored, err := catalog.NewCRMProduct(tenantID, "4521", "Роза", 75000)
		require.NoError(t, err)
		f.products.On("FindByExternalID", ctx, tenantID, "4521").Return(nil, shared.ErrNotFound)
		f.products.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)
		f.products.On("FindByIDForTenant", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(stored, nil)
		f.dedup.On("MarkProcessed", ctx, mock.AnythingOfType("string"), defaultCoalesceWindow).Return(true, nil)
		f.reindex.On("ReindexOne", mock.Anything, tenantID, mock.AnythingOfType("uuid.UUID")).Return(nil)

		event := productEvent(tenantID, domainsync.EventProductCreated, &domainsync.ProductPayload{
			ExternalID: "4521", Name: "Роза", Price: 75000, Enabled: true,
		})
		require.NoError(t, f.service.Apply(ctx, event))
		assert.False(t, f.locks.Held(event.EntityKey()))
	})

	t.Run("Concurrent event for the same entity is rejected", func(t *testing.T) {
		f := newUpsertFixture()
		event := productEvent(tenantID, domainsync.EventProductUpdated, &domainsync.ProductPayload{
			ExternalID: "4521", Name: "Роза", Price: 75000, Enabled: true,
		})

		release, ok := f.locks.TryAcquire(event.EntityKey())
		require.True(t, ok)
		defer release()

		assert.ErrorIs(t, f.service.Apply(ctx, event), domainsync.ErrEntityLocked)
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestUpsertServiceApplyDelete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("Disables the matching product", func(t *testing.T) {
		f := newUpsertFixture()
		existing, err := catalog.NewCRMProduct(tenantID, "4521", "Роза", 75000)
		require.NoError(t, err)

		f.products.On("FindByExternalID", ctx, tenantID, "4521").Return(existing, nil)
		f.products.On("Save", ctx, existing).Return(nil)

		event := productEvent(tenantID, domainsync.EventProductDeleted, &domainsync.ProductPayload{ExternalID: "4521"})
		require.NoError(t, f.service.Apply(ctx, event))
		assert.False(t, existing.Enabled)
		// Deletes schedule nothing at all, so the coalescing window
		// stays free for the next real update.
		assert.Empty(t, f.runner.names)
		f.reindex.AssertNotCalled(t, "ReindexOne", mock.Anything, mock.Anything, mock.Anything)
		f.dedup.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Delete followed by a re-enabling update still reindexes", func(t *testing.T) {
		products := new(MockProductRepository)
		orders := new(MockOrderRepository)
		client := new(MockReindexClient)
		runner := &inlineRunner{}
		reindexService := NewReindexService(client, products, cache.NewInMemoryIdempotencyStore(), runner, zap.NewNop())
		service := NewUpsertService(products, orders, synclock.NewKeyedMutex(), reindexService, zap.NewNop())

		existing, err := catalog.NewCRMProduct(tenantID, "4521", "Роза", 75000)
		require.NoError(t, err)

		products.On("FindByExternalID", ctx, tenantID, "4521").Return(existing, nil)
		products.On("Save", ctx, existing).Return(nil)
		products.On("FindByIDForTenant", mock.Anything, tenantID, existing.ID).Return(existing, nil)
		client.On("ReindexOne", mock.Anything, tenantID, existing.ID).Return(nil).Once()

		deleteEvent := productEvent(tenantID, domainsync.EventProductDeleted, &domainsync.ProductPayload{ExternalID: "4521"})
		require.NoError(t, service.Apply(ctx, deleteEvent))
		require.False(t, existing.Enabled)

		updateEvent := productEvent(tenantID, domainsync.EventProductUpdated, &domainsync.ProductPayload{
			ExternalID: "4521", Name: "Роза", Price: 75000, DimensionCM: 40, Enabled: true,
		})
		require.NoError(t, service.Apply(ctx, updateEvent))

		assert.True(t, existing.Enabled)
		client.AssertExpectations(t)
	})

	t.Run("Delete of an unknown product succeeds", func(t *testing.T) {
		f := newUpsertFixture()
		f.products.On("FindByExternalID", ctx, tenantID, "9999").Return(nil, shared.ErrNotFound)

		event := productEvent(tenantID, domainsync.EventProductDeleted, &domainsync.ProductPayload{ExternalID: "9999"})
		require.NoError(t, f.service.Apply(ctx, event))
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.reindex.AssertNotCalled(t, "ReindexOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Delete of an already disabled product does not write", func(t *testing.T) {
		f := newUpsertFixture()
		existing, err := catalog.NewCRMProduct(tenantID, "4521", "Роза", 75000)
		require.NoError(t, err)
		existing.Disable()

		f.products.On("FindByExternalID", ctx, tenantID, "4521").Return(existing, nil)

		event := productEvent(tenantID, domainsync.EventProductDeleted, &domainsync.ProductPayload{ExternalID: "4521"})
		require.NoError(t, f.service.Apply(ctx, event))
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestUpsertServiceApplyOrderStatus(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	orderEvent := func(externalOrderID int64) *domainsync.SyncEvent {
		return &domainsync.SyncEvent{
			TenantID: tenantID,
			Kind:     domainsync.EventOrderStatusChanged,
			Order: &domainsync.OrderStatusPayload{
				ExternalOrderID: externalOrderID,
				Status:          ordering.OrderStatusInDelivery,
				CRMCode:         "DE",
				ChangedByID:     31,
				Note:            "курьер выехал",
			},
		}
	}

	t.Run("Applies the status and records CRM history", func(t *testing.T) {
		f := newUpsertFixture()
		order, err := ordering.NewOrder(tenantID, "ORD-001", "Айгуль", "", "admin")
		require.NoError(t, err)
		require.NoError(t, order.LinkExternalOrder(9912))

		f.orders.On("FindByExternalOrderID", ctx, tenantID, int64(9912)).Return(order, nil)
		f.orders.On("Save", ctx, order).Return(nil)

		require.NoError(t, f.service.Apply(ctx, orderEvent(9912)))

		assert.Equal(t, ordering.OrderStatusInDelivery, order.Status)
		last := order.History[len(order.History)-1]
		assert.Equal(t, ordering.HistoryOriginCRM, last.Origin)
		assert.Equal(t, "manager:31", last.ChangedBy)
		assert.Equal(t, "курьер выехал", last.Note)
	})

	t.Run("Unknown external order is a semantic rejection", func(t *testing.T) {
		f := newUpsertFixture()
		f.orders.On("FindByExternalOrderID", ctx, tenantID, int64(404)).Return(nil, shared.ErrNotFound)

		assert.ErrorIs(t, f.service.Apply(ctx, orderEvent(404)), domainsync.ErrOrderNotFound)
		f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Order events never touch the reindex trigger", func(t *testing.T) {
		f := newUpsertFixture()
		order, err := ordering.NewOrder(tenantID, "ORD-001", "Айгуль", "", "admin")
		require.NoError(t, err)
		require.NoError(t, order.LinkExternalOrder(9912))

		f.orders.On("FindByExternalOrderID", ctx, tenantID, int64(9912)).Return(order, nil)
		f.orders.On("Save", ctx, order).Return(nil)

		require.NoError(t, f.service.Apply(ctx, orderEvent(9912)))
		f.reindex.AssertNotCalled(t, "ReindexOne", mock.Anything, mock.Anything, mock.Anything)
	})
}
