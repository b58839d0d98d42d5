package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/bloomshop/backend/internal/domain/catalog"
	"github.com/bloomshop/backend/internal/domain/ordering"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of ordering.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalOrderID(ctx context.Context, tenantID uuid.UUID, externalOrderID int64) (*ordering.Order, error) {
	args := m.Called(ctx, tenantID, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockSyncConfigRepository is a mock implementation of
// sync.TenantSyncConfigRepository
type MockSyncConfigRepository struct {
	mock.Mock
}

func (m *MockSyncConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*domainsync.TenantSyncConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainsync.TenantSyncConfig), args.Error(1)
}

func (m *MockSyncConfigRepository) FindBySecret(ctx context.Context, secret string) (*domainsync.TenantSyncConfig, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainsync.TenantSyncConfig), args.Error(1)
}

func (m *MockSyncConfigRepository) Save(ctx context.Context, config *domainsync.TenantSyncConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

// MockCRMGateway is a mock implementation of sync.CRMGateway
type MockCRMGateway struct {
	mock.Mock
}

func (m *MockCRMGateway) PushProduct(ctx context.Context, config *domainsync.TenantSyncConfig, push *domainsync.ProductPush) error {
	args := m.Called(ctx, config, push)
	return args.Error(0)
}

// MockReindexClient is a mock implementation of sync.ReindexClient
type MockReindexClient struct {
	mock.Mock
}

func (m *MockReindexClient) ReindexOne(ctx context.Context, tenantID, productID uuid.UUID) error {
	args := m.Called(ctx, tenantID, productID)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// inlineRunner executes submitted tasks synchronously so tests observe
// side effects without sleeping
type inlineRunner struct {
	rejected bool
	names    []string
}

func (r *inlineRunner) Submit(name string, task func(ctx context.Context)) bool {
	if r.rejected {
		return false
	}
	r.names = append(r.names, name)
	task(context.Background())
	return true
}
