package ordering

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the persistence interface for orders
type OrderRepository interface {
	// FindByIDForTenant finds an order by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindByExternalOrderID finds an order by its CRM order ID within a tenant
	FindByExternalOrderID(ctx context.Context, tenantID uuid.UUID, externalOrderID int64) (*Order, error)

	// Save persists an order and any new history entries
	Save(ctx context.Context, order *Order) error
}
