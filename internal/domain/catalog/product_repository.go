package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the persistence interface for products
type ProductRepository interface {
	// FindByIDForTenant finds a product by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByExternalID finds a product by its CRM external ID within a tenant
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Product, error)

	// FindAllForTenant finds all products for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Product, error)

	// Save persists a product together with its image set.
	// The image set is replaced wholesale.
	Save(ctx context.Context, product *Product) error
}
