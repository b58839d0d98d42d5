package sync

import (
	"context"

	"github.com/google/uuid"
)

// ProductPush carries the fields pushed to the CRM on a local product
// mutation. Price is formatted back into the CRM's display convention
// at the adapter boundary.
type ProductPush struct {
	Name        string
	Price       string
	Image       string
	Enabled     bool
	Description string
}

// CRMGateway is the port interface for the external CRM. The concrete
// HTTP adapter lives in the infrastructure layer.
type CRMGateway interface {
	// PushProduct pushes a local product mutation to the CRM.
	// Best-effort single attempt; the caller never retries.
	PushProduct(ctx context.Context, config *TenantSyncConfig, push *ProductPush) error
}

// ReindexClient is the port interface for the visual-search reindex
// worker. The call is a pure trigger: the worker fetches product data
// and images itself.
type ReindexClient interface {
	// ReindexOne asks the worker to recompute one product's embedding
	ReindexOne(ctx context.Context, tenantID, productID uuid.UUID) error
}
