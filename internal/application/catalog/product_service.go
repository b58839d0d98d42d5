package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bloomshop/backend/internal/domain/catalog"
	"github.com/bloomshop/backend/internal/domain/shared"
)

// Dispatcher propagates local product mutations to the tenant's CRM.
// This decouples ProductService from the concrete sync dispatcher.
type Dispatcher interface {
	ProductChanged(ctx context.Context, tenantID uuid.UUID, product *catalog.Product)
}

// CreateProductRequest carries the fields for creating a product
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description"`
	Price       int64    `json:"price" binding:"min=0"`
	DimensionCM int      `json:"dimension_cm" binding:"min=0"`
	ImageURLs   []string `json:"image_urls"`
}

// UpdateProductRequest carries the fields for updating a product
type UpdateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description"`
	Price       int64    `json:"price" binding:"min=0"`
	ImageURLs   []string `json:"image_urls"`
}

// ProductResponse is the product representation returned to clients
type ProductResponse struct {
	ID           uuid.UUID `json:"id"`
	ExternalID   *string   `json:"external_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	DimensionCM  int       `json:"dimension_cm"`
	Enabled      bool      `json:"enabled"`
	CRMManaged   bool      `json:"crm_managed"`
	ImageURL     string    `json:"image_url,omitempty"`
	LastSyncedAt *string   `json:"last_synced_at,omitempty"`
}

// ProductService handles the admin-facing product operations. Every
// mutation is offered to the dispatcher so CRM-backed tenants stay in
// sync; for everyone else the dispatcher is a no-op.
type ProductService struct {
	products   catalog.ProductRepository
	dispatcher Dispatcher
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, dispatcher Dispatcher) *ProductService {
	return &ProductService{
		products:   products,
		dispatcher: dispatcher,
	}
}

// Create creates a new locally-authored product
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(tenantID, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	product.Description = req.Description
	product.DimensionCM = req.DimensionCM
	if len(req.ImageURLs) > 0 {
		product.ReplaceImages(req.ImageURLs)
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.dispatcher.ProductChanged(ctx, tenantID, product)
	return toProductResponse(product), nil
}

// Update updates a product's locally editable fields
func (s *ProductService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, err
	}

	if err := product.Update(req.Name, req.Description, req.Price); err != nil {
		return nil, err
	}
	if req.ImageURLs != nil {
		product.ReplaceImages(req.ImageURLs)
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.dispatcher.ProductChanged(ctx, tenantID, product)
	return toProductResponse(product), nil
}

// Disable soft-deletes a product
func (s *ProductService) Disable(ctx context.Context, tenantID, id uuid.UUID) error {
	product, err := s.products.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return err
	}

	if !product.Enabled {
		return nil
	}
	product.Disable()
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.dispatcher.ProductChanged(ctx, tenantID, product)
	return nil
}

// Get returns a single product
func (s *ProductService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	return toProductResponse(product), nil
}

// List returns all products for a tenant
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID) ([]ProductResponse, error) {
	products, err := s.products.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, *toProductResponse(&products[i]))
	}
	return responses, nil
}

func toProductResponse(product *catalog.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:          product.ID,
		ExternalID:  product.ExternalID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		DimensionCM: product.DimensionCM,
		Enabled:     product.Enabled,
		CRMManaged:  product.CRMManaged,
		ImageURL:    product.PrimaryImageURL(),
	}
	if product.LastSyncedAt != nil {
		formatted := product.LastSyncedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.LastSyncedAt = &formatted
	}
	return resp
}
