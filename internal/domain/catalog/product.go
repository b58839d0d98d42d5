package catalog

import (
	"time"

	"github.com/bloomshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Product represents a sellable item in the shop catalog.
// It is the aggregate root for product-related operations.
//
// For CRM-backed tenants the external ID links the row to the CRM's
// product record; (tenant_id, external_id) is unique. Locally created
// products that have never been seen by the CRM carry a nil external ID.
type Product struct {
	shared.TenantAggregateRoot
	ExternalID   *string `gorm:"type:varchar(64);uniqueIndex:idx_product_tenant_external,priority:2"`
	Name         string  `gorm:"type:varchar(200);not null"`
	Description  string  `gorm:"type:text"`
	// Price is stored in integer minor currency units, never as a
	// formatted string.
	Price        int64          `gorm:"not null;default:0"`
	DimensionCM  int            `gorm:"not null;default:0"`
	Enabled      bool           `gorm:"not null;default:true"`
	CRMManaged   bool           `gorm:"not null;default:false"`
	LastSyncedAt *time.Time     `gorm:""`
	Images       []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductImage is owned exclusively by a Product. The image set is
// replaced wholesale on each sync; there is no partial image diffing.
type ProductImage struct {
	shared.BaseEntity
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	URL       string    `gorm:"type:varchar(500);not null"`
	IsPrimary bool      `gorm:"not null;default:false"`
	Position  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductImage) TableName() string {
	return "product_images"
}

// NewProduct creates a new locally-authored product
func NewProduct(tenantID uuid.UUID, name string, price int64) (*Product, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Price:               price,
		Enabled:             true,
	}, nil
}

// NewCRMProduct creates a product originating from a CRM sync event.
// The CRM remains the source of truth for this row.
func NewCRMProduct(tenantID uuid.UUID, externalID, name string, price int64) (*Product, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External product ID cannot be empty")
	}
	product, err := NewProduct(tenantID, name, price)
	if err != nil {
		return nil, err
	}

	product.ExternalID = &externalID
	product.CRMManaged = true
	now := time.Now()
	product.LastSyncedAt = &now
	return product, nil
}

// Update updates the product's locally editable fields
func (p *Product) Update(name, description string, price int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.Price = price
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ApplyCRMFields overwrites the CRM-synced attributes. CRM-origin writes
// win unconditionally over local state for these fields.
func (p *Product) ApplyCRMFields(name string, price int64, dimensionCM int, enabled bool) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}

	p.Name = name
	p.Price = price
	p.DimensionCM = dimensionCM
	p.Enabled = enabled
	now := time.Now()
	p.LastSyncedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// ReplaceImages replaces the image set wholesale. The first image becomes
// primary when none is flagged.
func (p *Product) ReplaceImages(urls []string) {
	images := make([]ProductImage, 0, len(urls))
	for i, url := range urls {
		if url == "" {
			continue
		}
		images = append(images, ProductImage{
			BaseEntity: shared.NewBaseEntity(),
			ProductID:  p.ID,
			URL:        url,
			IsPrimary:  len(images) == 0,
			Position:   i,
		})
	}
	p.Images = images
	p.Touch()
	p.IncrementVersion()
}

// Disable soft-deletes the product. Disabling an already disabled
// product is a no-op, not an error, so delete events can be replayed.
func (p *Product) Disable() {
	if !p.Enabled {
		return
	}
	p.Enabled = false
	p.Touch()
	p.IncrementVersion()
}

// Enable re-enables a previously disabled product
func (p *Product) Enable() {
	if p.Enabled {
		return
	}
	p.Enabled = true
	p.Touch()
	p.IncrementVersion()
}

// PrimaryImageURL returns the URL of the primary image, or "" when the
// product has no images
func (p *Product) PrimaryImageURL() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// IsCRMLinked returns true if the product is bound to a CRM record
func (p *Product) IsCRMLinked() bool {
	return p.ExternalID != nil && *p.ExternalID != ""
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price int64) error {
	if price < 0 {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
