package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feedsync/backend/internal/domain/catalog"
)

// CatalogProductModel is the persistence model for synced catalog products.
// A product is owned by the vendor configuration that imported it; the
// (vendor_id, external_id) pair is unique.
type CatalogProductModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	VendorID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_vendor_external,priority:1"`
	ExternalID     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_catalog_vendor_external,priority:2"`
	Name           string          `gorm:"type:varchar(255);not null"`
	Description    string          `gorm:"type:text"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SKU            string          `gorm:"type:varchar(100)"`
	Stock          int             `gorm:"not null;default:0"`
	Status         string          `gorm:"type:varchar(20);not null;default:'published';index"`
	ImageURLsJSON  string          `gorm:"type:jsonb;column:image_urls"`
	CategoriesJSON string          `gorm:"type:jsonb;column:categories"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CatalogProductModel) TableName() string {
	return "catalog_products"
}

// ToDomain converts the persistence model to a catalog.Product.
func (m *CatalogProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:          m.ID,
		VendorID:    m.VendorID,
		ExternalID:  m.ExternalID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		SKU:         m.SKU,
		Stock:       m.Stock,
		Status:      catalog.Status(m.Status),
	}
}

// MarshalStringList encodes a string slice for a jsonb column. An empty
// slice stores as the empty string.
func MarshalStringList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(raw)
}
