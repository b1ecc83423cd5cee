package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feedsync/backend/internal/domain/catalog"
	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/domain/vendor"
	"github.com/feedsync/backend/internal/infrastructure/persistence/models"
)

// GormCatalogStore implements catalog.Store using GORM.
type GormCatalogStore struct {
	db *gorm.DB
}

// NewGormCatalogStore creates a new GormCatalogStore
func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db}
}

// Upsert creates or updates the product owned by the vendor configuration.
// A retired product receiving fresh vendor data is republished.
func (s *GormCatalogStore) Upsert(ctx context.Context, vendorID uuid.UUID, product *feed.CanonicalProduct) (catalog.UpsertResult, error) {
	var model models.CatalogProductModel
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND external_id = ?", vendorID, product.ExternalID).
		First(&model).Error

	now := time.Now()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model = models.CatalogProductModel{
			ID:             uuid.New(),
			VendorID:       vendorID,
			ExternalID:     product.ExternalID,
			Name:           product.Name,
			Description:    product.Description,
			Price:          product.Price,
			SKU:            product.SKU,
			Stock:          product.Stock,
			Status:         string(catalog.StatusPublished),
			ImageURLsJSON:  models.MarshalStringList(product.ImageURLs),
			CategoriesJSON: models.MarshalStringList(product.Categories),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
			return catalog.UpsertResult{}, err
		}
		return catalog.UpsertResult{Outcome: catalog.OutcomeCreated, ProductID: model.ID}, nil

	case err != nil:
		return catalog.UpsertResult{}, err

	default:
		if s.unchanged(&model, product) {
			return catalog.UpsertResult{Outcome: catalog.OutcomeSkipped, ProductID: model.ID}, nil
		}
		updates := map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"sku":         product.SKU,
			"stock":       product.Stock,
			"status":      string(catalog.StatusPublished),
			"image_urls":  models.MarshalStringList(product.ImageURLs),
			"categories":  models.MarshalStringList(product.Categories),
			"updated_at":  now,
		}
		if err := s.db.WithContext(ctx).Model(&model).Updates(updates).Error; err != nil {
			return catalog.UpsertResult{}, err
		}
		return catalog.UpsertResult{Outcome: catalog.OutcomeUpdated, ProductID: model.ID}, nil
	}
}

// unchanged reports whether the stored row already matches the incoming
// product, so the upsert can be counted as skipped.
func (s *GormCatalogStore) unchanged(model *models.CatalogProductModel, product *feed.CanonicalProduct) bool {
	return model.Name == product.Name &&
		model.Description == product.Description &&
		model.Price.Equal(product.Price) &&
		model.SKU == product.SKU &&
		model.Stock == product.Stock &&
		model.Status == string(catalog.StatusPublished) &&
		model.ImageURLsJSON == models.MarshalStringList(product.ImageURLs) &&
		model.CategoriesJSON == models.MarshalStringList(product.Categories)
}

// FindByExternalID looks up a product by vendor and external ID.
func (s *GormCatalogStore) FindByExternalID(ctx context.Context, vendorID uuid.UUID, externalID string) (*catalog.Product, error) {
	var model models.CatalogProductModel
	if err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND external_id = ?", vendorID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListOwnedExternalIDs maps the vendor's live external IDs to catalog
// product IDs. Retired products are excluded so a policy never reapplies
// to them.
func (s *GormCatalogStore) ListOwnedExternalIDs(ctx context.Context, vendorID uuid.UUID) (map[string]uuid.UUID, error) {
	var rows []models.CatalogProductModel
	if err := s.db.WithContext(ctx).
		Select("id", "external_id").
		Where("vendor_id = ? AND status <> ?", vendorID, string(catalog.StatusRetired)).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	owned := make(map[string]uuid.UUID, len(rows))
	for i := range rows {
		owned[rows[i].ExternalID] = rows[i].ID
	}
	return owned, nil
}

// ApplyPolicy applies a reconciliation policy to one product.
func (s *GormCatalogStore) ApplyPolicy(ctx context.Context, productID uuid.UUID, policy vendor.ReconciliationPolicy) error {
	var updates map[string]any
	switch policy {
	case vendor.PolicyNone:
		return nil
	case vendor.PolicyDraft:
		updates = map[string]any{"status": string(catalog.StatusDraft)}
	case vendor.PolicyOutOfStock:
		updates = map[string]any{"stock": 0}
	case vendor.PolicyRetire:
		updates = map[string]any{"status": string(catalog.StatusRetired), "stock": 0}
	default:
		return vendor.ErrInvalidPolicy
	}
	updates["updated_at"] = time.Now()

	result := s.db.WithContext(ctx).
		Model(&models.CatalogProductModel{}).
		Where("id = ?", productID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// Ensure GormCatalogStore implements catalog.Store
var _ catalog.Store = (*GormCatalogStore)(nil)
