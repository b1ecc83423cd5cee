package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feedsync/backend/internal/domain/vendor"
	"github.com/feedsync/backend/internal/infrastructure/persistence/models"
	"github.com/feedsync/backend/internal/infrastructure/secrets"
)

// GormVendorRepository implements vendor.Repository using GORM. Credentials
// are encrypted before they touch the database and decrypted only on the
// FindByIDForSync path.
type GormVendorRepository struct {
	db     *gorm.DB
	cipher *secrets.Cipher
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB, cipher *secrets.Cipher) *GormVendorRepository {
	return &GormVendorRepository{db: db, cipher: cipher}
}

// FindByID finds a configuration by ID with the credential redacted.
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*vendor.Config, error) {
	var model models.VendorConfigModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vendor.ErrVendorNotFound
		}
		return nil, err
	}
	return model.ToDomain().Redact(), nil
}

// FindByIDForSync finds a configuration by ID with the credential decrypted.
func (r *GormVendorRepository) FindByIDForSync(ctx context.Context, id uuid.UUID) (*vendor.Config, error) {
	var model models.VendorConfigModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vendor.ErrVendorNotFound
		}
		return nil, err
	}
	cfg := model.ToDomain()
	credential, err := r.cipher.Decrypt(cfg.APICredential)
	if err != nil {
		return nil, err
	}
	cfg.APICredential = credential
	return cfg, nil
}

// FindAll lists configurations with credentials redacted.
func (r *GormVendorRepository) FindAll(ctx context.Context, activeOnly bool) ([]*vendor.Config, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var vendorModels []models.VendorConfigModel
	if err := query.Find(&vendorModels).Error; err != nil {
		return nil, err
	}

	configs := make([]*vendor.Config, len(vendorModels))
	for i := range vendorModels {
		configs[i] = vendorModels[i].ToDomain().Redact()
	}
	return configs, nil
}

// Save creates or updates a configuration, encrypting the credential. An
// empty credential on update keeps the one already stored.
func (r *GormVendorRepository) Save(ctx context.Context, cfg *vendor.Config) error {
	stored := *cfg
	if stored.APICredential != "" {
		encrypted, err := r.cipher.Encrypt(stored.APICredential)
		if err != nil {
			return err
		}
		stored.APICredential = encrypted
	} else {
		var existing models.VendorConfigModel
		err := r.db.WithContext(ctx).First(&existing, "id = ?", stored.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return vendor.ErrMissingAPICredential
			}
			return err
		}
		stored.APICredential = existing.APICredential
	}

	stored.UpdatedAt = time.Now()
	var model models.VendorConfigModel
	if err := model.FromDomain(&stored); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a configuration.
func (r *GormVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.VendorConfigModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return vendor.ErrVendorNotFound
	}
	return nil
}

// RecordSyncCompleted stamps the configuration's last successful sync.
func (r *GormVendorRepository) RecordSyncCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorConfigModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_synced_at": at,
			"updated_at":     time.Now(),
		}).Error
}

// Ensure GormVendorRepository implements vendor.Repository
var _ vendor.Repository = (*GormVendorRepository)(nil)
