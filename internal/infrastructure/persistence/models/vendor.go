package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/domain/vendor"
)

// VendorConfigModel is the persistence model for the vendor.Config domain
// entity. APICredential holds the encrypted form; encryption happens in the
// repository, never here.
type VendorConfigModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name             string     `gorm:"type:varchar(255);not null"`
	APIType          string     `gorm:"type:varchar(50);not null;default:'standard'"`
	APIBaseURL       string     `gorm:"type:varchar(500);not null"`
	APICredential    string     `gorm:"type:text;not null"`
	FieldMappingJSON string     `gorm:"type:jsonb;column:field_mapping"`
	Policy           string     `gorm:"type:varchar(20);not null;default:'none'"`
	LockTTLSeconds   int        `gorm:"not null;default:900"`
	// No default tag on IsActive: gorm skips zero-valued defaulted fields
	// on insert, which would turn a deactivated row back active.
	IsActive     bool       `gorm:"not null;index"`
	LastSyncedAt *time.Time `gorm:"index"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VendorConfigModel) TableName() string {
	return "vendor_configs"
}

// ToDomain converts the persistence model to a domain vendor.Config.
// The credential comes back as stored, still encrypted.
func (m *VendorConfigModel) ToDomain() *vendor.Config {
	cfg := &vendor.Config{
		ID:            m.ID,
		Name:          m.Name,
		APIType:       m.APIType,
		APIBaseURL:    m.APIBaseURL,
		APICredential: m.APICredential,
		Policy:        vendor.ReconciliationPolicy(m.Policy),
		LockTTL:       time.Duration(m.LockTTLSeconds) * time.Second,
		IsActive:      m.IsActive,
		LastSyncedAt:  m.LastSyncedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}

	if m.FieldMappingJSON != "" {
		var mapping feed.FieldMapping
		if err := json.Unmarshal([]byte(m.FieldMappingJSON), &mapping); err == nil {
			cfg.FieldMapping = mapping
		}
	}

	return cfg
}

// FromDomain populates the persistence model from a domain vendor.Config.
func (m *VendorConfigModel) FromDomain(cfg *vendor.Config) error {
	m.ID = cfg.ID
	m.Name = cfg.Name
	m.APIType = cfg.APIType
	m.APIBaseURL = cfg.APIBaseURL
	m.APICredential = cfg.APICredential
	m.Policy = string(cfg.Policy)
	m.LockTTLSeconds = int(cfg.LockTTL / time.Second)
	m.IsActive = cfg.IsActive
	m.LastSyncedAt = cfg.LastSyncedAt
	m.CreatedAt = cfg.CreatedAt
	m.UpdatedAt = cfg.UpdatedAt

	if len(cfg.FieldMapping) > 0 {
		raw, err := json.Marshal(cfg.FieldMapping)
		if err != nil {
			return err
		}
		m.FieldMappingJSON = string(raw)
	} else {
		m.FieldMappingJSON = ""
	}

	return nil
}
