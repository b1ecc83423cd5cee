package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/domain/vendor"
	"github.com/feedsync/backend/internal/interfaces/http/dto"
)

// VendorHandler exposes vendor configuration management. Responses never
// carry the API credential, not even in encrypted form.
type VendorHandler struct {
	BaseHandler
	vendors  vendor.Repository
	registry *feed.AdapterRegistry
	logger   *zap.Logger
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendors vendor.Repository, registry *feed.AdapterRegistry, logger *zap.Logger) *VendorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorHandler{vendors: vendors, registry: registry, logger: logger}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// CreateVendorRequest is the payload for registering a vendor integration
type CreateVendorRequest struct {
	Name           string            `json:"name" binding:"required"`
	APIType        string            `json:"api_type"`
	APIBaseURL     string            `json:"api_base_url" binding:"required,url"`
	APICredential  string            `json:"api_credential" binding:"required"`
	FieldMapping   map[string]string `json:"field_mapping"`
	Policy         string            `json:"reconciliation_policy"`
	LockTTLSeconds int               `json:"lock_ttl_seconds"`
}

// UpdateVendorRequest is the payload for editing a vendor integration.
// Nil fields are left untouched; an empty credential keeps the stored one.
type UpdateVendorRequest struct {
	Name           *string           `json:"name"`
	APIType        *string           `json:"api_type"`
	APIBaseURL     *string           `json:"api_base_url"`
	APICredential  *string           `json:"api_credential"`
	FieldMapping   map[string]string `json:"field_mapping"`
	Policy         *string           `json:"reconciliation_policy"`
	LockTTLSeconds *int              `json:"lock_ttl_seconds"`
	Active         *bool             `json:"active"`
}

// VendorResponse is the public view of a vendor configuration
type VendorResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	APIType        string            `json:"api_type"`
	APIBaseURL     string            `json:"api_base_url"`
	FieldMapping   map[string]string `json:"field_mapping,omitempty"`
	Policy         string            `json:"reconciliation_policy"`
	LockTTLSeconds int               `json:"lock_ttl_seconds"`
	Active         bool              `json:"active"`
	LastSyncedAt   *time.Time        `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func toVendorResponse(cfg *vendor.Config) VendorResponse {
	return VendorResponse{
		ID:             cfg.ID.String(),
		Name:           cfg.Name,
		APIType:        cfg.APIType,
		APIBaseURL:     cfg.APIBaseURL,
		FieldMapping:   cfg.FieldMapping,
		Policy:         string(cfg.Policy),
		LockTTLSeconds: int(cfg.LockTTL / time.Second),
		Active:         cfg.IsActive,
		LastSyncedAt:   cfg.LastSyncedAt,
		CreatedAt:      cfg.CreatedAt,
		UpdatedAt:      cfg.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// Create handles POST /vendors
func (h *VendorHandler) Create(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	apiType := req.APIType
	if apiType == "" {
		apiType = "standard"
	}

	cfg, err := vendor.NewConfig(req.Name, apiType, req.APIBaseURL, req.APICredential)
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidInput), dto.ErrCodeInvalidInput, err.Error())
		return
	}
	cfg.FieldMapping = req.FieldMapping
	if req.Policy != "" {
		policy := vendor.ReconciliationPolicy(req.Policy)
		if !policy.IsValid() {
			h.BadRequest(c, "invalid reconciliation policy")
			return
		}
		cfg.Policy = policy
	}
	if req.LockTTLSeconds > 0 {
		cfg.LockTTL = time.Duration(req.LockTTLSeconds) * time.Second
	}

	if err := h.vendors.Save(c.Request.Context(), cfg); err != nil {
		h.logger.Error("vendor create failed", zap.Error(err))
		h.InternalError(c, "failed to create vendor")
		return
	}
	h.Created(c, toVendorResponse(cfg))
}

// List handles GET /vendors
func (h *VendorHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	configs, err := h.vendors.FindAll(c.Request.Context(), activeOnly)
	if err != nil {
		h.logger.Error("vendor listing failed", zap.Error(err))
		h.InternalError(c, "failed to list vendors")
		return
	}

	responses := make([]VendorResponse, len(configs))
	for i, cfg := range configs {
		responses[i] = toVendorResponse(cfg)
	}
	h.Success(c, responses)
}

// Get handles GET /vendors/:id
func (h *VendorHandler) Get(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}

	cfg, err := h.vendors.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			h.NotFound(c, "vendor not found")
			return
		}
		h.logger.Error("vendor lookup failed", zap.Error(err))
		h.InternalError(c, "failed to load vendor")
		return
	}
	h.Success(c, toVendorResponse(cfg))
}

// Update handles PUT /vendors/:id
func (h *VendorHandler) Update(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}
	var req UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	cfg, err := h.vendors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			h.NotFound(c, "vendor not found")
			return
		}
		h.logger.Error("vendor lookup failed", zap.Error(err))
		h.InternalError(c, "failed to load vendor")
		return
	}

	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.APIType != nil {
		cfg.APIType = *req.APIType
	}
	if req.APIBaseURL != nil {
		cfg.APIBaseURL = *req.APIBaseURL
	}
	if req.APICredential != nil {
		cfg.APICredential = *req.APICredential
	}
	if req.FieldMapping != nil {
		cfg.FieldMapping = req.FieldMapping
	}
	if req.Policy != nil {
		policy := vendor.ReconciliationPolicy(*req.Policy)
		if !policy.IsValid() {
			h.BadRequest(c, "invalid reconciliation policy")
			return
		}
		cfg.Policy = policy
	}
	if req.LockTTLSeconds != nil {
		cfg.LockTTL = time.Duration(*req.LockTTLSeconds) * time.Second
	}
	if req.Active != nil {
		cfg.IsActive = *req.Active
	}

	if err := h.vendors.Save(ctx, cfg); err != nil {
		if errors.Is(err, vendor.ErrMissingName) || errors.Is(err, vendor.ErrMissingAPIBaseURL) {
			h.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("vendor update failed", zap.Error(err))
		h.InternalError(c, "failed to update vendor")
		return
	}

	updated, err := h.vendors.FindByID(ctx, id)
	if err != nil {
		h.InternalError(c, "failed to reload vendor")
		return
	}
	h.Success(c, toVendorResponse(updated))
}

// Delete handles DELETE /vendors/:id
func (h *VendorHandler) Delete(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}

	if err := h.vendors.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			h.NotFound(c, "vendor not found")
			return
		}
		h.logger.Error("vendor delete failed", zap.Error(err))
		h.InternalError(c, "failed to delete vendor")
		return
	}
	h.NoContent(c)
}

// TestConnection handles POST /vendors/:id/test
func (h *VendorHandler) TestConnection(c *gin.Context) {
	id, ok := h.vendorID(c)
	if !ok {
		return
	}

	cfg, err := h.vendors.FindByIDForSync(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			h.NotFound(c, "vendor not found")
			return
		}
		h.logger.Error("vendor lookup failed", zap.Error(err))
		h.InternalError(c, "failed to load vendor")
		return
	}

	adapter, err := h.registry.Resolve(cfg.APIType, feed.AdapterConfig{
		BaseURL:    cfg.APIBaseURL,
		Credential: cfg.APICredential,
		Mapping:    cfg.FieldMapping,
	})
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "no adapter available for api type "+cfg.APIType)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()
	h.Success(c, gin.H{"reachable": adapter.TestConnection(ctx)})
}

func (h *VendorHandler) vendorID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid vendor id")
		return uuid.Nil, false
	}
	return id, true
}
