package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/feedsync/backend/internal/application/sync"
	"github.com/feedsync/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes manual sync triggers.
type SyncHandler struct {
	BaseHandler
	orchestrator *appsync.Orchestrator
	logger       *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *appsync.Orchestrator, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{orchestrator: orchestrator, logger: logger}
}

// SyncRequest tunes a manually triggered run. All fields are optional.
type SyncRequest struct {
	LimitPerPage   int  `json:"limit_per_page" binding:"omitempty,min=1,max=500"`
	MaxPages       int  `json:"max_pages" binding:"omitempty,min=1,max=1000"`
	LockTTLSeconds int  `json:"lock_ttl_seconds" binding:"omitempty,min=1"`
	DryRun         bool `json:"dry_run"`
}

func (r SyncRequest) options() appsync.Options {
	return appsync.Options{
		LimitPerPage: r.LimitPerPage,
		MaxPages:     r.MaxPages,
		LockTTL:      time.Duration(r.LockTTLSeconds) * time.Second,
		DryRun:       r.DryRun,
	}
}

// SyncVendor handles POST /sync/vendors/:id
func (h *SyncHandler) SyncVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid vendor id")
		return
	}

	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	result := h.orchestrator.SyncVendor(c.Request.Context(), id, req.options())
	switch {
	case result.Status == appsync.StatusSkipped && result.Reason == appsync.ReasonLocked:
		h.Conflict(c, dto.ErrCodeSyncLocked, "a sync is already running for this vendor")
	case result.Status == appsync.StatusError && result.Reason == appsync.ReasonVendorNotFound:
		h.NotFound(c, "vendor not found")
	default:
		h.Success(c, result)
	}
}

// SyncAll handles POST /sync
func (h *SyncHandler) SyncAll(c *gin.Context) {
	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	results := h.orchestrator.SyncAll(c.Request.Context(), req.options())
	h.Success(c, results)
}
