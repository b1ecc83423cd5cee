package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appsync "github.com/feedsync/backend/internal/application/sync"
	"github.com/feedsync/backend/internal/domain/catalog"
	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/domain/vendor"
	"github.com/feedsync/backend/internal/interfaces/http/dto"
)

// stubLockService grants or refuses every acquisition.
type stubLockService struct {
	grant bool
}

func (s *stubLockService) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.grant, nil
}

func (s *stubLockService) Release(ctx context.Context, key string) error { return nil }

// stubRetryer runs the operation once without backoff.
type stubRetryer struct{}

func (stubRetryer) Do(ctx context.Context, op func() error) error { return op() }

// MockCatalogStore is a mock implementation of catalog.Store
type MockCatalogStore struct {
	mock.Mock
}

func (m *MockCatalogStore) Upsert(ctx context.Context, vendorID uuid.UUID, product *feed.CanonicalProduct) (catalog.UpsertResult, error) {
	args := m.Called(ctx, vendorID, product)
	return args.Get(0).(catalog.UpsertResult), args.Error(1)
}

func (m *MockCatalogStore) FindByExternalID(ctx context.Context, vendorID uuid.UUID, externalID string) (*catalog.Product, error) {
	args := m.Called(ctx, vendorID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogStore) ListOwnedExternalIDs(ctx context.Context, vendorID uuid.UUID) (map[string]uuid.UUID, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]uuid.UUID), args.Error(1)
}

func (m *MockCatalogStore) ApplyPolicy(ctx context.Context, productID uuid.UUID, policy vendor.ReconciliationPolicy) error {
	args := m.Called(ctx, productID, policy)
	return args.Error(0)
}

// onePageAdapter serves a single short page of records.
type onePageAdapter struct {
	records []feed.RawRecord
}

func (a *onePageAdapter) APIType() string { return "standard" }

func (a *onePageAdapter) FetchPage(ctx context.Context, page, limit int) ([]feed.RawRecord, error) {
	if page == 1 {
		return a.records, nil
	}
	return nil, nil
}

func (a *onePageAdapter) Normalize(record feed.RawRecord) (*feed.CanonicalProduct, bool) {
	return feed.NormalizeRecord(record, feed.DefaultFieldMapping())
}

func (a *onePageAdapter) TestConnection(ctx context.Context) bool { return true }

func newSyncTestRouter(repo vendor.Repository, store catalog.Store, locks appsync.LockService, registry *feed.AdapterRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	orchestrator := appsync.NewOrchestrator(repo, store, locks, registry, stubRetryer{}, nil)
	h := NewSyncHandler(orchestrator, nil)

	engine := gin.New()
	engine.POST("/sync", h.SyncAll)
	engine.POST("/sync/vendors/:id", h.SyncVendor)
	return engine
}

func syncTestRegistry() *feed.AdapterRegistry {
	registry := feed.NewAdapterRegistry()
	registry.Register("standard", func(feed.AdapterConfig) (feed.VendorAdapter, error) {
		return &onePageAdapter{records: []feed.RawRecord{
			{"id": "42", "title": "Widget", "price": 9.99, "qty": 3},
		}}, nil
	})
	return registry
}

func TestSyncHandler_SyncVendor_OK(t *testing.T) {
	cfg := testVendorConfig()
	repo := new(MockVendorRepository)
	repo.On("FindByIDForSync", mock.Anything, cfg.ID).Return(cfg, nil)
	repo.On("RecordSyncCompleted", mock.Anything, cfg.ID, mock.Anything).Return(nil)

	store := new(MockCatalogStore)
	store.On("Upsert", mock.Anything, cfg.ID, mock.Anything).
		Return(catalog.UpsertResult{Outcome: catalog.OutcomeCreated, ProductID: uuid.New()}, nil)

	engine := newSyncTestRouter(repo, store, &stubLockService{grant: true}, syncTestRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync/vendors/"+cfg.ID.String(), nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, float64(1), data["created"])
	repo.AssertExpectations(t)
}

func TestSyncHandler_SyncVendor_Locked(t *testing.T) {
	repo := new(MockVendorRepository)
	store := new(MockCatalogStore)

	engine := newSyncTestRouter(repo, store, &stubLockService{grant: false}, syncTestRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync/vendors/"+uuid.NewString(), nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeSyncLocked, resp.Error.Code)
}

func TestSyncHandler_SyncVendor_NotFound(t *testing.T) {
	repo := new(MockVendorRepository)
	repo.On("FindByIDForSync", mock.Anything, mock.Anything).Return(nil, vendor.ErrVendorNotFound)
	store := new(MockCatalogStore)

	engine := newSyncTestRouter(repo, store, &stubLockService{grant: true}, syncTestRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync/vendors/"+uuid.NewString(), nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncHandler_SyncVendor_InvalidID(t *testing.T) {
	engine := newSyncTestRouter(new(MockVendorRepository), new(MockCatalogStore), &stubLockService{grant: true}, syncTestRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync/vendors/not-a-uuid", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_SyncVendor_InvalidBody(t *testing.T) {
	engine := newSyncTestRouter(new(MockVendorRepository), new(MockCatalogStore), &stubLockService{grant: true}, syncTestRegistry())

	body, _ := json.Marshal(map[string]any{"limit_per_page": -1})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync/vendors/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_SyncAll(t *testing.T) {
	cfg := testVendorConfig()
	repo := new(MockVendorRepository)
	repo.On("FindAll", mock.Anything, true).Return([]*vendor.Config{cfg.Redact()}, nil)
	repo.On("FindByIDForSync", mock.Anything, cfg.ID).Return(cfg, nil)
	repo.On("RecordSyncCompleted", mock.Anything, cfg.ID, mock.Anything).Return(nil)

	store := new(MockCatalogStore)
	store.On("Upsert", mock.Anything, cfg.ID, mock.Anything).
		Return(catalog.UpsertResult{Outcome: catalog.OutcomeCreated, ProductID: uuid.New()}, nil)

	engine := newSyncTestRouter(repo, store, &stubLockService{grant: true}, syncTestRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sync", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	results := resp.Data.([]any)
	assert.Len(t, results, 1)
}
