// Package sync coordinates full vendor catalog synchronization runs:
// acquire the vendor lock, pull the feed page by page, import each record,
// reconcile products the vendor no longer lists, and release the lock.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedsync/backend/internal/domain/catalog"
	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/domain/vendor"
)

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// LockService guards each vendor against concurrent syncs. Acquire returns
// false when the lock is already held; the TTL bounds how long a crashed
// run can keep a vendor locked.
type LockService interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Retryer runs an operation with bounded retries for transient failures.
type Retryer interface {
	Do(ctx context.Context, op func() error) error
}

// ---------------------------------------------------------------------------
// Options and Results
// ---------------------------------------------------------------------------

const (
	DefaultLimitPerPage = 50
	DefaultMaxPages     = 50
	DefaultLockTTL      = 15 * time.Minute
)

// Options tune one sync run. Zero values fall back to the defaults above.
type Options struct {
	LimitPerPage int
	MaxPages     int
	LockTTL      time.Duration

	// DryRun runs the full fetch and normalize pipeline but performs no
	// catalog writes and no last-sync bookkeeping.
	DryRun bool
}

func (o Options) withDefaults(cfg *vendor.Config) Options {
	if o.LimitPerPage <= 0 {
		o.LimitPerPage = DefaultLimitPerPage
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.LockTTL <= 0 {
		if cfg != nil && cfg.LockTTL > 0 {
			o.LockTTL = cfg.LockTTL
		} else {
			o.LockTTL = DefaultLockTTL
		}
	}
	return o
}

// RunStatus classifies the overall outcome of a sync run.
type RunStatus string

const (
	StatusOK      RunStatus = "ok"
	StatusSkipped RunStatus = "skipped"
	StatusError   RunStatus = "error"
)

// Run outcome reasons.
const (
	ReasonLocked         = "locked"
	ReasonVendorNotFound = "vendor_not_found"
	ReasonVendorInactive = "vendor_inactive"
	ReasonAdapterError   = "adapter_error"
	ReasonCancelled      = "cancelled"
)

// RunResult reports what one sync run did. Counters are cumulative even
// when the run ends early, so partial progress is always visible.
type RunResult struct {
	VendorID       uuid.UUID `json:"vendor_id"`
	Status         RunStatus `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Skipped        int       `json:"skipped"`
	Errors         int       `json:"errors"`
	Reconciled     int       `json:"reconciled"`
	PagesProcessed int       `json:"pages_processed"`
	DryRun         bool      `json:"dry_run,omitempty"`
	Duration       string    `json:"duration,omitempty"`
}

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

// Orchestrator is the sync engine. One orchestrator serves all vendors;
// per-vendor exclusion comes from the lock service, so multiple instances
// can share the workload safely.
type Orchestrator struct {
	vendors  vendor.Repository
	catalog  catalog.Store
	locks    LockService
	registry *feed.AdapterRegistry
	retryer  Retryer
	logger   *zap.Logger
}

// NewOrchestrator wires the sync engine.
func NewOrchestrator(
	vendors vendor.Repository,
	catalogStore catalog.Store,
	locks LockService,
	registry *feed.AdapterRegistry,
	retryer Retryer,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		vendors:  vendors,
		catalog:  catalogStore,
		locks:    locks,
		registry: registry,
		retryer:  retryer,
		logger:   logger,
	}
}

// SyncVendor runs one full sync for a vendor. It never returns an error;
// every failure mode is reported through the result so callers handle one
// shape. The lock is always released before returning, whatever happened.
func (o *Orchestrator) SyncVendor(ctx context.Context, vendorID uuid.UUID, opts Options) RunResult {
	started := time.Now()
	result := RunResult{VendorID: vendorID, Status: StatusOK, DryRun: opts.DryRun}
	log := o.logger.With(zap.String("vendor_id", vendorID.String()))

	lockKey := vendorID.String()
	lockOpts := opts.withDefaults(nil)
	acquired, err := o.locks.Acquire(ctx, lockKey, lockOpts.LockTTL)
	if err != nil {
		log.Error("lock acquisition failed", zap.Error(err))
		result.Status = StatusError
		result.Reason = "lock_error"
		return result
	}
	if !acquired {
		log.Info("sync already in progress, skipping")
		result.Status = StatusSkipped
		result.Reason = ReasonLocked
		return result
	}
	defer func() {
		if err := o.locks.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Warn("lock release failed", zap.Error(err))
		}
	}()

	cfg, err := o.vendors.FindByIDForSync(ctx, vendorID)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound) {
			result.Reason = ReasonVendorNotFound
		} else {
			result.Reason = "vendor_load_error"
		}
		log.Error("vendor configuration unavailable", zap.Error(err))
		result.Status = StatusError
		return result
	}
	if !cfg.IsActive {
		log.Info("vendor inactive, skipping")
		result.Status = StatusSkipped
		result.Reason = ReasonVendorInactive
		return result
	}
	opts = opts.withDefaults(cfg)

	adapter, err := o.registry.Resolve(cfg.APIType, feed.AdapterConfig{
		BaseURL:    cfg.APIBaseURL,
		Credential: cfg.APICredential,
		Mapping:    cfg.FieldMapping,
	})
	if err != nil {
		log.Error("adapter resolution failed", zap.String("api_type", cfg.APIType), zap.Error(err))
		result.Status = StatusError
		result.Reason = ReasonAdapterError
		return result
	}

	log.Info("sync started",
		zap.String("vendor", cfg.Name),
		zap.Int("limit_per_page", opts.LimitPerPage),
		zap.Int("max_pages", opts.MaxPages),
		zap.Bool("dry_run", opts.DryRun))

	seen, fetchFailed, cancelled := o.pullFeed(ctx, adapter, opts, &result, log)

	if cancelled {
		result.Status = StatusError
		result.Reason = ReasonCancelled
		result.Duration = time.Since(started).String()
		log.Warn("sync cancelled", zap.Int("pages_processed", result.PagesProcessed))
		return result
	}

	// Reconciliation needs a trustworthy view of the vendor's feed. A run
	// that fetched nothing cannot tell "vendor emptied the feed" from
	// "vendor was unreachable", so it must not touch existing products.
	// Dry runs still walk the reconciliation set but suppress the writes.
	if result.PagesProcessed > 0 && cfg.Policy != vendor.PolicyNone {
		o.reconcile(ctx, cfg, seen, opts.DryRun, &result, log)
	}

	if fetchFailed {
		result.Status = StatusError
		result.Reason = ReasonAdapterError
	} else if !opts.DryRun {
		if err := o.vendors.RecordSyncCompleted(ctx, vendorID, time.Now()); err != nil {
			log.Warn("failed to record sync completion", zap.Error(err))
		}
	}

	result.Duration = time.Since(started).String()
	log.Info("sync finished",
		zap.String("status", string(result.Status)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Int("reconciled", result.Reconciled),
		zap.Int("pages_processed", result.PagesProcessed))
	return result
}

// pullFeed pages through the vendor feed, importing records as it goes.
// It returns the set of external IDs observed, whether any page fetch
// failed terminally, and whether the run was cancelled mid-flight.
func (o *Orchestrator) pullFeed(
	ctx context.Context,
	adapter feed.VendorAdapter,
	opts Options,
	result *RunResult,
	log *zap.Logger,
) (seen map[string]struct{}, fetchFailed, cancelled bool) {
	seen = make(map[string]struct{})

	for page := 1; page <= opts.MaxPages; page++ {
		select {
		case <-ctx.Done():
			return seen, fetchFailed, true
		default:
		}

		var records []feed.RawRecord
		err := o.retryer.Do(ctx, func() error {
			var fetchErr error
			records, fetchErr = adapter.FetchPage(ctx, page, opts.LimitPerPage)
			return fetchErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return seen, fetchFailed, true
			}
			// A dead page ends pagination but not the run: everything
			// imported so far stays imported.
			log.Error("page fetch failed", zap.Int("page", page), zap.Error(err))
			result.Errors++
			return seen, true, false
		}

		if len(records) == 0 {
			break
		}
		result.PagesProcessed++

		for _, record := range records {
			product, ok := adapter.Normalize(record)
			if !ok {
				result.Skipped++
				continue
			}
			seen[product.ExternalID] = struct{}{}

			if opts.DryRun {
				result.Skipped++
				continue
			}
			upserted, err := o.catalog.Upsert(ctx, result.VendorID, product)
			if err != nil {
				log.Error("product upsert failed",
					zap.String("external_id", product.ExternalID), zap.Error(err))
				result.Errors++
				continue
			}
			switch upserted.Outcome {
			case catalog.OutcomeCreated:
				result.Created++
			case catalog.OutcomeUpdated:
				result.Updated++
			default:
				result.Skipped++
			}
		}

		if len(records) < opts.LimitPerPage {
			break
		}
	}

	return seen, fetchFailed, false
}

// reconcile applies the vendor's policy to every product the vendor owns
// but no longer lists.
func (o *Orchestrator) reconcile(
	ctx context.Context,
	cfg *vendor.Config,
	seen map[string]struct{},
	dryRun bool,
	result *RunResult,
	log *zap.Logger,
) {
	owned, err := o.catalog.ListOwnedExternalIDs(ctx, cfg.ID)
	if err != nil {
		log.Error("reconciliation listing failed", zap.Error(err))
		result.Errors++
		return
	}

	for externalID, productID := range owned {
		if _, present := seen[externalID]; present {
			continue
		}
		if dryRun {
			result.Reconciled++
			continue
		}
		if err := o.catalog.ApplyPolicy(ctx, productID, cfg.Policy); err != nil {
			log.Error("reconciliation policy failed",
				zap.String("external_id", externalID), zap.Error(err))
			result.Errors++
			continue
		}
		result.Reconciled++
	}
}

// SyncAll runs SyncVendor sequentially for every active vendor. A locked
// or failing vendor never blocks the others.
func (o *Orchestrator) SyncAll(ctx context.Context, opts Options) []RunResult {
	configs, err := o.vendors.FindAll(ctx, true)
	if err != nil {
		o.logger.Error("failed to list vendors for sync", zap.Error(err))
		return nil
	}

	results := make([]RunResult, 0, len(configs))
	for _, cfg := range configs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, o.SyncVendor(ctx, cfg.ID, opts))
	}
	return results
}
