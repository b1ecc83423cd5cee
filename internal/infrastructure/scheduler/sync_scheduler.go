// Package scheduler runs the periodic vendor sync cadences: a frequent
// shallow pass that refreshes the first pages of every feed, and a daily
// deep pass that walks the feeds in full.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appsync "github.com/feedsync/backend/internal/application/sync"
)

// ErrInvalidConfig indicates an invalid scheduler configuration
var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

// VendorSyncer triggers sync runs. Satisfied by sync.Orchestrator.
type VendorSyncer interface {
	SyncAll(ctx context.Context, opts appsync.Options) []appsync.RunResult
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// StockInterval is the cadence of the shallow stock-refresh pass
	StockInterval time.Duration
	// StockMaxPages bounds the shallow pass
	StockMaxPages int
	// FullInterval is the cadence of the deep full-catalog pass
	FullInterval time.Duration
	// FullMaxPages bounds the deep pass
	FullMaxPages int
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:       true,
		StockInterval: time.Hour,
		StockMaxPages: 5,
		FullInterval:  24 * time.Hour,
		FullMaxPages:  50,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.StockInterval <= 0 || c.FullInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.StockMaxPages <= 0 || c.FullMaxPages <= 0 {
		return ErrInvalidConfig
	}
	if c.StockInterval >= c.FullInterval {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler triggers periodic sync passes. Overlap protection between a
// shallow and a deep pass hitting the same vendor comes from the per-vendor
// lock inside the orchestrator, not from the scheduler.
type SyncScheduler struct {
	config SyncSchedulerConfig
	syncer VendorSyncer
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, syncer VendorSyncer, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config: config,
		syncer: syncer,
		logger: logger,
	}, nil
}

// Start starts the scheduler
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, "stock", s.config.StockInterval, appsync.Options{MaxPages: s.config.StockMaxPages})
	go s.loop(ctx, "full", s.config.FullInterval, appsync.Options{MaxPages: s.config.FullMaxPages})

	s.logger.Info("sync scheduler started",
		zap.Duration("stock_interval", s.config.StockInterval),
		zap.Duration("full_interval", s.config.FullInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler and waits for in-flight passes.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("sync scheduler stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SyncScheduler) loop(ctx context.Context, name string, interval time.Duration, opts appsync.Options) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPass(ctx, name, opts)
		}
	}
}

func (s *SyncScheduler) runPass(ctx context.Context, name string, opts appsync.Options) {
	started := time.Now()
	results := s.syncer.SyncAll(ctx, opts)

	var ok, skipped, failed int
	for _, r := range results {
		switch r.Status {
		case appsync.StatusOK:
			ok++
		case appsync.StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	s.logger.Info("scheduled sync pass finished",
		zap.String("pass", name),
		zap.Int("ok", ok),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(started)),
	)
}
