package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsync "github.com/feedsync/backend/internal/application/sync"
)

type recordingSyncer struct {
	mu    sync.Mutex
	calls []appsync.Options
}

func (r *recordingSyncer) SyncAll(_ context.Context, opts appsync.Options) []appsync.RunResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, opts)
	return []appsync.RunResult{{Status: appsync.StatusOK}}
}

func (r *recordingSyncer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	valid := DefaultSyncSchedulerConfig()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*SyncSchedulerConfig)
	}{
		{"zero stock interval", func(c *SyncSchedulerConfig) { c.StockInterval = 0 }},
		{"zero full interval", func(c *SyncSchedulerConfig) { c.FullInterval = 0 }},
		{"zero stock max pages", func(c *SyncSchedulerConfig) { c.StockMaxPages = 0 }},
		{"zero full max pages", func(c *SyncSchedulerConfig) { c.FullMaxPages = 0 }},
		{"stock not more frequent than full", func(c *SyncSchedulerConfig) { c.StockInterval = c.FullInterval }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSyncSchedulerConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSyncScheduler_RunsStockPass(t *testing.T) {
	syncer := &recordingSyncer{}
	cfg := SyncSchedulerConfig{
		Enabled:       true,
		StockInterval: 10 * time.Millisecond,
		StockMaxPages: 5,
		FullInterval:  time.Hour,
		FullMaxPages:  50,
	}
	s, err := NewSyncScheduler(cfg, syncer, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return syncer.callCount() >= 2
	}, time.Second, 5*time.Millisecond)

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	assert.Equal(t, 5, syncer.calls[0].MaxPages, "stock pass uses the shallow page bound")
}

func TestSyncScheduler_StartIsIdempotent(t *testing.T) {
	s, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), &recordingSyncer{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSyncScheduler_StopWithoutStart(t *testing.T) {
	s, err := NewSyncScheduler(DefaultSyncSchedulerConfig(), &recordingSyncer{}, nil)
	require.NoError(t, err)
	s.Stop()
	assert.False(t, s.IsRunning())
}
