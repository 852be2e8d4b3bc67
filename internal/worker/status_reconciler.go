package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yadev07/cs-eventsphere-backend/internal/service"
	"github.com/yadev07/cs-eventsphere-backend/pkg/logger"
)

// StatusReconcilerConfig contains configuration for the status reconciler
type StatusReconcilerConfig struct {
	// ScanInterval is the interval between reconciliation passes
	ScanInterval time.Duration
	// BatchSize is the number of events examined per pass
	BatchSize int
}

// DefaultStatusReconcilerConfig returns default configuration
func DefaultStatusReconcilerConfig() *StatusReconcilerConfig {
	return &StatusReconcilerConfig{
		ScanInterval: time.Minute,
		BatchSize:    200,
	}
}

// StatusReconciler periodically persists derived event phases. Read paths
// derive the phase from the clock and never write; this worker is the only
// writer of the stored status column.
type StatusReconciler struct {
	events  service.EventService
	config  *StatusReconcilerConfig
	log     *zap.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// Stats
	totalUpdated int64
	lastScanTime time.Time
	lastUpdated  int
}

// NewStatusReconciler creates a new status reconciler
func NewStatusReconciler(events service.EventService, config *StatusReconcilerConfig) *StatusReconciler {
	if config == nil {
		config = DefaultStatusReconcilerConfig()
	}

	return &StatusReconciler{
		events: events,
		config: config,
		log:    logger.Get(),
		stopCh: make(chan struct{}),
	}
}

// Start starts the status reconciler
func (w *StatusReconciler) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("status reconciler already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting status reconciler",
		zap.Duration("scan_interval", w.config.ScanInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// Stop stops the status reconciler and waits for the current pass to finish
func (w *StatusReconciler) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping status reconciler")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Status reconciler stopped")
}

// run drives the reconciliation loop
func (w *StatusReconciler) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

// reconcile runs a single reconciliation pass
func (w *StatusReconciler) reconcile(ctx context.Context) {
	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.mu.Unlock()

	updated, err := w.events.ReconcileStatuses(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("Status reconciliation pass failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.totalUpdated += int64(updated)
	w.lastUpdated = updated
	w.mu.Unlock()

	if updated > 0 {
		w.log.Info("Reconciled event statuses", zap.Int("updated", updated))
	}
}

// GetStats returns worker statistics
func (w *StatusReconciler) GetStats() *StatusReconcilerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &StatusReconcilerStats{
		IsRunning:    w.running,
		TotalUpdated: w.totalUpdated,
		LastScanTime: w.lastScanTime,
		LastUpdated:  w.lastUpdated,
	}
}

// StatusReconcilerStats contains worker statistics
type StatusReconcilerStats struct {
	IsRunning    bool      `json:"is_running"`
	TotalUpdated int64     `json:"total_updated"`
	LastScanTime time.Time `json:"last_scan_time"`
	LastUpdated  int       `json:"last_updated"`
}
