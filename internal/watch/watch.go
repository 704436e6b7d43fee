package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/username/listing-calendar/internal/calendar"
	"github.com/username/listing-calendar/internal/metrics"
	"go.uber.org/zap"
)

// Watcher periodically reloads the current month and publishes day counts
type Watcher struct {
	vm       *calendar.ViewModel
	metrics  *metrics.Collector
	interval time.Duration
	logger   *zap.Logger

	mu          sync.Mutex // Protect against concurrent runs
	running     bool
	lastRunTime time.Time
	lastCounts  map[calendar.Status]int
}

// New creates a watcher reloading every interval
func New(vm *calendar.ViewModel, collector *metrics.Collector, interval time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		vm:       vm,
		metrics:  collector,
		interval: interval,
		logger:   logger,
	}
}

// Run reloads immediately and then on every tick until ctx is done or SIGINT/SIGTERM arrives
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.logger.Info("Watch started",
		zap.Duration("interval", w.interval),
		zap.String("listing_kind", w.vm.Kind().String()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watch stopped")
			return nil

		case sig := <-sigChan:
			w.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			return nil

		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("Calendar refresh failed", zap.Error(err))
	}
}

// RunOnce moves to the current month, reloads it and updates the day gauges.
// A run started while another is in progress is skipped.
func (w *Watcher) RunOnce(ctx context.Context) (map[calendar.Status]int, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn("Refresh already running, skipping")
		return nil, fmt.Errorf("refresh already in progress")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	window := w.vm.Today()
	if _, err := w.vm.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", window, err)
	}

	counts := calendar.Summarize(w.vm.Days())

	byName := make(map[string]int, len(counts))
	for status, n := range counts {
		byName[status.String()] = n
	}
	w.metrics.SetDays(byName)

	w.mu.Lock()
	w.lastRunTime = time.Now()
	w.lastCounts = counts
	w.mu.Unlock()

	w.logger.Info("Calendar refreshed",
		zap.String("window", window.String()),
		zap.Int("available", counts[calendar.StatusAvailable]),
		zap.Int("blocked", counts[calendar.StatusBlocked]),
		zap.Int("fully_booked", counts[calendar.StatusFullyBooked]),
		zap.Int("closed", counts[calendar.StatusClosed]))

	return counts, nil
}

// Status returns the time and counts of the last successful refresh
func (w *Watcher) Status() (time.Time, map[calendar.Status]int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastRunTime, w.lastCounts
}
