// Package autoscan runs scans on a configured cadence. The driver re-reads
// the settings document every iteration so cadence changes picked up by a
// restart take effect immediately.
package autoscan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"linkarr/internal/logging"
	"linkarr/internal/scanner"
	"linkarr/internal/settings"
)

// While auto-scan is disabled the driver re-checks the settings at this
// cadence instead of idling forever.
const disabledRecheck = 30 * time.Second

// Driver owns the periodic scan loop.
type Driver struct {
	scanner  *scanner.Scanner
	settings *settings.Store
	logger   *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	lastScan *time.Time
	nextScan *time.Time
}

// New builds a stopped driver.
func New(sc *scanner.Scanner, settingsStore *settings.Store, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Driver{scanner: sc, settings: settingsStore, logger: logger}
}

// Status reports the driver state for the API and CLI.
type Status struct {
	Enabled  bool       `json:"enabled"`
	Interval int        `json:"interval"`
	Unit     string     `json:"unit"`
	Running  bool       `json:"running"`
	LastScan *time.Time `json:"last_scan,omitempty"`
	NextScan *time.Time `json:"next_scan,omitempty"`
}

// Start launches the loop. Starting a running driver is a no-op.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

// Stop cancels the loop and waits for it to exit.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.done = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Restart tears the loop down and starts a fresh one; call it whenever
// settings that affect auto-scan change.
func (d *Driver) Restart() {
	d.Stop()
	d.Start()
}

// Status returns the current driver state.
func (d *Driver) Status() Status {
	doc := d.settings.Current()
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Enabled:  doc.AutoScanEnabled,
		Interval: doc.AutoScanInterval,
		Unit:     doc.AutoScanUnit,
		Running:  d.cancel != nil,
		LastScan: d.lastScan,
		NextScan: d.nextScan,
	}
}

func (d *Driver) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		doc := d.settings.Current()
		interval := doc.IntervalDuration()

		// Zero interval behaves like disabled: never scan, keep
		// re-checking for a config change.
		if !doc.AutoScanEnabled || interval <= 0 {
			d.setNextScan(nil)
			if !sleep(ctx, disabledRecheck) {
				return
			}
			continue
		}

		now := time.Now().UTC()
		d.setLastScan(&now)
		if _, err := d.scanner.Scan(ctx, scanner.Options{}); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if !errors.Is(err, scanner.ErrScanInProgress) {
				d.logger.Warn("periodic scan failed", logging.Error(err))
			}
		}

		next := time.Now().UTC().Add(interval)
		d.setNextScan(&next)
		if !sleep(ctx, interval) {
			return
		}
	}
}

func (d *Driver) setLastScan(t *time.Time) {
	d.mu.Lock()
	d.lastScan = t
	d.mu.Unlock()
}

func (d *Driver) setNextScan(t *time.Time) {
	d.mu.Lock()
	d.nextScan = t
	d.mu.Unlock()
}

// sleep waits for the duration and reports false when the context was
// cancelled first.
func sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
