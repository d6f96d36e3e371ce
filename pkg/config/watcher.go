package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"mercator-hq/saturn/pkg/pricing"
)

// Rates converts the pricing section into a pricing.Rates value.
func (c PricingConfig) Rates() pricing.Rates {
	return pricing.Rates{
		DataPerTiBUSD:         c.DataPerTiBUSD,
		ComputePerSlotHourUSD: c.ComputePerSlotHourUSD,
		EstimateSlotMS:        c.EstimateSlotMS,
	}
}

// PricingWatcher watches the configuration file for changes and pushes
// updated pricing rates into a live pricing table. Changes are debounced
// to prevent reload storms from editors that write in multiple steps.
type PricingWatcher struct {
	path     string
	table    *pricing.Table
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	running bool
	timer   *time.Timer
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPricingWatcher creates a watcher for the configuration file at path.
// Reloaded rates are applied to table.
func NewPricingWatcher(path string, table *pricing.Table) (*PricingWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &PricingWatcher{
		path:     path,
		table:    table,
		watcher:  watcher,
		logger:   slog.Default().With("component", "pricing-watcher"),
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch starts watching for file changes. It blocks until the context is
// cancelled or Stop is called.
func (w *PricingWatcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("Pricing watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Pricing watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("Pricing watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			w.logger.Debug("File event detected", "path", event.Name, "op", event.Op.String())
			w.trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Pricing watcher error", "error", err)
			// Keep watching despite errors.
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *PricingWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// trigger schedules a reload after the debounce interval, resetting any
// pending reload.
func (w *PricingWatcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.reload(); err != nil {
			w.logger.Error("Pricing reload failed", "error", err)
		}
	})
}

// reload re-reads the configuration file and applies the pricing section
// to the table. Only the pricing section is consulted; other sections
// require a restart.
func (w *PricingWatcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", w.path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse configuration file %q: %w", w.path, err)
	}
	ApplyDefaults(&cfg)

	if errs := validatePricing(&cfg.Pricing); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	w.table.Update(cfg.Pricing.Rates())
	w.logger.Info("Pricing rates reloaded",
		"data_per_tib_usd", cfg.Pricing.DataPerTiBUSD,
		"compute_per_slot_hour_usd", cfg.Pricing.ComputePerSlotHourUSD,
	)
	return nil
}
