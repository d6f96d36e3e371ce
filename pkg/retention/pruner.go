// Package retention enforces age-based cleanup of cost records,
// violations, and daily history, and schedules the daily rollup that
// closes out each day's spending.
package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/history"
	"mercator-hq/saturn/pkg/ledger"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RecordRetentionDays is how long cost records are kept.
	// 0 keeps them forever.
	RecordRetentionDays int `yaml:"record_retention_days"`

	// ViolationRetentionDays is how long violations are kept.
	// 0 keeps them forever.
	ViolationRetentionDays int `yaml:"violation_retention_days"`

	// HistoryRetentionDays is how long daily history records are kept.
	// 0 keeps them forever.
	HistoryRetentionDays int `yaml:"history_retention_days"`

	// PruneSchedule is a cron expression for the prune job.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// RollupSchedule is a cron expression for the daily rollup job,
	// which records the just-closed day.
	// Example: "5 0 * * *" (five past midnight)
	RollupSchedule string `yaml:"rollup_schedule"`
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RecordRetentionDays:    90,
		ViolationRetentionDays: 90,
		HistoryRetentionDays:   365,
		PruneSchedule:          "0 3 * * *",
		RollupSchedule:         "5 0 * * *",
	}
}

// Stores bundles the deletion surfaces the pruner operates on.
type Stores struct {
	Records    ledger.Store
	Violations budget.ViolationStore
	History    history.Store
}

// Result reports how many rows one pruning pass removed.
type Result struct {
	RecordsDeleted    int64
	ViolationsDeleted int64
	HistoryDeleted    int64
	Duration          time.Duration
}

// Pruner deletes data past its retention age.
type Pruner struct {
	stores Stores
	config *Config
	logger *slog.Logger
}

// NewPruner creates a retention pruner over the given stores.
func NewPruner(stores Stores, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		stores: stores,
		config: config,
		logger: slog.Default().With("component", "retention"),
	}
}

// Prune removes everything past its retention age. A failing store does
// not stop the remaining deletions; the first error is returned after
// all passes ran.
func (p *Pruner) Prune(ctx context.Context) (*Result, error) {
	start := time.Now()
	now := start.UTC()
	result := &Result{}
	var firstErr error

	if p.config.RecordRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -p.config.RecordRetentionDays)
		n, err := p.stores.Records.DeleteRecordsBefore(ctx, cutoff)
		if err != nil {
			p.logger.Error("cost record pruning failed", "error", err)
			firstErr = err
		}
		result.RecordsDeleted = n
	}

	if p.config.ViolationRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -p.config.ViolationRetentionDays)
		n, err := p.stores.Violations.DeleteViolationsBefore(ctx, cutoff)
		if err != nil {
			p.logger.Error("violation pruning failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		result.ViolationsDeleted = n
	}

	if p.config.HistoryRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -p.config.HistoryRetentionDays).Format("2006-01-02")
		n, err := p.stores.History.DeleteDailyBefore(ctx, cutoff)
		if err != nil {
			p.logger.Error("history pruning failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		result.HistoryDeleted = n
	}

	result.Duration = time.Since(start)
	p.logger.Info("retention pruning completed",
		"records_deleted", result.RecordsDeleted,
		"violations_deleted", result.ViolationsDeleted,
		"history_deleted", result.HistoryDeleted,
		"duration", result.Duration,
	)
	return result, firstErr
}
