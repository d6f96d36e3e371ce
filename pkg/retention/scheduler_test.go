package retention

import (
	"context"
	"testing"

	"mercator-hq/saturn/pkg/history"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/pricing"
	"mercator-hq/saturn/pkg/store"
)

type fixedLimit float64

func (f fixedLimit) DailyLimitUSD() float64 { return float64(f) }

func testScheduler(t *testing.T, cfg *Config) *Scheduler {
	t.Helper()
	mem := store.NewMemory()
	pruner := NewPruner(Stores{Records: mem, Violations: mem, History: mem}, cfg)
	led := ledger.New(mem, pricing.NewTable(pricing.DefaultRates()), nil)
	agg := history.NewAggregator(mem, led, fixedLimit(100))
	return NewScheduler(pruner, agg)
}

func TestSchedulerStartAndStop(t *testing.T) {
	s := testScheduler(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting twice is a no-op.
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	s.Stop()
	s.Stop()
}

func TestSchedulerRejectsBadSchedules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RollupSchedule = "not a cron expression"
	s := testScheduler(t, cfg)

	if err := s.Start(context.Background()); err == nil {
		t.Error("Start should reject an invalid rollup schedule")
		s.Stop()
	}

	cfg = DefaultConfig()
	cfg.PruneSchedule = "61 25 * * *"
	s = testScheduler(t, cfg)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start should reject an invalid prune schedule")
		s.Stop()
	}
}

func TestSchedulerEmptySchedulesDisableJobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PruneSchedule = ""
	cfg.RollupSchedule = ""
	s := testScheduler(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start with empty schedules: %v", err)
	}
	s.Stop()
}
