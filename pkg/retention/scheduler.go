package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/saturn/pkg/history"
)

// Scheduler runs the daily rollup and the retention prune on cron
// schedules. Both jobs stop when the start context is canceled.
type Scheduler struct {
	pruner     *Pruner
	aggregator *history.Aggregator
	cron       *cron.Cron
	mu         sync.Mutex
	logger     *slog.Logger
	running    bool
}

// NewScheduler creates a scheduler over the given pruner and history
// aggregator.
func NewScheduler(pruner *Pruner, aggregator *history.Aggregator) *Scheduler {
	return &Scheduler{
		pruner:     pruner,
		aggregator: aggregator,
		cron:       cron.New(),
		logger:     slog.Default().With("component", "retention.scheduler"),
	}
}

// Start registers the rollup and prune jobs and begins running them.
// An empty schedule disables its job. The scheduler stops itself when
// ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if schedule := s.pruner.config.RollupSchedule; schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("invalid rollup schedule %q: %w", schedule, err)
		}
		if _, err := s.cron.AddFunc(schedule, func() { s.runRollup(ctx) }); err != nil {
			return fmt.Errorf("scheduling rollup: %w", err)
		}
	} else {
		s.logger.Info("rollup schedule not configured, skipping")
	}

	if schedule := s.pruner.config.PruneSchedule; schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
		}
		if _, err := s.cron.AddFunc(schedule, func() { s.runPrune(ctx) }); err != nil {
			return fmt.Errorf("scheduling prune: %w", err)
		}
	} else {
		s.logger.Info("prune schedule not configured, skipping")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"rollup_schedule", s.pruner.config.RollupSchedule,
		"prune_schedule", s.pruner.config.PruneSchedule,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the scheduled jobs, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// runRollup records the just-closed day.
func (s *Scheduler) runRollup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if _, err := s.aggregator.RecordDaily(ctx, yesterday); err != nil {
		s.logger.Error("daily rollup failed",
			"date", yesterday.Format("2006-01-02"),
			"error", err)
	}
}

// runPrune runs one pruning pass.
func (s *Scheduler) runPrune(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.pruner.Prune(ctx); err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
	}
}
