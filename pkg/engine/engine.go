package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/saturn/pkg/backend"
	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/estimator"
	"mercator-hq/saturn/pkg/history"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/pricing"
)

// Config controls engine assembly.
type Config struct {
	// DailyLimitUSD seeds the default daily budget rule when the rule
	// store is empty.
	DailyLimitUSD float64

	// PerOperationLimitUSD seeds the default per-operation rule.
	PerOperationLimitUSD float64

	// AllowUnestimated admits operations whose cost estimate failed.
	// Off by default: unknown cost denies admission rather than
	// bypassing every limit as zero would.
	AllowUnestimated bool
}

// Stores bundles the persistence backends the engine needs. A single
// value (such as *store.Memory or *store.SQLite) typically satisfies
// all of them.
type Stores struct {
	Rules      budget.RuleStore
	Violations budget.ViolationStore
	Records    ledger.Store
	History    history.Store
}

// Admission is the outcome of a pre-execution check.
type Admission struct {
	// Decision is the budget verdict.
	Decision budget.Decision

	// Estimate is the projected cost, nil when estimation failed.
	Estimate *estimator.CostEstimate
}

// TrackRequest reports a finished (or failed) operation to the engine.
type TrackRequest struct {
	// Operation is the full operation descriptor.
	Operation string

	// OperationType categorizes the operation.
	OperationType string

	// Estimate is the admission-time estimate, nil when there was
	// none. Its projected cost is the reservation to release.
	Estimate *estimator.CostEstimate

	// Result holds observed resource consumption, nil for operations
	// that never executed.
	Result *backend.ExecutionResult

	// Err is the execution error, if any.
	Err error
}

// TrackResult is the outcome of tracking one operation.
type TrackResult struct {
	// Record is the appended ledger entry.
	Record *ledger.QueryCostRecord

	// Violations lists rule breaches detected after settling.
	Violations []*budget.Violation
}

// Engine is the cost-governance facade.
type Engine struct {
	config     Config
	estimator  *estimator.Estimator
	ledger     *ledger.Ledger
	rules      *budget.Manager
	violations *budget.ViolationLog
	enforcer   *budget.Enforcer
	aggregator *history.Aggregator
	metrics    *Metrics
	logger     *slog.Logger
}

// New assembles an engine from a backend client, a pricing table, and
// persistence stores. Default budget rules are installed when the rule
// store is empty, and the current day's settled spend is replayed from
// the cost ledger.
func New(ctx context.Context, cfg Config, client backend.Client, table *pricing.Table, stores Stores, registry *prometheus.Registry) (*Engine, error) {
	rules := budget.NewManager(stores.Rules)
	if err := rules.Load(ctx, cfg.DailyLimitUSD, cfg.PerOperationLimitUSD); err != nil {
		return nil, err
	}

	violations := budget.NewViolationLog(stores.Violations)
	violations.Load(ctx, time.Now().UTC().AddDate(0, 0, -90))

	tracker := budget.NewSpendTracker()
	led := ledger.New(stores.Records, table, rules)

	e := &Engine{
		config:     cfg,
		estimator:  estimator.New(client, table),
		ledger:     led,
		rules:      rules,
		violations: violations,
		enforcer:   budget.NewEnforcer(rules, tracker, violations),
		aggregator: history.NewAggregator(stores.History, led, rules),
		metrics:    NewMetrics(registry),
		logger:     slog.Default().With("component", "engine"),
	}

	if err := e.replaySpend(ctx, tracker); err != nil {
		return nil, err
	}
	return e, nil
}

// replaySpend seeds the spend tracker with this month's settled costs
// so cumulative limits survive restarts.
func (e *Engine) replaySpend(ctx context.Context, tracker *budget.SpendTracker) error {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	// The weekly window can begin in the prior month.
	from := monthStart.AddDate(0, 0, -7)

	records, err := e.ledger.List(ctx, from, now)
	if err != nil {
		e.logger.Warn("spend replay failed, starting from zero", "error", err)
		return nil
	}
	var total float64
	for _, rec := range records {
		tracker.AddSettled(now, rec.Timestamp, rec.ActualCostUSD)
		total += rec.ActualCostUSD
	}
	if len(records) > 0 {
		e.logger.Info("settled spend replayed",
			"records", len(records),
			"total_usd", total)
	}
	return nil
}

// EstimateCost projects the cost of an operation via a backend dry run.
func (e *Engine) EstimateCost(ctx context.Context, operation string) (*estimator.CostEstimate, error) {
	est, err := e.estimator.Estimate(ctx, operation)
	if err != nil {
		e.metrics.estimationFailures.Inc()
		return nil, err
	}
	return est, nil
}

// CanExecute estimates the operation's cost and checks it against the
// budget rules. Estimation failure denies admission unless
// AllowUnestimated is set, in which case the operation is checked
// against cumulative limits with a zero projection.
func (e *Engine) CanExecute(ctx context.Context, operation string) Admission {
	now := time.Now().UTC()

	est, err := e.EstimateCost(ctx, operation)
	if err != nil {
		if !e.config.AllowUnestimated {
			decision := budget.Decision{
				Allowed: false,
				Action:  budget.ActionBlock,
				Message: "cost estimation failed; operations with unknown cost are rejected",
			}
			e.metrics.admissions.WithLabelValues(string(decision.Action)).Inc()
			return Admission{Decision: decision}
		}
		decision := e.enforcer.CanExecute(now, 0)
		e.metrics.admissions.WithLabelValues(string(decision.Action)).Inc()
		return Admission{Decision: decision}
	}

	decision := e.enforcer.CanExecute(now, est.ProjectedCostUSD)
	e.metrics.admissions.WithLabelValues(string(decision.Action)).Inc()
	return Admission{Decision: decision, Estimate: est}
}

// CanExecuteCost checks an externally supplied projected cost against
// the budget rules, bypassing estimation.
func (e *Engine) CanExecuteCost(projectedUSD float64) budget.Decision {
	decision := e.enforcer.CanExecute(time.Now().UTC(), projectedUSD)
	e.metrics.admissions.WithLabelValues(string(decision.Action)).Inc()
	return decision
}

// Track records a finished operation: it appends the ledger entry,
// settles the operation's spend, re-enforces all rules against the new
// cumulative totals, and records any violations.
func (e *Engine) Track(ctx context.Context, req TrackRequest) *TrackResult {
	now := time.Now().UTC()

	var estimated float64
	if req.Estimate != nil {
		estimated = req.Estimate.ProjectedCostUSD
	}

	rec := e.ledger.Track(ctx, ledger.TrackRequest{
		Operation:        req.Operation,
		OperationType:    req.OperationType,
		EstimatedCostUSD: estimated,
		Result:           req.Result,
		Err:              req.Err,
	})

	e.enforcer.Settle(now, estimated, rec.ActualCostUSD)
	violations := e.enforcer.Enforce(ctx, now, req.OperationType, rec.ActualCostUSD)

	e.metrics.operations.WithLabelValues(req.OperationType, string(rec.Status)).Inc()
	e.metrics.operationCost.WithLabelValues(req.OperationType).Observe(rec.ActualCostUSD)
	for _, v := range violations {
		e.metrics.violations.WithLabelValues(string(v.Kind), string(v.Action)).Inc()
	}
	e.publishBudgetGauges(now)

	return &TrackResult{Record: rec, Violations: violations}
}

// publishBudgetGauges refreshes the spend and utilization gauges.
func (e *Engine) publishBudgetGauges(now time.Time) {
	status := e.enforcer.Status(now)
	for scope, amount := range status.CurrentCosts {
		e.metrics.spend.WithLabelValues(string(scope)).Set(amount)
	}
	for _, rs := range status.Rules {
		e.metrics.utilization.WithLabelValues(rs.RuleName).Set(rs.PercentageUsed)
	}
}

// GetBudgetStatus evaluates every enabled rule against settled spend.
func (e *Engine) GetBudgetStatus() *budget.Status {
	return e.enforcer.Status(time.Now().UTC())
}

// Enforce re-evaluates all enabled rules against settled spend without
// tracking a new operation.
func (e *Engine) Enforce(ctx context.Context, operationType string, actualUSD float64) []*budget.Violation {
	return e.enforcer.Enforce(ctx, time.Now().UTC(), operationType, actualUSD)
}

// Summary aggregates the trailing windowDays days of tracked
// operations.
func (e *Engine) Summary(ctx context.Context, windowDays int) (*ledger.Summary, error) {
	return e.ledger.Summary(ctx, windowDays)
}

// ExpensiveOperations returns the top records by actual cost.
func (e *Engine) ExpensiveOperations(ctx context.Context, limit, windowDays int) ([]*ledger.QueryCostRecord, error) {
	return e.ledger.Expensive(ctx, limit, windowDays)
}

// Violations lists recorded rule breaches; resolved filters by
// resolution state when non-nil.
func (e *Engine) Violations(windowDays int, resolved *bool) []*budget.Violation {
	return e.violations.List(windowDays, resolved)
}

// ResolveViolation marks a violation resolved.
func (e *Engine) ResolveViolation(ctx context.Context, id string) error {
	return e.violations.Resolve(ctx, id)
}

// ViolationSummary aggregates violations over the trailing window.
func (e *Engine) ViolationSummary(windowDays int) *budget.ViolationSummary {
	return e.violations.Summarize(windowDays)
}

// RecordDaily folds one day of activity into the cost history.
func (e *Engine) RecordDaily(ctx context.Context, day time.Time) (*history.CostHistoryRecord, error) {
	return e.aggregator.RecordDaily(ctx, day)
}

// History queries cost history at the requested granularity.
func (e *Engine) History(ctx context.Context, start, end time.Time, g history.Granularity) ([]*history.CostHistoryRecord, error) {
	return e.aggregator.Query(ctx, start, end, g)
}

// AnalyzeTrends derives weekly trends over the trailing window.
func (e *Engine) AnalyzeTrends(ctx context.Context, days int) ([]*history.CostTrend, error) {
	return e.aggregator.AnalyzeTrends(ctx, days, history.GranularityWeekly)
}

// DetectAnomalies flags anomalous days in the trailing window.
func (e *Engine) DetectAnomalies(ctx context.Context, days int) ([]*history.CostAnomaly, error) {
	return e.aggregator.DetectAnomalies(ctx, days)
}

// Rules exposes the budget rule manager for rule administration.
func (e *Engine) Rules() *budget.Manager {
	return e.rules
}

// Aggregator exposes the history aggregator, used by the retention
// scheduler for the daily rollup.
func (e *Engine) Aggregator() *history.Aggregator {
	return e.aggregator
}
