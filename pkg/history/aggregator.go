package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/ledger"
)

// dateLayout is the canonical daily record key format.
const dateLayout = "2006-01-02"

// LedgerSource supplies aggregated ledger statistics for a time range.
// The cost ledger implements it.
type LedgerSource interface {
	SummaryRange(ctx context.Context, from, to time.Time) (*ledger.Summary, error)
}

// BudgetSource supplies the current daily budget limit. The budget
// rule manager implements it.
type BudgetSource interface {
	DailyLimitUSD() float64
}

// Aggregator writes daily history records and serves calendar-bucketed
// views over them. Safe for concurrent use; daily writes are idempotent
// per date.
type Aggregator struct {
	store  Store
	ledger LedgerSource
	budget BudgetSource
	logger *slog.Logger
}

// NewAggregator creates an Aggregator over the given store and sources.
func NewAggregator(store Store, ledgerSrc LedgerSource, budgetSrc BudgetSource) *Aggregator {
	return &Aggregator{
		store:  store,
		ledger: ledgerSrc,
		budget: budgetSrc,
		logger: slog.Default().With("component", "history"),
	}
}

// RecordDaily folds the given day's ledger activity and budget state
// into one daily record. Re-recording a date replaces the prior record,
// so the rollup can be re-run safely.
func (a *Aggregator) RecordDaily(ctx context.Context, day time.Time) (*CostHistoryRecord, error) {
	day = day.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	sum, err := a.ledger.SummaryRange(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("summarizing ledger for %s: %w", dayStart.Format(dateLayout), err)
	}

	rec := &CostHistoryRecord{
		ID:                    uuid.NewString(),
		Date:                  dayStart.Format(dateLayout),
		Timestamp:             time.Now().UTC(),
		TotalCostUSD:          sum.TotalActualUSD,
		DataProcessingCostUSD: sum.DataProcessingCostUSD,
		ComputeCostUSD:        sum.ComputeCostUSD,
		BytesProcessed:        sum.TotalBytesProcessed,
		SlotMS:                sum.TotalSlotMS,
		TotalQueries:          sum.TotalOperations,
		SucceededQueries:      sum.SucceededOperations,
		FailedQueries:         sum.FailedOperations,
		AvgQueryCostUSD:       sum.AvgCostUSD,
		MaxQueryCostUSD:       sum.MaxCostUSD,
	}

	if limit := a.budget.DailyLimitUSD(); limit > 0 {
		rec.BudgetLimitUSD = limit
		rec.BudgetUsedUSD = sum.TotalActualUSD
		rec.BudgetRemainingUSD = limit - sum.TotalActualUSD
		rec.BudgetUtilizationPct = sum.TotalActualUSD / limit * 100
	}

	if err := a.store.SaveDaily(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving daily record for %s: %w", rec.Date, err)
	}

	a.logger.Info("daily cost recorded",
		"date", rec.Date,
		"total_cost_usd", rec.TotalCostUSD,
		"queries", rec.TotalQueries)
	return rec, nil
}

// Query returns history records between start and end (inclusive) at
// the requested granularity. Non-daily granularities are derived from
// daily records by calendar bucketing.
func (a *Aggregator) Query(ctx context.Context, start, end time.Time, g Granularity) ([]*CostHistoryRecord, error) {
	daily, err := a.store.ListDaily(ctx, start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing daily records: %w", err)
	}
	if g == GranularityDaily {
		return daily, nil
	}
	return groupByBucket(daily, g)
}

// groupByBucket folds daily records into calendar buckets and sums all
// additive fields. Averages are recomputed from bucket totals, never
// averaged across days.
func groupByBucket(daily []*CostHistoryRecord, g Granularity) ([]*CostHistoryRecord, error) {
	buckets := make(map[string]*CostHistoryRecord)
	for _, rec := range daily {
		key, err := bucketKey(rec.Date, g)
		if err != nil {
			return nil, err
		}
		agg, ok := buckets[key]
		if !ok {
			agg = &CostHistoryRecord{Date: key}
			buckets[key] = agg
		}
		agg.TotalCostUSD += rec.TotalCostUSD
		agg.DataProcessingCostUSD += rec.DataProcessingCostUSD
		agg.ComputeCostUSD += rec.ComputeCostUSD
		agg.BytesProcessed += rec.BytesProcessed
		agg.SlotMS += rec.SlotMS
		agg.TotalQueries += rec.TotalQueries
		agg.SucceededQueries += rec.SucceededQueries
		agg.FailedQueries += rec.FailedQueries
		agg.BudgetLimitUSD += rec.BudgetLimitUSD
		agg.BudgetUsedUSD += rec.BudgetUsedUSD
		if rec.MaxQueryCostUSD > agg.MaxQueryCostUSD {
			agg.MaxQueryCostUSD = rec.MaxQueryCostUSD
		}
		if rec.Timestamp.After(agg.Timestamp) {
			agg.Timestamp = rec.Timestamp
		}
	}

	out := make([]*CostHistoryRecord, 0, len(buckets))
	for _, agg := range buckets {
		if agg.TotalQueries > 0 {
			agg.AvgQueryCostUSD = agg.TotalCostUSD / float64(agg.TotalQueries)
		}
		agg.BudgetRemainingUSD = agg.BudgetLimitUSD - agg.BudgetUsedUSD
		if agg.BudgetLimitUSD > 0 {
			agg.BudgetUtilizationPct = agg.BudgetUsedUSD / agg.BudgetLimitUSD * 100
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// bucketKey maps a daily date to its calendar bucket: the Monday date
// for weeks, YYYY-MM for months, YYYY-Qn for quarters, YYYY for years.
func bucketKey(date string, g Granularity) (string, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parsing record date %q: %w", date, err)
	}
	switch g {
	case GranularityWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset).Format(dateLayout), nil
	case GranularityMonthly:
		return day.Format("2006-01"), nil
	case GranularityQuarterly:
		quarter := (int(day.Month())-1)/3 + 1
		return fmt.Sprintf("%04d-Q%d", day.Year(), quarter), nil
	case GranularityYearly:
		return day.Format("2006"), nil
	default:
		return "", fmt.Errorf("unknown granularity %q", g)
	}
}
