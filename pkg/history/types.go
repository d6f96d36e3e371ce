package history

import (
	"context"
	"time"
)

// Granularity selects the calendar bucketing for history queries.
type Granularity string

const (
	GranularityDaily     Granularity = "daily"
	GranularityWeekly    Granularity = "weekly"
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
	GranularityYearly    Granularity = "yearly"
)

// CostHistoryRecord is one day of aggregated spending, or a derived
// calendar aggregate of such days.
type CostHistoryRecord struct {
	// ID uniquely identifies a daily record. Empty on derived
	// aggregates.
	ID string `json:"id,omitempty"`

	// Date is the day in YYYY-MM-DD form, or the bucket key for
	// derived aggregates (Monday date, YYYY-MM, YYYY-Qn, YYYY).
	Date string `json:"date"`

	// Timestamp is when the record was written.
	Timestamp time.Time `json:"timestamp"`

	// TotalCostUSD is the day's total actual spend.
	TotalCostUSD float64 `json:"total_cost_usd"`

	// DataProcessingCostUSD and ComputeCostUSD split the total by
	// pricing component.
	DataProcessingCostUSD float64 `json:"data_processing_cost_usd"`
	ComputeCostUSD        float64 `json:"compute_cost_usd"`

	// BytesProcessed and SlotMS sum resource usage.
	BytesProcessed int64 `json:"bytes_processed"`
	SlotMS         int64 `json:"slot_ms"`

	// TotalQueries, SucceededQueries, and FailedQueries count tracked
	// operations.
	TotalQueries     int `json:"total_queries"`
	SucceededQueries int `json:"succeeded_queries"`
	FailedQueries    int `json:"failed_queries"`

	// AvgQueryCostUSD is TotalCostUSD / TotalQueries (0 when no
	// queries ran); MaxQueryCostUSD is the day's most expensive single
	// operation.
	AvgQueryCostUSD float64 `json:"avg_query_cost_usd"`
	MaxQueryCostUSD float64 `json:"max_query_cost_usd"`

	// BudgetLimitUSD, BudgetUsedUSD, BudgetRemainingUSD, and
	// BudgetUtilizationPct snapshot daily budget state.
	BudgetLimitUSD       float64 `json:"budget_limit_usd"`
	BudgetUsedUSD        float64 `json:"budget_used_usd"`
	BudgetRemainingUSD   float64 `json:"budget_remaining_usd"`
	BudgetUtilizationPct float64 `json:"budget_utilization_pct"`
}

// TrendDirection classifies period-over-period cost movement.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// CostTrend describes one period-over-period transition. Recomputed on
// each analysis, never persisted.
type CostTrend struct {
	// Period is the bucket key of the later period.
	Period string `json:"period"`

	// TotalCostUSD is the later period's total spend.
	TotalCostUSD float64 `json:"total_cost_usd"`

	// AvgDailyCostUSD spreads the total across the period length.
	AvgDailyCostUSD float64 `json:"avg_daily_cost_usd"`

	// CostChangePercent is the change from the prior period, 0 when
	// the prior period had no spend.
	CostChangePercent float64 `json:"cost_change_percent"`

	// Direction is stable when |CostChangePercent| <= 5.
	Direction TrendDirection `json:"direction"`

	// PeakUSD and LowUSD bound the period's spend.
	PeakUSD float64 `json:"peak_usd"`
	LowUSD  float64 `json:"low_usd"`

	// ForecastNextPeriodUSD extrapolates the observed change forward.
	ForecastNextPeriodUSD float64 `json:"forecast_next_period_usd"`
}

// AnomalyKind distinguishes unusually high from unusually low days.
type AnomalyKind string

const (
	AnomalySpike AnomalyKind = "spike"
	AnomalyDrop  AnomalyKind = "drop"
)

// AnomalySeverity grades an anomaly by its z-score.
type AnomalySeverity string

const (
	SeverityMedium   AnomalySeverity = "medium"
	SeverityHigh     AnomalySeverity = "high"
	SeverityCritical AnomalySeverity = "critical"
)

// CostAnomaly flags one daily outlier. Recomputed per analysis window,
// never persisted.
type CostAnomaly struct {
	ID                string          `json:"id"`
	Date              string          `json:"date"`
	Timestamp         time.Time       `json:"timestamp"`
	Kind              AnomalyKind     `json:"kind"`
	Severity          AnomalySeverity `json:"severity"`
	CostDifferenceUSD float64         `json:"cost_difference_usd"`
	PercentageChange  float64         `json:"percentage_change"`
	ExpectedCostUSD   float64         `json:"expected_cost_usd"`
	ActualCostUSD     float64         `json:"actual_cost_usd"`

	// ConfidenceScore is min(z/3, 1).
	ConfidenceScore float64 `json:"confidence_score"`
}

// Store persists daily history records. Only daily granularity is ever
// stored; derived aggregates are recomputed from it.
type Store interface {
	// SaveDaily inserts or replaces the record for its date.
	SaveDaily(ctx context.Context, record *CostHistoryRecord) error

	// ListDaily returns daily records with startDate <= Date <= endDate
	// (YYYY-MM-DD), ordered by date ascending.
	ListDaily(ctx context.Context, startDate, endDate string) ([]*CostHistoryRecord, error)

	// DeleteDailyBefore removes records dated before cutoffDate and
	// returns the number deleted.
	DeleteDailyBefore(ctx context.Context, cutoffDate string) (int64, error)
}
