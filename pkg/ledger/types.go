package ledger

import (
	"context"
	"time"
)

// Priority classifies a tracked operation by its actual cost relative to
// the configured per-operation limit.
type Priority string

const (
	// PriorityLow marks operations below 20% of the per-operation limit.
	PriorityLow Priority = "low"

	// PriorityMedium marks operations at or above 20% of the limit.
	PriorityMedium Priority = "medium"

	// PriorityHigh marks operations at or above 50% of the limit.
	PriorityHigh Priority = "high"

	// PriorityCritical marks operations at or above the limit itself.
	PriorityCritical Priority = "critical"
)

// Status is the terminal state of a tracked operation.
type Status string

const (
	// StatusDone marks an operation that completed successfully.
	StatusDone Status = "done"

	// StatusError marks an operation that failed.
	StatusError Status = "error"
)

// QueryCostRecord is one immutable ledger entry for a tracked operation.
type QueryCostRecord struct {
	// ID uniquely identifies the record (UUID v4).
	ID string `json:"id"`

	// Timestamp is when the operation was tracked.
	Timestamp time.Time `json:"timestamp"`

	// OperationType categorizes the operation (caller-defined).
	OperationType string `json:"operation_type"`

	// OperationHash is the SHA-256 of the operation descriptor, for
	// deduplication and correlation.
	OperationHash string `json:"operation_hash"`

	// OperationPreview is the first 100 characters of the descriptor.
	OperationPreview string `json:"operation_preview"`

	// EstimatedCostUSD is the projected cost at admission time.
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	// ActualCostUSD is the cost derived from actual resource consumption.
	ActualCostUSD float64 `json:"actual_cost_usd"`

	// CostDifferenceUSD is always ActualCostUSD - EstimatedCostUSD.
	CostDifferenceUSD float64 `json:"cost_difference_usd"`

	// DataProcessingCostUSD is the data-scan component of the actual cost.
	DataProcessingCostUSD float64 `json:"data_processing_cost_usd"`

	// ComputeCostUSD is the compute-time component of the actual cost.
	ComputeCostUSD float64 `json:"compute_cost_usd"`

	// ExecutionTimeMS is the wall-clock execution time in milliseconds.
	ExecutionTimeMS int64 `json:"execution_time_ms"`

	// ResourceBytes is the byte volume actually scanned.
	ResourceBytes int64 `json:"resource_bytes"`

	// ComputeSlotMS is the compute time consumed, in slot-milliseconds.
	ComputeSlotMS int64 `json:"compute_slot_ms"`

	// Status is done or error.
	Status Status `json:"status"`

	// ErrorMessage holds the failure message when Status is error.
	ErrorMessage string `json:"error_message,omitempty"`

	// Priority is derived from ActualCostUSD (see Priority).
	Priority Priority `json:"priority"`

	// Tags carry the operation type and priority for filtering.
	Tags []string `json:"tags,omitempty"`
}

// TypeStats aggregates records of a single operation type.
type TypeStats struct {
	Count        int     `json:"count"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgCostUSD   float64 `json:"avg_cost_usd"`
}

// PriorityStats aggregates records of a single priority class.
type PriorityStats struct {
	Count        int     `json:"count"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// Summary contains aggregate statistics over a window of ledger records.
type Summary struct {
	// WindowStart and WindowEnd bound the summarized period.
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	// TotalOperations is the number of records in the window.
	TotalOperations int `json:"total_operations"`

	// SucceededOperations and FailedOperations split by status.
	SucceededOperations int `json:"succeeded_operations"`
	FailedOperations    int `json:"failed_operations"`

	// TotalActualUSD, TotalEstimatedUSD, and TotalDifferenceUSD sum the
	// respective record fields.
	TotalActualUSD     float64 `json:"total_actual_usd"`
	TotalEstimatedUSD  float64 `json:"total_estimated_usd"`
	TotalDifferenceUSD float64 `json:"total_difference_usd"`

	// CostAccuracy is 1 - |sum of differences| / sum of estimates,
	// or 0 when nothing was estimated.
	CostAccuracy float64 `json:"cost_accuracy"`

	// AvgCostUSD is TotalActualUSD / TotalOperations (0 when empty).
	AvgCostUSD float64 `json:"avg_cost_usd"`

	// MaxCostUSD is the highest single actual cost in the window.
	MaxCostUSD float64 `json:"max_cost_usd"`

	// AvgExecutionTimeMS averages execution time across the window.
	AvgExecutionTimeMS float64 `json:"avg_execution_time_ms"`

	// TotalBytesProcessed and TotalSlotMS sum resource usage.
	TotalBytesProcessed int64 `json:"total_bytes_processed"`
	TotalSlotMS         int64 `json:"total_slot_ms"`

	// DataProcessingCostUSD and ComputeCostUSD sum the cost components.
	DataProcessingCostUSD float64 `json:"data_processing_cost_usd"`
	ComputeCostUSD        float64 `json:"compute_cost_usd"`

	// ByType breaks the window down per operation type.
	ByType map[string]TypeStats `json:"by_type"`

	// ByPriority breaks the window down per priority class.
	ByPriority map[Priority]PriorityStats `json:"by_priority"`
}

// Store is the persistence contract for ledger records. Implementations
// must be safe for concurrent use. Records are write-once; no update or
// single-record delete exists.
type Store interface {
	// AppendRecord persists a new record. Returns an error on failure;
	// the ledger is responsible for retaining unpersisted records.
	AppendRecord(ctx context.Context, record *QueryCostRecord) error

	// ListRecords returns records with from <= Timestamp < to, ordered by
	// timestamp ascending.
	ListRecords(ctx context.Context, from, to time.Time) ([]*QueryCostRecord, error)

	// DeleteRecordsBefore removes records older than the cutoff and
	// returns the number deleted.
	DeleteRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
