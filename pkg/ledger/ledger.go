package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/backend"
	"mercator-hq/saturn/pkg/pricing"
)

// operationPreviewLength caps the stored operation excerpt.
const operationPreviewLength = 100

// LimitSource supplies the per-operation cost limit used to derive
// record priority. The budget manager implements it.
type LimitSource interface {
	// PerOperationLimitUSD returns the current per-operation budget
	// limit. A non-positive value disables priority escalation.
	PerOperationLimitUSD() float64
}

// TrackRequest describes a completed operation to be recorded.
type TrackRequest struct {
	// Operation is the full operation descriptor (hashed and truncated
	// for storage, never stored whole).
	Operation string

	// OperationType categorizes the operation.
	OperationType string

	// EstimatedCostUSD is the admission-time projection, if any.
	EstimatedCostUSD float64

	// Result holds the observed resource consumption. Nil for failed
	// operations that never executed.
	Result *backend.ExecutionResult

	// Err is the execution error, if the operation failed.
	Err error
}

// Ledger is the append-only record keeper for operation costs.
//
// Persistence failures do not lose records: records that could not be
// written are retained in memory and retried on the next successful
// append. All methods are safe for concurrent use.
type Ledger struct {
	store  Store
	table  *pricing.Table
	limits LimitSource
	logger *slog.Logger

	mu      sync.Mutex
	pending []*QueryCostRecord
}

// New creates a Ledger backed by the given store and pricing table.
// limits may be nil, in which case all records are PriorityLow.
func New(store Store, table *pricing.Table, limits LimitSource) *Ledger {
	return &Ledger{
		store:  store,
		table:  table,
		limits: limits,
		logger: slog.Default().With("component", "ledger"),
	}
}

// Track records a completed operation and returns the stored record.
// A record is always produced, including for failed operations; a
// persistence failure is logged and the record is queued for retry
// rather than returned as an error.
func (l *Ledger) Track(ctx context.Context, req TrackRequest) *QueryCostRecord {
	now := time.Now().UTC()
	rec := &QueryCostRecord{
		ID:               uuid.NewString(),
		Timestamp:        now,
		OperationType:    req.OperationType,
		OperationHash:    hashOperation(req.Operation),
		OperationPreview: truncate(req.Operation, operationPreviewLength),
		EstimatedCostUSD: req.EstimatedCostUSD,
		Status:           StatusDone,
	}

	if req.Err != nil {
		rec.Status = StatusError
		rec.ErrorMessage = req.Err.Error()
	}
	if req.Result != nil {
		rec.ResourceBytes = req.Result.BytesProcessed
		rec.ComputeSlotMS = req.Result.SlotMilliseconds
		rec.ExecutionTimeMS = req.Result.Duration.Milliseconds()
		rec.DataProcessingCostUSD = l.table.DataCost(req.Result.BytesProcessed)
		rec.ComputeCostUSD = l.table.ComputeCost(req.Result.SlotMilliseconds)
		rec.ActualCostUSD = rec.DataProcessingCostUSD + rec.ComputeCostUSD
	}
	rec.CostDifferenceUSD = rec.ActualCostUSD - rec.EstimatedCostUSD
	rec.Priority = l.derivePriority(rec.ActualCostUSD)
	rec.Tags = []string{req.OperationType, string(rec.Priority)}

	l.persist(ctx, rec)
	return rec
}

// persist appends the record, draining any previously failed records
// first. A failed append queues the record for the next attempt.
func (l *Ledger) persist(ctx context.Context, rec *QueryCostRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Retry queued records before the new one so timestamps stay ordered.
	for len(l.pending) > 0 {
		head := l.pending[0]
		if err := l.store.AppendRecord(ctx, head); err != nil {
			l.logger.Warn("retry of pending record failed",
				"record_id", head.ID,
				"pending", len(l.pending),
				"error", err)
			l.pending = append(l.pending, rec)
			return
		}
		l.pending = l.pending[1:]
	}

	if err := l.store.AppendRecord(ctx, rec); err != nil {
		l.logger.Warn("record append failed, queued for retry",
			"record_id", rec.ID,
			"error", err)
		l.pending = append(l.pending, rec)
		return
	}

	l.logger.Debug("record appended",
		"record_id", rec.ID,
		"operation_type", rec.OperationType,
		"actual_cost_usd", rec.ActualCostUSD,
		"priority", rec.Priority)
}

// derivePriority classifies an actual cost against the per-operation
// limit: >=100% critical, >=50% high, >=20% medium, else low.
func (l *Ledger) derivePriority(actualUSD float64) Priority {
	if l.limits == nil {
		return PriorityLow
	}
	limit := l.limits.PerOperationLimitUSD()
	if limit <= 0 {
		return PriorityLow
	}
	ratio := actualUSD / limit
	switch {
	case ratio >= 1.0:
		return PriorityCritical
	case ratio >= 0.5:
		return PriorityHigh
	case ratio >= 0.2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// List returns all records in [from, to), including records still
// awaiting persistence, ordered by timestamp ascending.
func (l *Ledger) List(ctx context.Context, from, to time.Time) ([]*QueryCostRecord, error) {
	stored, err := l.store.ListRecords(ctx, from, to)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, rec := range l.pending {
		if !rec.Timestamp.Before(from) && rec.Timestamp.Before(to) {
			stored = append(stored, rec)
		}
	}
	l.mu.Unlock()

	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Timestamp.Before(stored[j].Timestamp)
	})
	return stored, nil
}

// Summary aggregates the trailing windowDays days ending now.
func (l *Ledger) Summary(ctx context.Context, windowDays int) (*Summary, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -windowDays)
	return l.SummaryRange(ctx, from, to)
}

// SummaryRange aggregates records with from <= Timestamp < to.
func (l *Ledger) SummaryRange(ctx context.Context, from, to time.Time) (*Summary, error) {
	records, err := l.List(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		WindowStart: from,
		WindowEnd:   to,
		ByType:      make(map[string]TypeStats),
		ByPriority:  make(map[Priority]PriorityStats),
	}

	var totalExecMS int64
	for _, rec := range records {
		sum.TotalOperations++
		if rec.Status == StatusError {
			sum.FailedOperations++
		} else {
			sum.SucceededOperations++
		}
		sum.TotalActualUSD += rec.ActualCostUSD
		sum.TotalEstimatedUSD += rec.EstimatedCostUSD
		sum.TotalDifferenceUSD += rec.CostDifferenceUSD
		sum.TotalBytesProcessed += rec.ResourceBytes
		sum.TotalSlotMS += rec.ComputeSlotMS
		sum.DataProcessingCostUSD += rec.DataProcessingCostUSD
		sum.ComputeCostUSD += rec.ComputeCostUSD
		totalExecMS += rec.ExecutionTimeMS
		if rec.ActualCostUSD > sum.MaxCostUSD {
			sum.MaxCostUSD = rec.ActualCostUSD
		}

		ts := sum.ByType[rec.OperationType]
		ts.Count++
		ts.TotalCostUSD += rec.ActualCostUSD
		sum.ByType[rec.OperationType] = ts

		ps := sum.ByPriority[rec.Priority]
		ps.Count++
		ps.TotalCostUSD += rec.ActualCostUSD
		sum.ByPriority[rec.Priority] = ps
	}

	if sum.TotalOperations > 0 {
		sum.AvgCostUSD = sum.TotalActualUSD / float64(sum.TotalOperations)
		sum.AvgExecutionTimeMS = float64(totalExecMS) / float64(sum.TotalOperations)
	}
	for opType, ts := range sum.ByType {
		ts.AvgCostUSD = ts.TotalCostUSD / float64(ts.Count)
		sum.ByType[opType] = ts
	}
	if sum.TotalEstimatedUSD > 0 {
		acc := 1.0 - abs(sum.TotalDifferenceUSD)/sum.TotalEstimatedUSD
		if acc < 0 {
			acc = 0
		}
		sum.CostAccuracy = acc
	}
	return sum, nil
}

// Expensive returns the limit most expensive records of the trailing
// windowDays days, ordered by actual cost descending. Ties go to the
// earlier record.
func (l *Ledger) Expensive(ctx context.Context, limit, windowDays int) ([]*QueryCostRecord, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -windowDays)
	records, err := l.List(ctx, from, to)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ActualCostUSD != records[j].ActualCostUSD {
			return records[i].ActualCostUSD > records[j].ActualCostUSD
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// PendingCount reports how many records are awaiting a retry.
func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func hashOperation(op string) string {
	h := sha256.Sum256([]byte(op))
	return hex.EncodeToString(h[:])
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
