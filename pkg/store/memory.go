package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/history"
	"mercator-hq/saturn/pkg/ledger"
)

// Memory is an in-process backend for all engine stores. Values are
// copied on write and read, so callers cannot mutate stored state
// through retained pointers.
type Memory struct {
	mu         sync.RWMutex
	rules      map[string]budget.Rule
	violations map[string]budget.Violation
	records    []ledger.QueryCostRecord
	daily      map[string]history.CostHistoryRecord
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		rules:      make(map[string]budget.Rule),
		violations: make(map[string]budget.Violation),
		daily:      make(map[string]history.CostHistoryRecord),
	}
}

// ============================================================================
// budget.RuleStore
// ============================================================================

// SaveRule inserts or replaces a rule by ID.
func (m *Memory) SaveRule(_ context.Context, rule *budget.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = *rule
	return nil
}

// DeleteRule removes a rule. Unknown IDs are not an error.
func (m *Memory) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, id)
	return nil
}

// ListRules returns all stored rules.
func (m *Memory) ListRules(_ context.Context) ([]*budget.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*budget.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		rule := r
		out = append(out, &rule)
	}
	return out, nil
}

// ============================================================================
// budget.ViolationStore
// ============================================================================

// SaveViolation inserts or replaces a violation by ID.
func (m *Memory) SaveViolation(_ context.Context, v *budget.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations[v.ID] = *v
	return nil
}

// ListViolations returns violations with Timestamp >= since.
func (m *Memory) ListViolations(_ context.Context, since time.Time) ([]*budget.Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*budget.Violation
	for _, v := range m.violations {
		if !v.Timestamp.Before(since) {
			violation := v
			out = append(out, &violation)
		}
	}
	return out, nil
}

// DeleteViolationsBefore removes violations older than the cutoff.
func (m *Memory) DeleteViolationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, v := range m.violations {
		if v.Timestamp.Before(cutoff) {
			delete(m.violations, id)
			deleted++
		}
	}
	return deleted, nil
}

// ============================================================================
// ledger.Store
// ============================================================================

// AppendRecord persists a new ledger record.
func (m *Memory) AppendRecord(_ context.Context, record *ledger.QueryCostRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

// ListRecords returns records with from <= Timestamp < to, ordered by
// timestamp ascending.
func (m *Memory) ListRecords(_ context.Context, from, to time.Time) ([]*ledger.QueryCostRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ledger.QueryCostRecord
	for _, r := range m.records {
		if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			record := r
			out = append(out, &record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// DeleteRecordsBefore removes records older than the cutoff.
func (m *Memory) DeleteRecordsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	var deleted int64
	for _, r := range m.records {
		if r.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

// ============================================================================
// history.Store
// ============================================================================

// SaveDaily inserts or replaces the daily record for its date.
func (m *Memory) SaveDaily(_ context.Context, record *history.CostHistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily[record.Date] = *record
	return nil
}

// ListDaily returns daily records within the inclusive date range,
// ordered by date ascending.
func (m *Memory) ListDaily(_ context.Context, startDate, endDate string) ([]*history.CostHistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*history.CostHistoryRecord
	for _, r := range m.daily {
		if r.Date >= startDate && r.Date <= endDate {
			record := r
			out = append(out, &record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// DeleteDailyBefore removes daily records dated before the cutoff.
func (m *Memory) DeleteDailyBefore(_ context.Context, cutoffDate string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for date := range m.daily {
		if date < cutoffDate {
			delete(m.daily, date)
			deleted++
		}
	}
	return deleted, nil
}
