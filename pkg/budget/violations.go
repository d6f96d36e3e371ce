package budget

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ViolationLog records rule breaches and their resolution state. The
// in-memory slice is authoritative for the process lifetime; writes go
// through to the store with failed writes retried before the next
// mutation.
type ViolationLog struct {
	store  ViolationStore
	logger *slog.Logger

	mu         sync.RWMutex
	violations map[string]*Violation
	pending    []*Violation
}

// NewViolationLog creates a ViolationLog backed by the given store.
func NewViolationLog(store ViolationStore) *ViolationLog {
	return &ViolationLog{
		store:      store,
		logger:     slog.Default().With("component", "budget"),
		violations: make(map[string]*Violation),
	}
}

// Load reads recent violations from the store. A read failure yields an
// empty log, not an error.
func (l *ViolationLog) Load(ctx context.Context, since time.Time) {
	violations, err := l.store.ListViolations(ctx, since)
	if err != nil {
		l.logger.Warn("violation load failed, starting empty", "error", err)
		return
	}
	l.mu.Lock()
	for _, v := range violations {
		l.violations[v.ID] = v
	}
	l.mu.Unlock()
}

// Record appends a violation, assigning an ID and timestamp when unset,
// and returns it.
func (l *ViolationLog) Record(ctx context.Context, v *Violation) *Violation {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.violations[v.ID] = v
	l.persistLocked(ctx, v)

	l.logger.Warn("budget violation recorded",
		"violation_id", v.ID,
		"rule_id", v.RuleID,
		"kind", v.Kind,
		"action", v.Action,
		"percentage_used", v.PercentageUsed)
	return v
}

// List returns violations from the trailing windowDays days, newest
// first. resolved filters by resolution state when non-nil.
func (l *ViolationLog) List(windowDays int, resolved *bool) []*Violation {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	l.mu.RLock()
	out := make([]*Violation, 0, len(l.violations))
	for _, v := range l.violations {
		if v.Timestamp.Before(cutoff) {
			continue
		}
		if resolved != nil && v.Resolved != *resolved {
			continue
		}
		out = append(out, v)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Resolve marks a violation resolved and stamps ResolvedAt. Resolving
// an already-resolved violation is a no-op that keeps the original
// ResolvedAt. Unknown IDs return ViolationNotFoundError.
func (l *ViolationLog) Resolve(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.violations[id]
	if !ok {
		return NewViolationNotFoundError(id)
	}
	if v.Resolved {
		return nil
	}
	now := time.Now().UTC()
	v.Resolved = true
	v.ResolvedAt = &now
	l.persistLocked(ctx, v)

	l.logger.Info("budget violation resolved", "violation_id", id)
	return nil
}

// Summarize aggregates the trailing windowDays days of violations.
func (l *ViolationLog) Summarize(windowDays int) *ViolationSummary {
	sum := &ViolationSummary{
		WindowDays: windowDays,
		ByKind:     make(map[ViolationKind]int),
		ByAction:   make(map[EnforcementAction]int),
	}
	for _, v := range l.List(windowDays, nil) {
		sum.Total++
		if v.Resolved {
			sum.Resolved++
		}
		sum.ByKind[v.Kind]++
		sum.ByAction[v.Action]++
	}
	if sum.Total > 0 {
		sum.ResolutionRate = float64(sum.Resolved) / float64(sum.Total)
	}
	return sum
}

// persistLocked writes the violation through to the store, draining any
// previously failed writes first.
func (l *ViolationLog) persistLocked(ctx context.Context, v *Violation) {
	l.pending = append(l.pending, v)
	for len(l.pending) > 0 {
		head := l.pending[0]
		if err := l.store.SaveViolation(ctx, head); err != nil {
			l.logger.Warn("violation persistence failed, queued for retry",
				"pending", len(l.pending),
				"error", err)
			return
		}
		l.pending = l.pending[1:]
	}
}

// PendingWrites reports how many violation writes await a retry.
func (l *ViolationLog) PendingWrites() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}
