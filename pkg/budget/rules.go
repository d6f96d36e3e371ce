package budget

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingRuleOp is a rule mutation that failed to persist and awaits a
// retry. Exactly one of rule or deleteID is set.
type pendingRuleOp struct {
	rule     *Rule
	deleteID string
}

// Manager owns the budget rule set. The in-memory map is authoritative;
// the store is written through on every mutation, with failed writes
// retained and retried before the next mutation.
type Manager struct {
	store  RuleStore
	logger *slog.Logger

	mu      sync.RWMutex
	rules   map[string]*Rule
	pending []pendingRuleOp
}

// NewManager creates a Manager backed by the given store.
func NewManager(store RuleStore) *Manager {
	return &Manager{
		store:  store,
		logger: slog.Default().With("component", "budget"),
		rules:  make(map[string]*Rule),
	}
}

// Load reads the rule set from the store. A read failure or an empty
// store both result in the default rule set being installed.
func (m *Manager) Load(ctx context.Context, dailyLimitUSD, perOperationLimitUSD float64) error {
	rules, err := m.store.ListRules(ctx)
	if err != nil {
		m.logger.Warn("rule load failed, installing defaults", "error", err)
		rules = nil
	}

	m.mu.Lock()
	m.rules = make(map[string]*Rule, len(rules))
	for _, r := range rules {
		m.rules[r.ID] = r
	}
	m.mu.Unlock()

	if len(rules) == 0 {
		for _, r := range DefaultRules(dailyLimitUSD, perOperationLimitUSD) {
			if err := m.AddRule(ctx, r); err != nil {
				return err
			}
		}
		m.logger.Info("default budget rules installed",
			"daily_limit_usd", dailyLimitUSD,
			"per_operation_limit_usd", perOperationLimitUSD)
	}
	return nil
}

// AddRule validates and stores a new rule. A missing ID is generated.
func (m *Manager) AddRule(ctx context.Context, rule *Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = rule
	m.persistLocked(ctx, pendingRuleOp{rule: rule})
	return nil
}

// UpdateRule validates and replaces an existing rule.
func (m *Manager) UpdateRule(ctx context.Context, rule *Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rules[rule.ID]
	if !ok {
		return NewRuleNotFoundError(rule.ID)
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	m.rules[rule.ID] = rule
	m.persistLocked(ctx, pendingRuleOp{rule: rule})
	return nil
}

// DeleteRule removes a rule from future evaluation. Past violations
// referencing the rule are untouched.
func (m *Manager) DeleteRule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return NewRuleNotFoundError(id)
	}
	delete(m.rules, id)
	m.persistLocked(ctx, pendingRuleOp{deleteID: id})
	return nil
}

// GetRule returns the rule with the given ID.
func (m *Manager) GetRule(id string) (*Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, NewRuleNotFoundError(id)
	}
	return rule, nil
}

// ListRules returns all rules ordered by name.
func (m *Manager) ListRules() []*Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnabledRules returns all enabled rules ordered by name.
func (m *Manager) EnabledRules() []*Rule {
	all := m.ListRules()
	out := all[:0]
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// PerOperationLimitUSD returns the limit of the enabled per-operation
// rule, or 0 when none exists.
func (m *Manager) PerOperationLimitUSD() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.Enabled && r.Scope == ScopePerOperation {
			return r.LimitUSD
		}
	}
	return 0
}

// DailyLimitUSD returns the limit of the enabled non-emergency daily
// rule, or 0 when none exists.
func (m *Manager) DailyLimitUSD() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.Enabled && r.Scope == ScopeDaily && r.EnforcementLevel != LevelEmergency {
			return r.LimitUSD
		}
	}
	return 0
}

// persistLocked writes the mutation through to the store, draining any
// previously failed mutations first. Failures queue the op for retry.
func (m *Manager) persistLocked(ctx context.Context, op pendingRuleOp) {
	m.pending = append(m.pending, op)
	for len(m.pending) > 0 {
		head := m.pending[0]
		var err error
		if head.deleteID != "" {
			err = m.store.DeleteRule(ctx, head.deleteID)
		} else {
			err = m.store.SaveRule(ctx, head.rule)
		}
		if err != nil {
			m.logger.Warn("rule persistence failed, queued for retry",
				"pending", len(m.pending),
				"error", err)
			return
		}
		m.pending = m.pending[1:]
	}
}

// PendingWrites reports how many rule mutations await a retry.
func (m *Manager) PendingWrites() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}

func validateRule(rule *Rule) error {
	if rule.Name == "" {
		return NewConfigurationError(rule.Name, "name", "must not be empty")
	}
	switch rule.Scope {
	case ScopePerOperation, ScopeDaily, ScopeWeekly, ScopeMonthly:
	default:
		return NewConfigurationError(rule.Name, "scope", "unknown scope "+string(rule.Scope))
	}
	if rule.LimitUSD <= 0 {
		return NewConfigurationError(rule.Name, "limit_usd", "must be positive")
	}
	if rule.WarningThresholdPct <= 0 {
		return NewConfigurationError(rule.Name, "warning_threshold_pct", "must be positive")
	}
	if rule.WarningThresholdPct >= rule.CriticalThresholdPct {
		return NewConfigurationError(rule.Name, "warning_threshold_pct", "must be below critical_threshold_pct")
	}
	return nil
}

// DefaultRules builds the standard rule set around a daily limit and a
// per-operation ceiling: a blocking daily rule, a blocking
// per-operation rule, a throttling weekly rule at seven times the daily
// limit, and an emergency stop at 1.5 times the daily limit.
func DefaultRules(dailyLimitUSD, perOperationLimitUSD float64) []*Rule {
	return []*Rule{
		{
			Name:                 "Daily Budget Limit",
			Description:          "Caps total spend per calendar day.",
			Scope:                ScopeDaily,
			LimitUSD:             dailyLimitUSD,
			EnforcementLevel:     LevelBlocking,
			AllowedActions:       []EnforcementAction{ActionWarn, ActionBlock},
			WarningThresholdPct:  80,
			CriticalThresholdPct: 95,
			Enabled:              true,
		},
		{
			Name:                 "Per-Operation Cost Limit",
			Description:          "Caps the cost of any single operation.",
			Scope:                ScopePerOperation,
			LimitUSD:             perOperationLimitUSD,
			EnforcementLevel:     LevelBlocking,
			AllowedActions:       []EnforcementAction{ActionBlock},
			WarningThresholdPct:  80,
			CriticalThresholdPct: 100,
			Enabled:              true,
		},
		{
			Name:                 "Weekly Budget Limit",
			Description:          "Caps total spend per calendar week.",
			Scope:                ScopeWeekly,
			LimitUSD:             dailyLimitUSD * 7,
			EnforcementLevel:     LevelThrottling,
			AllowedActions:       []EnforcementAction{ActionWarn, ActionThrottle},
			WarningThresholdPct:  75,
			CriticalThresholdPct: 90,
			Enabled:              true,
		},
		{
			Name:                 "Emergency Budget Stop",
			Description:          "Hard stop when daily spend runs severely over budget.",
			Scope:                ScopeDaily,
			LimitUSD:             dailyLimitUSD * 1.5,
			EnforcementLevel:     LevelEmergency,
			AllowedActions:       []EnforcementAction{ActionEmergencyStop},
			WarningThresholdPct:  100,
			CriticalThresholdPct: 150,
			Enabled:              true,
		},
	}
}
