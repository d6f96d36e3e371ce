package budget

import (
	"context"
	"time"
)

// Scope is the spending dimension a rule applies to.
type Scope string

const (
	// ScopePerOperation bounds the cost of a single operation.
	ScopePerOperation Scope = "per_operation"

	// ScopeDaily bounds cumulative spend within a calendar day (UTC).
	ScopeDaily Scope = "daily"

	// ScopeWeekly bounds cumulative spend within a calendar week,
	// Monday through Sunday (UTC).
	ScopeWeekly Scope = "weekly"

	// ScopeMonthly bounds cumulative spend within a calendar month (UTC).
	ScopeMonthly Scope = "monthly"
)

// EnforcementLevel is a rule's configured strictness class.
type EnforcementLevel string

const (
	LevelMonitoring EnforcementLevel = "monitoring"
	LevelWarning    EnforcementLevel = "warning"
	LevelThrottling EnforcementLevel = "throttling"
	LevelBlocking   EnforcementLevel = "blocking"
	LevelEmergency  EnforcementLevel = "emergency"
)

// EnforcementAction is the concrete decision returned by an evaluation.
type EnforcementAction string

const (
	ActionAllow         EnforcementAction = "allow"
	ActionWarn          EnforcementAction = "warn"
	ActionThrottle      EnforcementAction = "throttle"
	ActionBlock         EnforcementAction = "block"
	ActionEmergencyStop EnforcementAction = "emergency_stop"
)

// StatusLevel classifies a rule's current utilization.
type StatusLevel string

const (
	StatusHealthy  StatusLevel = "healthy"
	StatusWarning  StatusLevel = "warning"
	StatusExceeded StatusLevel = "exceeded"
	StatusCritical StatusLevel = "critical"
)

// severityRank orders status levels for worst-status folds.
func severityRank(s StatusLevel) int {
	switch s {
	case StatusCritical:
		return 3
	case StatusExceeded:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of two status levels.
func Worse(a, b StatusLevel) StatusLevel {
	if severityRank(b) > severityRank(a) {
		return b
	}
	return a
}

// ViolationKind categorizes why a violation was recorded.
type ViolationKind string

const (
	// KindThresholdExceeded marks a warning-threshold breach.
	KindThresholdExceeded ViolationKind = "threshold_exceeded"

	// KindLimitExceeded marks utilization at or past 100%.
	KindLimitExceeded ViolationKind = "limit_exceeded"

	// KindEmergency marks a critical-threshold breach.
	KindEmergency ViolationKind = "emergency"
)

// Rule is one budget constraint. Rules are mutated only through the
// Manager; deleting a rule removes it from future evaluation without
// touching past violations.
type Rule struct {
	// ID uniquely identifies the rule.
	ID string `json:"id" yaml:"id"`

	// Name is a human-readable label, included in decision messages.
	Name string `json:"name" yaml:"name"`

	// Description explains the rule's intent.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Scope selects the spending dimension.
	Scope Scope `json:"scope" yaml:"scope"`

	// LimitUSD is the spending ceiling. Must be positive.
	LimitUSD float64 `json:"limit_usd" yaml:"limit_usd"`

	// EnforcementLevel sets the rule's strictness class.
	EnforcementLevel EnforcementLevel `json:"enforcement_level" yaml:"enforcement_level"`

	// AllowedActions lists the actions this rule may emit.
	AllowedActions []EnforcementAction `json:"allowed_actions,omitempty" yaml:"allowed_actions,omitempty"`

	// WarningThresholdPct and CriticalThresholdPct bound utilization
	// classification. Must satisfy 0 < warning < critical.
	WarningThresholdPct  float64 `json:"warning_threshold_pct" yaml:"warning_threshold_pct"`
	CriticalThresholdPct float64 `json:"critical_threshold_pct" yaml:"critical_threshold_pct"`

	// Enabled excludes the rule from evaluation when false.
	Enabled bool `json:"enabled" yaml:"enabled"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Violation is one recorded rule breach.
type Violation struct {
	ID               string            `json:"id"`
	RuleID           string            `json:"rule_id"`
	Timestamp        time.Time         `json:"timestamp"`
	Kind             ViolationKind     `json:"kind"`
	CurrentAmountUSD float64           `json:"current_amount_usd"`
	LimitAmountUSD   float64           `json:"limit_amount_usd"`
	PercentageUsed   float64           `json:"percentage_used"`
	Action           EnforcementAction `json:"action"`
	Message          string            `json:"message"`
	Resolved         bool              `json:"resolved"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
}

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the operation may proceed.
	Allowed bool `json:"allowed"`

	// Message explains the decision.
	Message string `json:"message"`

	// Action is the enforcement action to apply.
	Action EnforcementAction `json:"action"`

	// RuleID names the denying rule, empty when allowed.
	RuleID string `json:"rule_id,omitempty"`
}

// RuleStatus is the evaluated state of one enabled rule.
type RuleStatus struct {
	RuleID         string            `json:"rule_id"`
	RuleName       string            `json:"rule_name"`
	Scope          Scope             `json:"scope"`
	CurrentUSD     float64           `json:"current_usd"`
	LimitUSD       float64           `json:"limit_usd"`
	PercentageUsed float64           `json:"percentage_used"`
	Level          StatusLevel       `json:"level"`
	Action         EnforcementAction `json:"action"`
}

// Status is a snapshot of budget health across all enabled rules.
type Status struct {
	// CurrentCosts maps each scope to its settled spend.
	CurrentCosts map[Scope]float64 `json:"current_costs"`

	// Rules holds one entry per enabled rule.
	Rules []RuleStatus `json:"rules"`

	// Overall is the worst status across Rules (healthy when empty).
	Overall StatusLevel `json:"overall"`
}

// ViolationSummary aggregates violations over a trailing window.
type ViolationSummary struct {
	WindowDays int `json:"window_days"`
	Total      int `json:"total"`
	Resolved   int `json:"resolved"`

	// ResolutionRate is Resolved / Total, 0 when Total is 0.
	ResolutionRate float64 `json:"resolution_rate"`

	ByKind   map[ViolationKind]int     `json:"by_kind"`
	ByAction map[EnforcementAction]int `json:"by_action"`
}

// RuleStore persists budget rules. The Manager is the sole writer.
type RuleStore interface {
	// SaveRule inserts or replaces a rule by ID.
	SaveRule(ctx context.Context, rule *Rule) error

	// DeleteRule removes a rule. Unknown IDs are not an error.
	DeleteRule(ctx context.Context, id string) error

	// ListRules returns all stored rules.
	ListRules(ctx context.Context) ([]*Rule, error)
}

// ViolationStore persists violations. The ViolationLog is the sole
// writer; resolution updates reuse SaveViolation.
type ViolationStore interface {
	// SaveViolation inserts or replaces a violation by ID.
	SaveViolation(ctx context.Context, v *Violation) error

	// ListViolations returns violations with Timestamp >= since.
	ListViolations(ctx context.Context, since time.Time) ([]*Violation, error)

	// DeleteViolationsBefore removes violations older than the cutoff
	// and returns the number deleted.
	DeleteViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
