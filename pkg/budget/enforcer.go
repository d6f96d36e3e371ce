package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Enforcer evaluates budget rules at admission time and after
// execution. Decisions are deterministic functions of the rule set,
// the committed spend, and the projected or actual cost.
type Enforcer struct {
	rules      *Manager
	spend      *SpendTracker
	violations *ViolationLog
	logger     *slog.Logger
}

// NewEnforcer creates an Enforcer over the given rule set, spend
// tracker, and violation log.
func NewEnforcer(rules *Manager, spend *SpendTracker, violations *ViolationLog) *Enforcer {
	return &Enforcer{
		rules:      rules,
		spend:      spend,
		violations: violations,
		logger:     slog.Default().With("component", "budget"),
	}
}

// CanExecute decides whether an operation with the given projected cost
// may proceed. The per-operation ceiling is checked first, then the
// daily limit against committed spend, then any emergency rule; an
// emergency stop takes precedence over a plain daily block. An allowed
// decision reserves the projected cost until Settle is called.
func (e *Enforcer) CanExecute(now time.Time, projectedUSD float64) Decision {
	rules := e.rules.EnabledRules()

	decision := e.spend.Admit(now, projectedUSD, func(committed Spend) Decision {
		for _, rule := range rules {
			if rule.Scope != ScopePerOperation {
				continue
			}
			if projectedUSD > rule.LimitUSD {
				return Decision{
					Allowed: false,
					Action:  ActionBlock,
					RuleID:  rule.ID,
					Message: fmt.Sprintf("operation cost exceeds per-operation limit: $%.4f > $%.2f",
						projectedUSD, rule.LimitUSD),
				}
			}
		}

		var daily *Decision
		for _, rule := range rules {
			if rule.Scope != ScopeDaily || rule.EnforcementLevel == LevelEmergency {
				continue
			}
			if committed.DayUSD+projectedUSD > rule.LimitUSD {
				daily = &Decision{
					Allowed: false,
					Action:  ActionBlock,
					RuleID:  rule.ID,
					Message: fmt.Sprintf("daily budget limit would be exceeded: $%.4f + $%.4f > $%.2f",
						committed.DayUSD, projectedUSD, rule.LimitUSD),
				}
				break
			}
		}

		for _, rule := range rules {
			if rule.EnforcementLevel != LevelEmergency {
				continue
			}
			current := committed.ForScope(rule.Scope)
			if current+projectedUSD > rule.LimitUSD {
				return Decision{
					Allowed: false,
					Action:  ActionEmergencyStop,
					RuleID:  rule.ID,
					Message: fmt.Sprintf("emergency budget ceiling breached: $%.4f + $%.4f > $%.2f",
						current, projectedUSD, rule.LimitUSD),
				}
			}
		}
		if daily != nil {
			return *daily
		}

		return Decision{
			Allowed: true,
			Action:  ActionAllow,
			Message: "operation is within budget constraints",
		}
	})

	if !decision.Allowed {
		e.logger.Warn("operation denied",
			"projected_cost_usd", projectedUSD,
			"action", decision.Action,
			"rule_id", decision.RuleID,
			"message", decision.Message)
	}
	return decision
}

// Settle converts an admission reservation into settled spend. For
// operations admitted without an estimate, reservedUSD is 0.
func (e *Enforcer) Settle(now time.Time, reservedUSD, actualUSD float64) {
	e.spend.Settle(now, reservedUSD, actualUSD)
}

// Enforce re-evaluates all enabled rules against settled post-execution
// spend and records one violation per rule at warning status or worse.
// Cumulative rules can be breached by accumulation across operations
// that were each individually admitted.
func (e *Enforcer) Enforce(ctx context.Context, now time.Time, operationType string, actualUSD float64) []*Violation {
	settled := e.spend.Settled(now)

	var out []*Violation
	for _, rule := range e.rules.EnabledRules() {
		current := settled.ForScope(rule.Scope)
		if rule.Scope == ScopePerOperation {
			current = actualUSD
		}
		level, action := classify(current, rule)
		if level == StatusHealthy {
			continue
		}

		pct := current / rule.LimitUSD * 100
		v := e.violations.Record(ctx, &Violation{
			RuleID:           rule.ID,
			Timestamp:        now,
			Kind:             kindFor(level),
			CurrentAmountUSD: current,
			LimitAmountUSD:   rule.LimitUSD,
			PercentageUsed:   pct,
			Action:           action,
			Message: fmt.Sprintf("budget %s: %s - $%.4f / $%.2f (%.1f%%)",
				level, rule.Name, current, rule.LimitUSD, pct),
		})
		out = append(out, v)

		e.logger.Warn("budget rule breached",
			"rule_name", rule.Name,
			"operation_type", operationType,
			"level", level,
			"action", action,
			"percentage_used", pct)
	}
	return out
}

// Status evaluates every enabled rule against settled spend and folds
// the worst level into Overall.
func (e *Enforcer) Status(now time.Time) *Status {
	settled := e.spend.Settled(now)

	status := &Status{
		CurrentCosts: map[Scope]float64{
			ScopeDaily:   settled.DayUSD,
			ScopeWeekly:  settled.WeekUSD,
			ScopeMonthly: settled.MonthUSD,
		},
		Overall: StatusHealthy,
	}
	for _, rule := range e.rules.EnabledRules() {
		current := settled.ForScope(rule.Scope)
		level, action := classify(current, rule)
		status.Rules = append(status.Rules, RuleStatus{
			RuleID:         rule.ID,
			RuleName:       rule.Name,
			Scope:          rule.Scope,
			CurrentUSD:     current,
			LimitUSD:       rule.LimitUSD,
			PercentageUsed: current / rule.LimitUSD * 100,
			Level:          level,
			Action:         action,
		})
		status.Overall = Worse(status.Overall, level)
	}
	return status
}

// classify maps a current amount against a rule to a status level and
// action. Precedence: critical, exceeded, warning, healthy — first
// match wins.
func classify(currentUSD float64, rule *Rule) (StatusLevel, EnforcementAction) {
	pct := currentUSD / rule.LimitUSD * 100
	switch {
	case pct >= rule.CriticalThresholdPct:
		if rule.EnforcementLevel == LevelEmergency {
			return StatusCritical, ActionEmergencyStop
		}
		return StatusCritical, ActionBlock
	case pct >= 100:
		return StatusExceeded, ActionBlock
	case pct >= rule.WarningThresholdPct:
		return StatusWarning, ActionWarn
	default:
		return StatusHealthy, ActionAllow
	}
}

// kindFor maps a breached status level to its violation kind.
func kindFor(level StatusLevel) ViolationKind {
	switch level {
	case StatusCritical:
		return KindEmergency
	case StatusExceeded:
		return KindLimitExceeded
	default:
		return KindThresholdExceeded
	}
}
