// Package budget implements budget rule management, admission control,
// and post-execution enforcement for metered operations.
//
// # Overview
//
// A Rule bounds spending for one scope: a single operation, a day, a
// week, or a month. The Manager owns the rule set and persists it
// through a RuleStore. The Enforcer evaluates rules in two moments:
//
//   - CanExecute runs before an operation, against projected cost plus
//     spend already committed in the current calendar windows. The
//     per-operation ceiling is checked first, then the daily limit,
//     then any emergency rule; an emergency stop outranks a plain
//     block when both would fire.
//
//   - Enforce runs after an operation, against settled spend, and
//     records a Violation for every enabled rule whose utilization has
//     reached its warning threshold or beyond.
//
// Admitted cost is reserved inside the SpendTracker under a single
// mutex, so two concurrent operations cannot both be admitted when
// only one fits under a limit. Settling an operation converts its
// reservation into settled spend.
//
// # Persistence
//
// Rule and violation mutations are write-through: on store failure the
// change is kept in memory, a warning is logged, and the write is
// retried before the next successful mutation. A failed read at
// startup yields an empty rule set followed by default-rule
// installation.
//
// # Thread Safety
//
// Manager, SpendTracker, Enforcer, and ViolationLog are all safe for
// concurrent use.
package budget
