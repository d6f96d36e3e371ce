// Package ledger provides the append-only record of every tracked
// operation and its cost.
//
// # Overview
//
// Every metered operation, successful or failed, produces exactly one
// QueryCostRecord capturing its estimated cost, actual cost, resource
// volumes, timing, and a derived priority tag. Records are immutable after
// creation and are never deleted individually — only bulk retention pruning
// by age removes them.
//
// The ledger is the source of truth for cost-accuracy auditing
// (estimated vs. actual) and feeds the history aggregator.
//
// # Persistence
//
// Records are written through the Store interface. A write failure never
// loses a record: the ledger retains it in memory, surfaces a warning, and
// flushes it on the next successful write.
//
// # Thread Safety
//
// All Ledger operations are safe for concurrent use.
package ledger
