// Package store provides the persistence backends shared by the budget,
// ledger, and history packages.
//
// # Overview
//
// Two implementations cover the same contracts: Memory keeps everything
// in process for tests and ephemeral runs, and SQLite persists to a
// single database file. Both satisfy budget.RuleStore,
// budget.ViolationStore, ledger.Store, and history.Store.
//
// The SQLite backend runs with WAL journaling and a busy timeout, and
// supports two drivers: the pure-Go "sqlite" driver (the default) and
// the cgo "sqlite3" driver. Enum-valued fields persist as their string
// names so stored rows round-trip losslessly.
//
// # Thread Safety
//
// Both backends are safe for concurrent use.
package store
