package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema defines the SQLite tables for rules, violations, cost records,
// and daily history. Timestamps persist as RFC 3339 UTC text so range
// scans can compare lexicographically; enum-valued columns hold the
// enum's string name.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS budget_rules (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	scope TEXT NOT NULL,
	limit_usd REAL NOT NULL,
	enforcement_level TEXT NOT NULL,
	allowed_actions TEXT NOT NULL DEFAULT '[]',
	warning_threshold_pct REAL NOT NULL,
	critical_threshold_pct REAL NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS budget_violations (
	id TEXT PRIMARY KEY,
	rule_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	kind TEXT NOT NULL,
	current_amount_usd REAL NOT NULL,
	limit_amount_usd REAL NOT NULL,
	percentage_used REAL NOT NULL,
	action TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	resolved INTEGER NOT NULL DEFAULT 0,
	resolved_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_violations_timestamp ON budget_violations(timestamp);
CREATE INDEX IF NOT EXISTS idx_violations_rule ON budget_violations(rule_id);

CREATE TABLE IF NOT EXISTS cost_records (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	operation_type TEXT NOT NULL,
	operation_hash TEXT NOT NULL,
	operation_preview TEXT NOT NULL DEFAULT '',
	estimated_cost_usd REAL NOT NULL,
	actual_cost_usd REAL NOT NULL,
	cost_difference_usd REAL NOT NULL,
	data_processing_cost_usd REAL NOT NULL,
	compute_cost_usd REAL NOT NULL,
	execution_time_ms INTEGER NOT NULL,
	resource_bytes INTEGER NOT NULL,
	compute_slot_ms INTEGER NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_cost_records_timestamp ON cost_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_cost_records_type ON cost_records(operation_type);

CREATE TABLE IF NOT EXISTS cost_history (
	date TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	total_cost_usd REAL NOT NULL,
	data_processing_cost_usd REAL NOT NULL,
	compute_cost_usd REAL NOT NULL,
	bytes_processed INTEGER NOT NULL,
	slot_ms INTEGER NOT NULL,
	total_queries INTEGER NOT NULL,
	succeeded_queries INTEGER NOT NULL,
	failed_queries INTEGER NOT NULL,
	avg_query_cost_usd REAL NOT NULL,
	max_query_cost_usd REAL NOT NULL,
	budget_limit_usd REAL NOT NULL,
	budget_used_usd REAL NOT NULL,
	budget_remaining_usd REAL NOT NULL,
	budget_utilization_pct REAL NOT NULL
);
`

// InsertSchemaVersion records the schema version, ignoring re-runs.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the highest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`
