package config

import "time"

// Config is the root configuration structure for Saturn. It contains all
// configuration sections for budget enforcement, pricing, storage,
// retention, the metrics server, and telemetry.
type Config struct {
	// Budget contains budget limits and admission behavior.
	Budget BudgetConfig `yaml:"budget"`

	// Pricing contains the monetary rates applied to resource consumption.
	// This section participates in hot reload; see PricingWatcher.
	Pricing PricingConfig `yaml:"pricing"`

	// Storage contains persistence backend selection and settings.
	Storage StorageConfig `yaml:"storage"`

	// Retention contains data retention and scheduled maintenance settings.
	Retention RetentionConfig `yaml:"retention"`

	// Server contains the metrics/health HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// BudgetConfig contains budget limits used to seed the default rule set
// and admission behavior for operations whose cost cannot be estimated.
type BudgetConfig struct {
	// DailyLimitUSD is the daily budget limit in USD. Seeds the default
	// daily, weekly (7x), and emergency (1.5x) rules when no rules are
	// persisted.
	// Default: 50.00
	DailyLimitUSD float64 `yaml:"daily_limit_usd"`

	// PerOperationLimitUSD is the single-operation cost limit in USD.
	// Default: 5.00
	PerOperationLimitUSD float64 `yaml:"per_operation_limit_usd"`

	// AllowUnestimated admits operations whose cost estimation failed,
	// with a zero projection. When false (the default), such operations
	// are rejected.
	// Default: false
	AllowUnestimated bool `yaml:"allow_unestimated"`

	// ViolationWindowDays is how far back resolved and unresolved
	// violations are loaded at startup.
	// Default: 90
	ViolationWindowDays int `yaml:"violation_window_days"`
}

// PricingConfig contains the monetary rates for converting resource
// consumption into USD. Zero-valued fields fall back to defaults.
type PricingConfig struct {
	// DataPerTiBUSD is the cost per TiB of data scanned.
	// Default: 5.00
	DataPerTiBUSD float64 `yaml:"data_per_tib_usd"`

	// ComputePerSlotHourUSD is the cost per slot-hour of compute time.
	// Default: 0.01
	ComputePerSlotHourUSD float64 `yaml:"compute_per_slot_hour_usd"`

	// EstimateSlotMS is the fixed compute surcharge, in slot-milliseconds,
	// assumed for operations whose compute usage is not yet known.
	// Default: 1000
	EstimateSlotMS int64 `yaml:"estimate_slot_ms"`

	// Watch enables hot reload of pricing rates when the configuration
	// file changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// StorageConfig contains persistence backend configuration.
type StorageConfig struct {
	// Backend specifies the storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteStorageConfig `yaml:"sqlite"`
}

// SQLiteStorageConfig contains SQLite-specific configuration.
type SQLiteStorageConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/saturn.db"
	Path string `yaml:"path"`

	// Driver selects the SQL driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains data retention and maintenance scheduling.
type RetentionConfig struct {
	// RecordRetentionDays is how long individual cost records are kept.
	// 0 means keep forever.
	// Default: 90
	RecordRetentionDays int `yaml:"record_retention_days"`

	// ViolationRetentionDays is how long budget violations are kept.
	// 0 means keep forever.
	// Default: 90
	ViolationRetentionDays int `yaml:"violation_retention_days"`

	// HistoryRetentionDays is how long daily history records are kept.
	// 0 means keep forever.
	// Default: 365
	HistoryRetentionDays int `yaml:"history_retention_days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Empty disables the prune job.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// RollupSchedule is a cron expression for the daily history rollup.
	// Empty disables the rollup job.
	// Default: "5 0 * * *" (five past midnight)
	RollupSchedule string `yaml:"rollup_schedule"`
}

// ServerConfig contains the metrics/health HTTP listener configuration.
type ServerConfig struct {
	// ListenAddress is the address and port for the metrics listener.
	// Format: "host:port".
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// MetricsPath is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	MetricsPath string `yaml:"metrics_path"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown of the listener.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}
