package config

import "time"

// Default values for configuration fields.
const (
	// Budget defaults
	DefaultDailyLimitUSD        = 50.00
	DefaultPerOperationLimitUSD = 5.00
	DefaultViolationWindowDays  = 90

	// Pricing defaults
	DefaultDataPerTiBUSD         = 5.00
	DefaultComputePerSlotHourUSD = 0.01
	DefaultEstimateSlotMS        = int64(1000)

	// Storage defaults
	DefaultStorageBackend    = "sqlite"
	DefaultSQLitePath        = "data/saturn.db"
	DefaultSQLiteDriver      = "sqlite"
	DefaultSQLiteMaxOpen     = 10
	DefaultSQLiteMaxIdle     = 5
	DefaultSQLiteWALMode     = true
	DefaultSQLiteBusyTimeout = 5 * time.Second

	// Retention defaults
	DefaultRecordRetentionDays    = 90
	DefaultViolationRetentionDays = 90
	DefaultHistoryRetentionDays   = 365
	DefaultPruneSchedule          = "0 3 * * *"
	DefaultRollupSchedule         = "5 0 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9090"
	DefaultMetricsPath     = "/metrics"
	DefaultShutdownTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
)

// ApplyDefaults fills in default values for any zero-valued configuration
// fields. It is safe to call on a zero Config.
func ApplyDefaults(cfg *Config) {
	// Budget
	if cfg.Budget.DailyLimitUSD == 0 {
		cfg.Budget.DailyLimitUSD = DefaultDailyLimitUSD
	}
	if cfg.Budget.PerOperationLimitUSD == 0 {
		cfg.Budget.PerOperationLimitUSD = DefaultPerOperationLimitUSD
	}
	if cfg.Budget.ViolationWindowDays == 0 {
		cfg.Budget.ViolationWindowDays = DefaultViolationWindowDays
	}

	// Pricing
	if cfg.Pricing.DataPerTiBUSD == 0 {
		cfg.Pricing.DataPerTiBUSD = DefaultDataPerTiBUSD
	}
	if cfg.Pricing.ComputePerSlotHourUSD == 0 {
		cfg.Pricing.ComputePerSlotHourUSD = DefaultComputePerSlotHourUSD
	}
	if cfg.Pricing.EstimateSlotMS == 0 {
		cfg.Pricing.EstimateSlotMS = DefaultEstimateSlotMS
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpen
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdle
	}
	if !cfg.Storage.SQLite.WALMode {
		cfg.Storage.SQLite.WALMode = DefaultSQLiteWALMode
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Retention day counts treat zero as "keep forever", so defaults apply
	// only when the whole section is absent. An explicitly configured zero
	// stays zero.
	if cfg.Retention == (RetentionConfig{}) {
		cfg.Retention.RecordRetentionDays = DefaultRecordRetentionDays
		cfg.Retention.ViolationRetentionDays = DefaultViolationRetentionDays
		cfg.Retention.HistoryRetentionDays = DefaultHistoryRetentionDays
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultPruneSchedule
	}
	if cfg.Retention.RollupSchedule == "" {
		cfg.Retention.RollupSchedule = DefaultRollupSchedule
	}

	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = DefaultMetricsPath
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
}
