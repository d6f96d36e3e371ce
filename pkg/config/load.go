package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention SATURN_SECTION_FIELD (e.g., SATURN_BUDGET_DAILY_LIMIT_USD)
// and always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format SATURN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Budget overrides
	if val := os.Getenv("SATURN_BUDGET_DAILY_LIMIT_USD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Budget.DailyLimitUSD = f
		}
	}
	if val := os.Getenv("SATURN_BUDGET_PER_OPERATION_LIMIT_USD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Budget.PerOperationLimitUSD = f
		}
	}
	if val := os.Getenv("SATURN_BUDGET_ALLOW_UNESTIMATED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Budget.AllowUnestimated = b
		}
	}

	// Pricing overrides
	if val := os.Getenv("SATURN_PRICING_DATA_PER_TIB_USD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Pricing.DataPerTiBUSD = f
		}
	}
	if val := os.Getenv("SATURN_PRICING_COMPUTE_PER_SLOT_HOUR_USD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Pricing.ComputePerSlotHourUSD = f
		}
	}
	if val := os.Getenv("SATURN_PRICING_ESTIMATE_SLOT_MS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Pricing.EstimateSlotMS = i
		}
	}

	// Storage overrides
	if val := os.Getenv("SATURN_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("SATURN_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLite.Path = val
	}
	if val := os.Getenv("SATURN_STORAGE_SQLITE_DRIVER"); val != "" {
		cfg.Storage.SQLite.Driver = val
	}

	// Retention overrides
	if val := os.Getenv("SATURN_RETENTION_RECORD_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.RecordRetentionDays = i
		}
	}
	if val := os.Getenv("SATURN_RETENTION_VIOLATION_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.ViolationRetentionDays = i
		}
	}
	if val := os.Getenv("SATURN_RETENTION_HISTORY_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.HistoryRetentionDays = i
		}
	}
	if val := os.Getenv("SATURN_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Retention.PruneSchedule = val
	}
	if val := os.Getenv("SATURN_RETENTION_ROLLUP_SCHEDULE"); val != "" {
		cfg.Retention.RollupSchedule = val
	}

	// Server overrides
	if val := os.Getenv("SATURN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SATURN_SERVER_METRICS_PATH"); val != "" {
		cfg.Server.MetricsPath = val
	}
	if val := os.Getenv("SATURN_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("SATURN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SATURN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
