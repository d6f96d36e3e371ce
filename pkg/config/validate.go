package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "budget.daily_limit_usd").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All validation errors are
// collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateBudget(&cfg.Budget)...)
	errs = append(errs, validatePricing(&cfg.Pricing)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateBudget validates budget configuration.
func validateBudget(cfg *BudgetConfig) []FieldError {
	var errs []FieldError

	if cfg.DailyLimitUSD <= 0 {
		errs = append(errs, FieldError{
			Field:   "budget.daily_limit_usd",
			Message: "daily limit must be positive",
		})
	}
	if cfg.PerOperationLimitUSD <= 0 {
		errs = append(errs, FieldError{
			Field:   "budget.per_operation_limit_usd",
			Message: "per-operation limit must be positive",
		})
	}
	if cfg.ViolationWindowDays < 0 {
		errs = append(errs, FieldError{
			Field:   "budget.violation_window_days",
			Message: "violation window must be non-negative",
		})
	}

	return errs
}

// validatePricing validates pricing configuration.
func validatePricing(cfg *PricingConfig) []FieldError {
	var errs []FieldError

	if cfg.DataPerTiBUSD < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.data_per_tib_usd",
			Message: "data rate must be non-negative",
		})
	}
	if cfg.ComputePerSlotHourUSD < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.compute_per_slot_hour_usd",
			Message: "compute rate must be non-negative",
		})
	}
	if cfg.EstimateSlotMS < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.estimate_slot_ms",
			Message: "estimate surcharge must be non-negative",
		})
	}

	return errs
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "database path is required",
			})
		}
		switch cfg.SQLite.Driver {
		case "sqlite", "sqlite3":
		default:
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("unknown driver %q (must be \"sqlite\" or \"sqlite3\")", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_open_conns",
				Message: "must allow at least one connection",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	}

	return errs
}

// validateRetention validates retention configuration.
func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.RecordRetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.record_retention_days",
			Message: "retention days must be non-negative (0 keeps forever)",
		})
	}
	if cfg.ViolationRetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.violation_retention_days",
			Message: "retention days must be non-negative (0 keeps forever)",
		})
	}
	if cfg.HistoryRetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.history_retention_days",
			Message: "retention days must be non-negative (0 keeps forever)",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.RollupSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RollupSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.rollup_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.MetricsPath == "" || !strings.HasPrefix(cfg.MetricsPath, "/") {
		errs = append(errs, FieldError{
			Field:   "server.metrics_path",
			Message: "metrics path must start with /",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	return errs
}
