package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saturn.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// ============================================================================
// Loading Tests
// ============================================================================

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "{}\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Budget.DailyLimitUSD != DefaultDailyLimitUSD {
		t.Errorf("DailyLimitUSD = %v, want %v", cfg.Budget.DailyLimitUSD, DefaultDailyLimitUSD)
	}
	if cfg.Budget.PerOperationLimitUSD != DefaultPerOperationLimitUSD {
		t.Errorf("PerOperationLimitUSD = %v, want %v", cfg.Budget.PerOperationLimitUSD, DefaultPerOperationLimitUSD)
	}
	if cfg.Pricing.DataPerTiBUSD != DefaultDataPerTiBUSD {
		t.Errorf("DataPerTiBUSD = %v, want %v", cfg.Pricing.DataPerTiBUSD, DefaultDataPerTiBUSD)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Storage.SQLite.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Storage.SQLite.Driver)
	}
	if !cfg.Storage.SQLite.WALMode {
		t.Error("WALMode should default to true")
	}
	if cfg.Retention.HistoryRetentionDays != DefaultHistoryRetentionDays {
		t.Errorf("HistoryRetentionDays = %d, want %d", cfg.Retention.HistoryRetentionDays, DefaultHistoryRetentionDays)
	}
	if cfg.Retention.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("PruneSchedule = %q, want %q", cfg.Retention.PruneSchedule, DefaultPruneSchedule)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("Logging = %q/%q, want info/json", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := writeConfigFile(t, `
budget:
  daily_limit_usd: 25.00
  per_operation_limit_usd: 2.50
  allow_unestimated: true
pricing:
  data_per_tib_usd: 6.25
storage:
  backend: memory
retention:
  record_retention_days: 30
  violation_retention_days: 30
  history_retention_days: 180
server:
  listen_address: "0.0.0.0:9091"
  shutdown_timeout: 5s
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Budget.DailyLimitUSD != 25.00 {
		t.Errorf("DailyLimitUSD = %v, want 25.00", cfg.Budget.DailyLimitUSD)
	}
	if !cfg.Budget.AllowUnestimated {
		t.Error("AllowUnestimated not parsed")
	}
	if cfg.Pricing.DataPerTiBUSD != 6.25 {
		t.Errorf("DataPerTiBUSD = %v, want 6.25", cfg.Pricing.DataPerTiBUSD)
	}
	// Unset pricing fields still get defaults.
	if cfg.Pricing.ComputePerSlotHourUSD != DefaultComputePerSlotHourUSD {
		t.Errorf("ComputePerSlotHourUSD = %v, want default", cfg.Pricing.ComputePerSlotHourUSD)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Retention.HistoryRetentionDays != 180 {
		t.Errorf("HistoryRetentionDays = %d, want 180", cfg.Retention.HistoryRetentionDays)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig should fail for a missing file")
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "budget: [not a mapping\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig should fail for malformed YAML")
	}
}

// ============================================================================
// Environment Override Tests
// ============================================================================

func TestEnvOverridesTakePrecedence(t *testing.T) {
	path := writeConfigFile(t, `
budget:
  daily_limit_usd: 25.00
`)

	t.Setenv("SATURN_BUDGET_DAILY_LIMIT_USD", "75.00")
	t.Setenv("SATURN_STORAGE_BACKEND", "memory")
	t.Setenv("SATURN_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if cfg.Budget.DailyLimitUSD != 75.00 {
		t.Errorf("DailyLimitUSD = %v, want env override 75.00", cfg.Budget.DailyLimitUSD)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Telemetry.Logging.Level)
	}
}

func TestEnvOverridesRevalidate(t *testing.T) {
	path := writeConfigFile(t, "{}\n")

	t.Setenv("SATURN_STORAGE_BACKEND", "postgres")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("invalid env override should fail validation")
	}
}

func TestEnvOverrideIgnoresUnparsableValues(t *testing.T) {
	path := writeConfigFile(t, `
budget:
  daily_limit_usd: 25.00
`)

	t.Setenv("SATURN_BUDGET_DAILY_LIMIT_USD", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}
	if cfg.Budget.DailyLimitUSD != 25.00 {
		t.Errorf("DailyLimitUSD = %v, want file value 25.00", cfg.Budget.DailyLimitUSD)
	}
}
