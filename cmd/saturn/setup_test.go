package main

import (
	"context"
	"path/filepath"
	"testing"

	"mercator-hq/saturn/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.Backend = "memory"
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := testConfig(t)

	st, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer st.close()

	if st.engine.Rules == nil || st.engine.Violations == nil ||
		st.engine.Records == nil || st.engine.History == nil {
		t.Error("engine stores should all be populated")
	}
	if st.retention.Records == nil || st.retention.Violations == nil ||
		st.retention.History == nil {
		t.Error("retention stores should all be populated")
	}
	if err := st.close(); err != nil {
		t.Errorf("close() error = %v", err)
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "saturn.db")

	st, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if err := st.close(); err != nil {
		t.Errorf("close() error = %v", err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "postgres"

	if _, err := openStore(cfg); err == nil {
		t.Error("openStore() should reject unknown backends")
	}
}

func TestBuildEngine(t *testing.T) {
	cfg := testConfig(t)
	st, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer st.close()

	eng, table, registry, err := buildEngine(context.Background(), cfg, st)
	if err != nil {
		t.Fatalf("buildEngine() error = %v", err)
	}
	if eng == nil || table == nil || registry == nil {
		t.Fatal("buildEngine() returned nil component")
	}

	// Default rules are seeded on an empty rule store.
	status := eng.GetBudgetStatus()
	if len(status.Rules) == 0 {
		t.Error("engine should seed default budget rules")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":      false,
		"status":   false,
		"backfill": false,
		"version":  false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
