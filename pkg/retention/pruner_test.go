package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/history"
	"mercator-hq/saturn/pkg/ledger"
	"mercator-hq/saturn/pkg/store"
)

func seededStores(t *testing.T) (Stores, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, age := range []int{1, 100} {
		ts := now.AddDate(0, 0, -age)
		if err := mem.AppendRecord(ctx, &ledger.QueryCostRecord{
			ID: ts.Format("2006-01-02"), Timestamp: ts,
			OperationType: "analysis", Status: ledger.StatusDone,
			Priority: ledger.PriorityLow,
		}); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
		if err := mem.SaveViolation(ctx, &budget.Violation{
			ID: ts.Format("2006-01-02"), RuleID: "r", Timestamp: ts,
			Kind: budget.KindThresholdExceeded, Action: budget.ActionWarn,
		}); err != nil {
			t.Fatalf("SaveViolation: %v", err)
		}
	}
	for _, age := range []int{30, 400} {
		date := now.AddDate(0, 0, -age).Format("2006-01-02")
		if err := mem.SaveDaily(ctx, &history.CostHistoryRecord{
			Date: date, Timestamp: now, TotalCostUSD: 1.0,
		}); err != nil {
			t.Fatalf("SaveDaily: %v", err)
		}
	}
	return Stores{Records: mem, Violations: mem, History: mem}, mem
}

func TestPruneDeletesAgedData(t *testing.T) {
	stores, mem := seededStores(t)
	p := NewPruner(stores, DefaultConfig())

	result, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if result.RecordsDeleted != 1 {
		t.Errorf("RecordsDeleted = %d, want 1", result.RecordsDeleted)
	}
	if result.ViolationsDeleted != 1 {
		t.Errorf("ViolationsDeleted = %d, want 1", result.ViolationsDeleted)
	}
	if result.HistoryDeleted != 1 {
		t.Errorf("HistoryDeleted = %d, want 1", result.HistoryDeleted)
	}

	// Fresh data survives.
	now := time.Now().UTC()
	records, err := mem.ListRecords(context.Background(), now.AddDate(0, 0, -7), now)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d recent records after prune, want 1", len(records))
	}
}

func TestPruneZeroRetentionKeepsForever(t *testing.T) {
	stores, _ := seededStores(t)
	p := NewPruner(stores, &Config{})

	result, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if result.RecordsDeleted != 0 || result.ViolationsDeleted != 0 || result.HistoryDeleted != 0 {
		t.Errorf("zero retention deleted data: %+v", result)
	}
}

func TestSchedulerRejectsInvalidSchedule(t *testing.T) {
	stores, _ := seededStores(t)
	p := NewPruner(stores, &Config{PruneSchedule: "not a cron line"})
	s := NewScheduler(p, nil)

	if err := s.Start(context.Background()); err == nil {
		t.Error("Start accepted an invalid cron expression")
	}
}
