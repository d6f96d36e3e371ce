package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/ledger"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakeHistoryStore is an in-memory Store keyed by date.
type fakeHistoryStore struct {
	mu      sync.Mutex
	records map[string]*CostHistoryRecord
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{records: make(map[string]*CostHistoryRecord)}
}

func (s *fakeHistoryStore) SaveDaily(_ context.Context, rec *CostHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Date] = rec
	return nil
}

func (s *fakeHistoryStore) ListDaily(_ context.Context, startDate, endDate string) ([]*CostHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*CostHistoryRecord
	for _, rec := range s.records {
		if rec.Date >= startDate && rec.Date <= endDate {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeHistoryStore) DeleteDailyBefore(_ context.Context, cutoffDate string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for date := range s.records {
		if date < cutoffDate {
			delete(s.records, date)
			deleted++
		}
	}
	return deleted, nil
}

// seed inserts a daily record with the given date and total cost.
func (s *fakeHistoryStore) seed(date string, totalUSD float64, queries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	avg := 0.0
	if queries > 0 {
		avg = totalUSD / float64(queries)
	}
	s.records[date] = &CostHistoryRecord{
		Date:             date,
		Timestamp:        time.Now().UTC(),
		TotalCostUSD:     totalUSD,
		TotalQueries:     queries,
		SucceededQueries: queries,
		AvgQueryCostUSD:  avg,
		MaxQueryCostUSD:  avg,
		BudgetLimitUSD:   100,
		BudgetUsedUSD:    totalUSD,
	}
}

// fakeLedgerSource serves a canned summary.
type fakeLedgerSource struct {
	summary *ledger.Summary
}

func (f *fakeLedgerSource) SummaryRange(_ context.Context, from, to time.Time) (*ledger.Summary, error) {
	s := *f.summary
	s.WindowStart, s.WindowEnd = from, to
	return &s, nil
}

type fixedBudget float64

func (f fixedBudget) DailyLimitUSD() float64 { return float64(f) }

// ============================================================================
// RecordDaily Tests
// ============================================================================

func TestRecordDailyFoldsSummaryAndBudget(t *testing.T) {
	store := newFakeHistoryStore()
	src := &fakeLedgerSource{summary: &ledger.Summary{
		TotalOperations:       4,
		SucceededOperations:   3,
		FailedOperations:      1,
		TotalActualUSD:        8.0,
		AvgCostUSD:            2.0,
		MaxCostUSD:            5.0,
		TotalBytesProcessed:   1 << 40,
		TotalSlotMS:           7200000,
		DataProcessingCostUSD: 7.0,
		ComputeCostUSD:        1.0,
	}}
	a := NewAggregator(store, src, fixedBudget(10.0))

	day := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	rec, err := a.RecordDaily(context.Background(), day)
	if err != nil {
		t.Fatalf("RecordDaily: %v", err)
	}

	if rec.Date != "2026-08-27" {
		t.Errorf("Date = %q, want 2026-08-27", rec.Date)
	}
	if rec.TotalCostUSD != 8.0 || rec.TotalQueries != 4 || rec.FailedQueries != 1 {
		t.Errorf("record totals wrong: %+v", rec)
	}
	if rec.BudgetRemainingUSD != 2.0 {
		t.Errorf("BudgetRemainingUSD = %v, want 2.0", rec.BudgetRemainingUSD)
	}
	if rec.BudgetUtilizationPct != 80.0 {
		t.Errorf("BudgetUtilizationPct = %v, want 80.0", rec.BudgetUtilizationPct)
	}
}

func TestRecordDailyReplacesOnReRecord(t *testing.T) {
	store := newFakeHistoryStore()
	src := &fakeLedgerSource{summary: &ledger.Summary{TotalActualUSD: 5.0, TotalOperations: 1}}
	a := NewAggregator(store, src, fixedBudget(10.0))
	ctx := context.Background()
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	if _, err := a.RecordDaily(ctx, day); err != nil {
		t.Fatalf("RecordDaily: %v", err)
	}
	src.summary = &ledger.Summary{TotalActualUSD: 9.0, TotalOperations: 2}
	if _, err := a.RecordDaily(ctx, day); err != nil {
		t.Fatalf("RecordDaily: %v", err)
	}

	daily, err := a.Query(ctx, day, day, GranularityDaily)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(daily) != 1 {
		t.Fatalf("got %d records for one date, want 1", len(daily))
	}
	if daily[0].TotalCostUSD != 9.0 {
		t.Errorf("TotalCostUSD = %v, want the re-recorded 9.0", daily[0].TotalCostUSD)
	}
}

// ============================================================================
// Query / Bucketing Tests
// ============================================================================

func TestBucketKeys(t *testing.T) {
	tests := []struct {
		date string
		g    Granularity
		want string
	}{
		{"2026-08-27", GranularityWeekly, "2026-08-24"}, // Thursday -> Monday
		{"2026-08-24", GranularityWeekly, "2026-08-24"}, // Monday -> itself
		{"2026-08-30", GranularityWeekly, "2026-08-24"}, // Sunday -> prior Monday
		{"2026-08-27", GranularityMonthly, "2026-08"},
		{"2026-02-10", GranularityQuarterly, "2026-Q1"},
		{"2026-08-27", GranularityQuarterly, "2026-Q3"},
		{"2026-12-31", GranularityQuarterly, "2026-Q4"},
		{"2026-08-27", GranularityYearly, "2026"},
	}
	for _, tt := range tests {
		got, err := bucketKey(tt.date, tt.g)
		if err != nil {
			t.Errorf("bucketKey(%s, %s): %v", tt.date, tt.g, err)
			continue
		}
		if got != tt.want {
			t.Errorf("bucketKey(%s, %s) = %q, want %q", tt.date, tt.g, got, tt.want)
		}
	}
}

func TestQueryMonthlyAggregationMatchesDailySum(t *testing.T) {
	store := newFakeHistoryStore()
	a := NewAggregator(store, &fakeLedgerSource{summary: &ledger.Summary{}}, fixedBudget(10))

	// An arbitrary partition of days across one month.
	store.seed("2026-08-03", 4.0, 2)
	store.seed("2026-08-11", 6.0, 1)
	store.seed("2026-08-27", 2.0, 3)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	daily, err := a.Query(context.Background(), start, end, GranularityDaily)
	if err != nil {
		t.Fatalf("Query daily: %v", err)
	}
	var dailySum float64
	for _, rec := range daily {
		dailySum += rec.TotalCostUSD
	}

	monthly, err := a.Query(context.Background(), start, end, GranularityMonthly)
	if err != nil {
		t.Fatalf("Query monthly: %v", err)
	}
	if len(monthly) != 1 {
		t.Fatalf("got %d monthly buckets, want 1", len(monthly))
	}
	m := monthly[0]
	if m.Date != "2026-08" {
		t.Errorf("bucket key = %q, want 2026-08", m.Date)
	}
	if !almostEqual(m.TotalCostUSD, dailySum) {
		t.Errorf("monthly total %v != daily sum %v", m.TotalCostUSD, dailySum)
	}
	if m.TotalQueries != 6 {
		t.Errorf("TotalQueries = %d, want 6", m.TotalQueries)
	}

	// Average recomputed from bucket totals, not averaged across days.
	if !almostEqual(m.AvgQueryCostUSD, 12.0/6.0) {
		t.Errorf("AvgQueryCostUSD = %v, want 2.0", m.AvgQueryCostUSD)
	}
}

func TestQueryWeeklySplitsAcrossMondays(t *testing.T) {
	store := newFakeHistoryStore()
	a := NewAggregator(store, &fakeLedgerSource{summary: &ledger.Summary{}}, fixedBudget(10))

	store.seed("2026-08-21", 1.0, 1) // Friday, week of 08-17
	store.seed("2026-08-23", 2.0, 1) // Sunday, week of 08-17
	store.seed("2026-08-24", 4.0, 1) // Monday, week of 08-24

	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	weekly, err := a.Query(context.Background(), start, end, GranularityWeekly)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(weekly) != 2 {
		t.Fatalf("got %d weekly buckets, want 2", len(weekly))
	}
	if weekly[0].Date != "2026-08-17" || !almostEqual(weekly[0].TotalCostUSD, 3.0) {
		t.Errorf("first week = %q/%v, want 2026-08-17/3.0", weekly[0].Date, weekly[0].TotalCostUSD)
	}
	if weekly[1].Date != "2026-08-24" || !almostEqual(weekly[1].TotalCostUSD, 4.0) {
		t.Errorf("second week = %q/%v, want 2026-08-24/4.0", weekly[1].Date, weekly[1].TotalCostUSD)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
