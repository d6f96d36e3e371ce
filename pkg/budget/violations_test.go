package budget

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ============================================================================
// Record / List Tests
// ============================================================================

func TestRecordAssignsIdentity(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	v := vlog.Record(context.Background(), &Violation{
		RuleID: "r1",
		Kind:   KindThresholdExceeded,
		Action: ActionWarn,
	})
	if v.ID == "" {
		t.Error("Record left ID empty")
	}
	if v.Timestamp.IsZero() {
		t.Error("Record left Timestamp zero")
	}
}

func TestListFiltersByResolution(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	ctx := context.Background()

	a := vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded, Action: ActionWarn})
	vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindLimitExceeded, Action: ActionBlock})
	if err := vlog.Resolve(ctx, a.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	resolved := true
	if got := vlog.List(30, &resolved); len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("List(resolved) returned %d, want the resolved violation", len(got))
	}
	unresolved := false
	if got := vlog.List(30, &unresolved); len(got) != 1 {
		t.Errorf("List(unresolved) returned %d, want 1", len(got))
	}
	if got := vlog.List(30, nil); len(got) != 2 {
		t.Errorf("List(nil) returned %d, want 2", len(got))
	}
}

func TestListExcludesOldViolations(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	ctx := context.Background()

	vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded,
		Timestamp: time.Now().UTC().AddDate(0, 0, -40)})
	vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded})

	if got := vlog.List(30, nil); len(got) != 1 {
		t.Errorf("List(30) returned %d, want 1", len(got))
	}
}

// ============================================================================
// Resolve Tests
// ============================================================================

func TestResolveIsIdempotent(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	ctx := context.Background()

	v := vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded})
	if err := vlog.Resolve(ctx, v.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	first := *v.ResolvedAt

	// Second resolve is a no-op: still resolved, timestamp unchanged.
	if err := vlog.Resolve(ctx, v.ID); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !v.Resolved {
		t.Error("violation no longer resolved")
	}
	if !v.ResolvedAt.Equal(first) {
		t.Errorf("ResolvedAt changed: %v -> %v", first, *v.ResolvedAt)
	}
}

func TestResolveUnknownID(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	err := vlog.Resolve(context.Background(), "missing")
	var nfErr *ViolationNotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("Resolve error = %v, want ViolationNotFoundError", err)
	}
}

// ============================================================================
// Summarize Tests
// ============================================================================

func TestSummarize(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	ctx := context.Background()

	a := vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded, Action: ActionWarn})
	vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded, Action: ActionWarn})
	vlog.Record(ctx, &Violation{RuleID: "r2", Kind: KindEmergency, Action: ActionEmergencyStop})
	if err := vlog.Resolve(ctx, a.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	sum := vlog.Summarize(30)
	if sum.Total != 3 || sum.Resolved != 1 {
		t.Errorf("total/resolved = %d/%d, want 3/1", sum.Total, sum.Resolved)
	}
	if !almostEqualF(sum.ResolutionRate, 1.0/3.0) {
		t.Errorf("ResolutionRate = %v, want 1/3", sum.ResolutionRate)
	}
	if sum.ByKind[KindThresholdExceeded] != 2 || sum.ByKind[KindEmergency] != 1 {
		t.Errorf("ByKind = %v", sum.ByKind)
	}
	if sum.ByAction[ActionWarn] != 2 || sum.ByAction[ActionEmergencyStop] != 1 {
		t.Errorf("ByAction = %v", sum.ByAction)
	}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	vlog := NewViolationLog(newFakeViolationStore())
	sum := vlog.Summarize(30)
	if sum.Total != 0 || sum.ResolutionRate != 0 {
		t.Errorf("empty summary = %+v, want zeroes", sum)
	}
}

// ============================================================================
// Persistence Failure Tests
// ============================================================================

func TestViolationsRetainedAcrossStoreFailure(t *testing.T) {
	store := newFakeViolationStore()
	vlog := NewViolationLog(store)
	ctx := context.Background()

	store.fail = true
	vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindThresholdExceeded})
	if vlog.PendingWrites() != 1 {
		t.Fatalf("PendingWrites = %d, want 1", vlog.PendingWrites())
	}
	if len(vlog.List(1, nil)) != 1 {
		t.Fatal("unpersisted violation not visible in List")
	}

	store.fail = false
	vlog.Record(ctx, &Violation{RuleID: "r1", Kind: KindLimitExceeded})
	if vlog.PendingWrites() != 0 {
		t.Errorf("PendingWrites = %d, want 0", vlog.PendingWrites())
	}
	if store.count() != 2 {
		t.Errorf("store has %d violations, want 2", store.count())
	}
}

func almostEqualF(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
