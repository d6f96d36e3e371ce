package estimator

import (
	"context"
	"errors"
	"math"
	"testing"

	"mercator-hq/saturn/pkg/backend"
	"mercator-hq/saturn/pkg/pricing"
)

func TestEstimator_Estimate(t *testing.T) {
	client := backend.NewMockClient(1 << 40) // 1 TiB
	table := pricing.NewTable(pricing.DefaultRates())
	est := New(client, table)

	estimate, err := est.Estimate(context.Background(), "SELECT * FROM events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if estimate.ResourceBytes != 1<<40 {
		t.Errorf("expected 1 TiB resource volume, got %d", estimate.ResourceBytes)
	}

	// $5 for the TiB plus the 1000 slot-ms surcharge
	want := table.EstimateCost(1 << 40)
	if math.Abs(estimate.ProjectedCostUSD-want) > 1e-9 {
		t.Errorf("expected projected cost %f, got %f", want, estimate.ProjectedCostUSD)
	}

	if estimate.ComputedAt.IsZero() {
		t.Error("expected ComputedAt to be set")
	}
}

func TestEstimator_Estimate_BackendFailure(t *testing.T) {
	client := backend.NewMockClient(0)
	client.SetUnavailable(true)
	est := New(client, pricing.NewTable(pricing.DefaultRates()))

	estimate, err := est.Estimate(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("expected error when backend is unavailable")
	}
	if estimate != nil {
		t.Error("expected nil estimate on failure, never a zero estimate")
	}

	var estErr *EstimationError
	if !errors.As(err, &estErr) {
		t.Errorf("expected EstimationError, got %T", err)
	}
}

func TestEstimator_Estimate_CanceledContext(t *testing.T) {
	client := backend.NewMockClient(100)
	est := New(client, pricing.NewTable(pricing.DefaultRates()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := est.Estimate(ctx, "SELECT 1"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNewEstimationError_TruncatesOperation(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	err := NewEstimationError(string(long), errors.New("boom"))
	if len(err.Operation) != 100 {
		t.Errorf("expected operation truncated to 100 chars, got %d", len(err.Operation))
	}
}
