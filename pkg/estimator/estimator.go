package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/saturn/pkg/backend"
	"mercator-hq/saturn/pkg/pricing"
)

// CostEstimate is the projected cost of a proposed operation. Estimates are
// ephemeral: produced per call, never persisted.
type CostEstimate struct {
	// ProjectedCostUSD is the projected monetary cost.
	ProjectedCostUSD float64

	// ResourceBytes is the byte volume the dry run reported.
	ResourceBytes int64

	// ComputedAt is when the estimate was produced.
	ComputedAt time.Time
}

// EstimationError indicates that the cost of an operation could not be
// determined (backend unreachable, malformed operation). Callers must treat
// the cost as unknown, not as zero.
type EstimationError struct {
	Operation string // Operation descriptor (possibly truncated)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *EstimationError) Error() string {
	return fmt.Sprintf("cost estimation failed: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *EstimationError) Unwrap() error {
	return e.Cause
}

// NewEstimationError creates a new EstimationError.
func NewEstimationError(operation string, cause error) *EstimationError {
	if len(operation) > 100 {
		operation = operation[:100]
	}
	return &EstimationError{
		Operation: operation,
		Cause:     cause,
	}
}

// Estimator projects the cost of proposed operations via backend dry runs.
type Estimator struct {
	client backend.Client
	table  *pricing.Table
	logger *slog.Logger
}

// New creates an estimator backed by the given client and pricing table.
func New(client backend.Client, table *pricing.Table) *Estimator {
	return &Estimator{
		client: client,
		table:  table,
		logger: slog.Default().With("component", "estimator"),
	}
}

// Estimate performs a dry run of the operation and prices the reported
// resource volume. Returns an EstimationError if the dry run fails.
func (e *Estimator) Estimate(ctx context.Context, operation string) (*CostEstimate, error) {
	result, err := e.client.DryRun(ctx, operation)
	if err != nil {
		e.logger.Warn("dry run failed",
			"error", err,
		)
		return nil, NewEstimationError(operation, err)
	}

	estimate := &CostEstimate{
		ProjectedCostUSD: e.table.EstimateCost(result.BytesProcessed),
		ResourceBytes:    result.BytesProcessed,
		ComputedAt:       time.Now(),
	}

	e.logger.Debug("operation cost estimated",
		"bytes", result.BytesProcessed,
		"projected_cost_usd", estimate.ProjectedCostUSD,
	)

	return estimate, nil
}
