package backend

import (
	"context"
	"errors"
	"time"
)

// Client is the minimal surface the engine requires from an execution
// backend. Implementations must be safe for concurrent use.
type Client interface {
	// DryRun validates the operation and returns the resource volume it
	// would consume, without executing it or incurring cost.
	// Returns an error if the backend is unreachable or the operation is
	// malformed; the engine treats any error as "cost unknown".
	DryRun(ctx context.Context, operation string) (*DryRunResult, error)
}

// DryRunResult contains the backend's resource estimate for an operation.
type DryRunResult struct {
	// BytesProcessed is the volume of data the operation would scan.
	BytesProcessed int64
}

// ErrNoBackend is returned by the unconfigured client for every dry run.
var ErrNoBackend = errors.New("no execution backend configured")

// Unconfigured returns a Client whose DryRun always fails with
// ErrNoBackend. Deployments where callers estimate costs themselves and
// report them over the API use it in place of a real backend.
func Unconfigured() Client {
	return unconfigured{}
}

type unconfigured struct{}

func (unconfigured) DryRun(ctx context.Context, operation string) (*DryRunResult, error) {
	return nil, ErrNoBackend
}

// ExecutionResult describes the actual resource consumption of a completed
// operation, as reported by the caller after execution.
type ExecutionResult struct {
	// BytesProcessed is the volume of data actually scanned.
	BytesProcessed int64

	// SlotMilliseconds is the compute time consumed, in slot-milliseconds.
	SlotMilliseconds int64

	// Duration is the wall-clock execution time.
	Duration time.Duration
}
