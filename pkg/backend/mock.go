package backend

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scriptable Client implementation for testing.
// Per-operation results can be registered with SetResult; operations without
// a registered result fall back to the default volume. Failure injection via
// SetUnavailable makes every dry run fail, simulating an unreachable backend.
type MockClient struct {
	mu           sync.Mutex
	results      map[string]int64
	defaultBytes int64
	unavailable  bool
	dryRunCalls  int
}

// NewMockClient creates a mock backend whose dry runs report defaultBytes
// for any operation without a registered result.
func NewMockClient(defaultBytes int64) *MockClient {
	return &MockClient{
		results:      make(map[string]int64),
		defaultBytes: defaultBytes,
	}
}

// SetResult registers the byte volume reported for a specific operation.
func (m *MockClient) SetResult(operation string, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[operation] = bytes
}

// SetUnavailable controls failure injection for all subsequent dry runs.
func (m *MockClient) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// DryRunCalls returns the number of DryRun invocations observed.
func (m *MockClient) DryRunCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dryRunCalls
}

// DryRun implements Client.
func (m *MockClient) DryRun(ctx context.Context, operation string) (*DryRunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.dryRunCalls++

	if m.unavailable {
		return nil, fmt.Errorf("backend unavailable")
	}

	bytes, ok := m.results[operation]
	if !ok {
		bytes = m.defaultBytes
	}

	return &DryRunResult{BytesProcessed: bytes}, nil
}
