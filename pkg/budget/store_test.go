package budget

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ============================================================================
// Shared Test Fakes
// ============================================================================

// fakeRuleStore is an in-memory RuleStore with switchable failure modes.
type fakeRuleStore struct {
	mu       sync.Mutex
	rules    map[string]*Rule
	failRead bool
	fail     bool
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{rules: make(map[string]*Rule)}
}

func (s *fakeRuleStore) SaveRule(_ context.Context, rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *fakeRuleStore) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	delete(s.rules, id)
	return nil
}

func (s *fakeRuleStore) ListRules(_ context.Context) ([]*Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errors.New("store unavailable")
	}
	out := make([]*Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeRuleStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// fakeViolationStore is an in-memory ViolationStore.
type fakeViolationStore struct {
	mu         sync.Mutex
	violations map[string]*Violation
	fail       bool
}

func newFakeViolationStore() *fakeViolationStore {
	return &fakeViolationStore{violations: make(map[string]*Violation)}
}

func (s *fakeViolationStore) SaveViolation(_ context.Context, v *Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.violations[v.ID] = v
	return nil
}

func (s *fakeViolationStore) ListViolations(_ context.Context, since time.Time) ([]*Violation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Violation
	for _, v := range s.violations {
		if !v.Timestamp.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeViolationStore) DeleteViolationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, v := range s.violations {
		if v.Timestamp.Before(cutoff) {
			delete(s.violations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeViolationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.violations)
}
