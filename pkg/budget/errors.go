package budget

import "fmt"

// ConfigurationError reports an invalid rule submitted for creation or
// update. Invalid rules are rejected, never silently accepted.
type ConfigurationError struct {
	// RuleName identifies the offending rule.
	RuleName string

	// Field is the invalid field.
	Field string

	// Reason describes the constraint that failed.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid rule %q: field %s: %s", e.RuleName, e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(ruleName, field, reason string) *ConfigurationError {
	return &ConfigurationError{RuleName: ruleName, Field: field, Reason: reason}
}

// RuleNotFoundError reports an update or delete on an unknown rule ID.
type RuleNotFoundError struct {
	RuleID string
}

// Error implements the error interface.
func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("budget rule not found: %s", e.RuleID)
}

// NewRuleNotFoundError creates a RuleNotFoundError.
func NewRuleNotFoundError(ruleID string) *RuleNotFoundError {
	return &RuleNotFoundError{RuleID: ruleID}
}

// ViolationNotFoundError reports a resolve on an unknown violation ID.
type ViolationNotFoundError struct {
	ViolationID string
}

// Error implements the error interface.
func (e *ViolationNotFoundError) Error() string {
	return fmt.Sprintf("budget violation not found: %s", e.ViolationID)
}

// NewViolationNotFoundError creates a ViolationNotFoundError.
func NewViolationNotFoundError(violationID string) *ViolationNotFoundError {
	return &ViolationNotFoundError{ViolationID: violationID}
}
