// Package estimator produces projected monetary costs for proposed
// operations before they run.
//
// An estimate combines a zero-cost dry run against the execution backend
// (which reports the byte volume the operation would scan) with the pricing
// table. A failed dry run never degrades to a zero estimate: it returns an
// EstimationError so callers can apply a conservative admission policy
// instead of letting unknown-cost operations bypass budget limits.
package estimator
