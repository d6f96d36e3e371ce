// Package backend defines the contract between the cost-governance engine
// and the external execution backend that actually runs metered operations.
//
// The engine never executes operations itself. It only needs two things from
// the backend: a zero-cost dry run that returns the resource volume an
// operation would consume, and (after the caller has executed the operation)
// the actual resource consumption. The real backend client belongs to the
// caller; this package defines the interface, a scriptable mock for tests,
// and an Unconfigured client for deployments where callers estimate costs
// themselves and report them over the API.
package backend
