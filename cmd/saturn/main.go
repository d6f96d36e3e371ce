// Saturn is a cost governance engine for data warehouse workloads.
//
// It tracks operation costs against configurable budgets, providing:
//   - Pre-execution admission checks against projected costs
//   - A persistent cost ledger with per-operation attribution
//   - Threshold-based budget rules with warning and violation levels
//   - Daily cost rollups, trend analysis, and anomaly detection
//   - Scheduled retention pruning of aged records
//
// Usage:
//
//	# Start the governance server with default configuration
//	saturn run
//
//	# Start with custom configuration file
//	saturn run --config /path/to/config.yaml
//
//	# Show current budget status
//	saturn status
//
//	# Rebuild daily history rollups for the past month
//	saturn backfill --days 30
//
//	# Show version information
//	saturn version
package main

func main() {
	Execute()
}
