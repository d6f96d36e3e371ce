// Package history rolls daily spending into calendar aggregates and
// derives trends and anomalies from them.
//
// # Overview
//
// The Aggregator folds one day of ledger activity and budget state into
// a CostHistoryRecord. Daily records are the only persisted
// granularity; weekly, monthly, quarterly, and yearly views are
// recomputed from daily records on every query, so re-recording a day
// transparently corrects every derived view.
//
// Trend analysis compares consecutive period aggregates: N periods
// yield N-1 trends, and a change within five percent of the prior
// period counts as stable. Anomaly detection z-scores daily totals
// against the window mean and flags days more than two population
// standard deviations out. Both return empty results, not errors, when
// the window holds too little data.
package history
