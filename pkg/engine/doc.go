// Package engine assembles the cost-governance components behind one
// facade: cost estimation, budget admission, ledger tracking,
// post-execution enforcement, and history analytics.
//
// # Overview
//
// The intended call sequence per operation is:
//
//	est, _ := eng.EstimateCost(ctx, op)
//	adm := eng.CanExecute(ctx, op)
//	if adm.Decision.Allowed {
//	    result, err := run(op)
//	    eng.Track(ctx, engine.TrackRequest{...})
//	}
//
// Every call is synchronous: CanExecute completes before the caller
// proceeds, and Track settles spend, enforces rules, and records
// violations before returning. Callers must call Track on both success
// and failure paths; an operation that is admitted but never tracked
// leaves its reservation to expire with the calendar window.
//
// A failed cost estimate denies admission by default: unknown cost is
// never treated as zero. Set Config.AllowUnestimated to admit such
// operations against cumulative limits only.
package engine
