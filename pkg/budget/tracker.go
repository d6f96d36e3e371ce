package budget

import (
	"sync"
	"time"
)

// Spend holds cumulative spend for the current calendar windows.
type Spend struct {
	DayUSD   float64
	WeekUSD  float64
	MonthUSD float64
}

// ForScope returns the spend amount for a cumulative scope. Per-operation
// has no cumulative spend and returns 0.
func (s Spend) ForScope(scope Scope) float64 {
	switch scope {
	case ScopeDaily:
		return s.DayUSD
	case ScopeWeekly:
		return s.WeekUSD
	case ScopeMonthly:
		return s.MonthUSD
	default:
		return 0
	}
}

// window accumulates spend for one calendar bucket. When the key rolls
// over, both settled and reserved amounts reset to zero.
type window struct {
	key         string
	settledUSD  float64
	reservedUSD float64
}

func (w *window) roll(key string) {
	if w.key != key {
		*w = window{key: key}
	}
}

// SpendTracker serializes admission against cumulative spend counters
// for the day, week, and month calendar windows (UTC). Admission
// reserves the projected cost atomically with the limit check, so
// concurrent operations cannot both be admitted when only one fits.
// Reservations that are never settled expire with their window.
type SpendTracker struct {
	mu    sync.Mutex
	day   window
	week  window
	month window
}

// NewSpendTracker creates an empty SpendTracker.
func NewSpendTracker() *SpendTracker {
	return &SpendTracker{}
}

// Admit evaluates an admission decision against committed spend
// (settled plus reserved) and, when the decision allows, reserves
// projectedUSD in all windows. Evaluation and reservation happen under
// one lock.
func (t *SpendTracker) Admit(now time.Time, projectedUSD float64, evaluate func(committed Spend) Decision) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked(now)

	decision := evaluate(Spend{
		DayUSD:   t.day.settledUSD + t.day.reservedUSD,
		WeekUSD:  t.week.settledUSD + t.week.reservedUSD,
		MonthUSD: t.month.settledUSD + t.month.reservedUSD,
	})
	if decision.Allowed && projectedUSD > 0 {
		t.day.reservedUSD += projectedUSD
		t.week.reservedUSD += projectedUSD
		t.month.reservedUSD += projectedUSD
	}
	return decision
}

// Settle converts a reservation into settled spend: reservedUSD is
// released and actualUSD is added to the settled totals. A zero
// reservedUSD settles an operation that was never admitted through
// this tracker.
func (t *SpendTracker) Settle(now time.Time, reservedUSD, actualUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked(now)

	for _, w := range []*window{&t.day, &t.week, &t.month} {
		w.reservedUSD -= reservedUSD
		if w.reservedUSD < 0 {
			w.reservedUSD = 0
		}
		w.settledUSD += actualUSD
	}
}

// AddSettled replays historical spend into the tracker, typically at
// startup from ledger records. Amounts whose timestamp falls outside
// the current calendar windows are skipped.
func (t *SpendTracker) AddSettled(now, ts time.Time, amountUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked(now)

	if dayKey(ts) == t.day.key {
		t.day.settledUSD += amountUSD
	}
	if weekKey(ts) == t.week.key {
		t.week.settledUSD += amountUSD
	}
	if monthKey(ts) == t.month.key {
		t.month.settledUSD += amountUSD
	}
}

// Settled returns the settled spend for the current windows, excluding
// outstanding reservations.
func (t *SpendTracker) Settled(now time.Time) Spend {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked(now)

	return Spend{
		DayUSD:   t.day.settledUSD,
		WeekUSD:  t.week.settledUSD,
		MonthUSD: t.month.settledUSD,
	}
}

func (t *SpendTracker) rollLocked(now time.Time) {
	t.day.roll(dayKey(now))
	t.week.roll(weekKey(now))
	t.month.roll(monthKey(now))
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// weekKey keys a week by the date of its Monday.
func weekKey(t time.Time) string {
	return mondayOf(t).Format("2006-01-02")
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// mondayOf returns midnight UTC of the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}
