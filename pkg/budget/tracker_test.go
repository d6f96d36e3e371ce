package budget

import (
	"sync"
	"testing"
	"time"
)

func allowAll(Spend) Decision {
	return Decision{Allowed: true, Action: ActionAllow}
}

// ============================================================================
// Window Key Tests
// ============================================================================

func TestWeekKeyedByMonday(t *testing.T) {
	// 2026-08-27 is a Thursday; its week is keyed by Monday 2026-08-24.
	thursday := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)
	if got := weekKey(thursday); got != "2026-08-24" {
		t.Errorf("weekKey = %q, want 2026-08-24", got)
	}

	// A Monday keys its own week.
	monday := time.Date(2026, 8, 24, 0, 30, 0, 0, time.UTC)
	if got := weekKey(monday); got != "2026-08-24" {
		t.Errorf("weekKey(monday) = %q, want 2026-08-24", got)
	}

	// Sunday belongs to the preceding Monday's week.
	sunday := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	if got := weekKey(sunday); got != "2026-08-24" {
		t.Errorf("weekKey(sunday) = %q, want 2026-08-24", got)
	}
}

func TestWindowRollResetsSpend(t *testing.T) {
	tr := NewSpendTracker()
	day1 := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	tr.Settle(day1, 0, 3.0)
	if got := tr.Settled(day1).DayUSD; got != 3.0 {
		t.Fatalf("DayUSD = %v, want 3.0", got)
	}

	// Next day: daily spend resets, weekly and monthly carry over.
	spend := tr.Settled(day2)
	if spend.DayUSD != 0 {
		t.Errorf("DayUSD after roll = %v, want 0", spend.DayUSD)
	}
	if spend.WeekUSD != 3.0 {
		t.Errorf("WeekUSD after roll = %v, want 3.0", spend.WeekUSD)
	}
	if spend.MonthUSD != 3.0 {
		t.Errorf("MonthUSD after roll = %v, want 3.0", spend.MonthUSD)
	}
}

// ============================================================================
// Reservation Tests
// ============================================================================

func TestAdmitReservesOnAllow(t *testing.T) {
	tr := NewSpendTracker()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tr.Admit(now, 2.0, allowAll)

	// Reservations count against committed spend for the next admit.
	var seen Spend
	tr.Admit(now, 0, func(committed Spend) Decision {
		seen = committed
		return Decision{Allowed: false, Action: ActionBlock}
	})
	if seen.DayUSD != 2.0 || seen.WeekUSD != 2.0 || seen.MonthUSD != 2.0 {
		t.Errorf("committed = %+v, want 2.0 in all windows", seen)
	}

	// Denied admits reserve nothing; settled spend excludes reservations.
	if got := tr.Settled(now).DayUSD; got != 0 {
		t.Errorf("Settled.DayUSD = %v, want 0", got)
	}
}

func TestSettleConvertsReservation(t *testing.T) {
	tr := NewSpendTracker()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tr.Admit(now, 2.0, allowAll)
	tr.Settle(now, 2.0, 2.5)

	if got := tr.Settled(now).DayUSD; got != 2.5 {
		t.Errorf("Settled.DayUSD = %v, want 2.5", got)
	}

	var seen Spend
	tr.Admit(now, 0, func(committed Spend) Decision {
		seen = committed
		return Decision{Allowed: false}
	})
	if seen.DayUSD != 2.5 {
		t.Errorf("committed.DayUSD = %v, want 2.5 (reservation released)", seen.DayUSD)
	}
}

func TestAdmitClosesAdmissionRace(t *testing.T) {
	tr := NewSpendTracker()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	const limit = 10.0

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := tr.Admit(now, 1.0, func(committed Spend) Decision {
				if committed.DayUSD+1.0 > limit {
					return Decision{Allowed: false, Action: ActionBlock}
				}
				return Decision{Allowed: true, Action: ActionAllow}
			})
			if d.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 10 {
		t.Errorf("admitted %d operations under a $10 limit at $1 each, want exactly 10", admitted)
	}
}

func TestAddSettledSkipsStaleTimestamps(t *testing.T) {
	tr := NewSpendTracker()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tr.AddSettled(now, now.Add(-2*time.Hour), 1.0)            // same day
	tr.AddSettled(now, now.AddDate(0, 0, -2), 4.0)            // same week, earlier day
	tr.AddSettled(now, now.AddDate(0, 0, -20), 8.0)           // same month only
	tr.AddSettled(now, now.AddDate(0, -2, 0), 16.0)           // outside all windows

	spend := tr.Settled(now)
	if spend.DayUSD != 1.0 {
		t.Errorf("DayUSD = %v, want 1.0", spend.DayUSD)
	}
	if spend.WeekUSD != 5.0 {
		t.Errorf("WeekUSD = %v, want 5.0", spend.WeekUSD)
	}
	if spend.MonthUSD != 13.0 {
		t.Errorf("MonthUSD = %v, want 13.0", spend.MonthUSD)
	}
}
