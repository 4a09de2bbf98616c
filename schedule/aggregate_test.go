package schedule_test

import (
	"testing"
	"time"

	"github.com/hakobune/delivery-engine/schedule"
)

// fixed reference date: default schedule is 2022-12 early (day 1 window)
var today = time.Date(2022, time.December, 1, 0, 0, 0, 0, time.UTC)

func sched(y int, m time.Month, term schedule.Term) *schedule.Schedule {
	s := schedule.New(y, m, term, schedule.LocaleJA)
	return &s
}

// =============================================================================
// LATEST
// =============================================================================

func TestLatest_PicksMaxNumeric(t *testing.T) {
	a := sched(2023, time.January, schedule.TermEarly)
	b := sched(2023, time.March, schedule.TermLate)
	c := sched(2023, time.February, schedule.TermMiddle)

	got := schedule.Latest(today, schedule.LocaleJA, []*schedule.Schedule{a, b, c})
	if got == nil || got.Numeric != b.Numeric {
		t.Fatalf("Latest = %+v, want %+v", got, b)
	}
}

func TestLatest_EmptyInputReturnsNil(t *testing.T) {
	if got := schedule.Latest(today, schedule.LocaleJA, nil); got != nil {
		t.Fatalf("Latest(nil) = %+v, want nil", got)
	}
}

func TestLatest_NilEntryEqualsTodayDefault(t *testing.T) {
	// GIVEN: a single nil entry
	// THEN: the result is today's default schedule
	def := schedule.Today(today, schedule.LocaleJA)
	got := schedule.Latest(today, schedule.LocaleJA, []*schedule.Schedule{nil})
	if got == nil || got.Numeric != def.Numeric {
		t.Fatalf("Latest([nil]) = %+v, want today default %+v", got, def)
	}
}

func TestLatest_FloorsPastScheduleAtToday(t *testing.T) {
	// GIVEN: a stale schedule from last year plus the nil floor entry
	stale := sched(2021, time.June, schedule.TermEarly)
	def := schedule.Today(today, schedule.LocaleJA)

	// WHEN: selecting the latest
	got := schedule.Latest(today, schedule.LocaleJA, []*schedule.Schedule{stale, nil})

	// THEN: today's default wins over the past window
	if got.Numeric != def.Numeric {
		t.Fatalf("Latest = %+v, want today default", got)
	}
}

// =============================================================================
// EARLIEST - nil handling is intentionally asymmetric to Latest
// =============================================================================

func TestEarliest_NilIsLateSentinel(t *testing.T) {
	// GIVEN: one real schedule and one nil
	real := sched(2023, time.May, schedule.TermMiddle)

	// WHEN: selecting the earliest
	got := schedule.Earliest(today, schedule.LocaleJA, []*schedule.Schedule{real, nil})

	// THEN: the nil does NOT drag the result to nothing; the real wins
	if got == nil || got.Numeric != real.Numeric {
		t.Fatalf("Earliest([real, nil]) = %+v, want real", got)
	}
}

func TestEarliest_AllNilFallsBackToTodayDefault(t *testing.T) {
	// Two strictly-nil entries must not crash and resolve to today-default.
	def := schedule.Today(today, schedule.LocaleJA)
	got := schedule.Earliest(today, schedule.LocaleJA, []*schedule.Schedule{nil, nil})
	if got == nil || got.Numeric != def.Numeric {
		t.Fatalf("Earliest([nil, nil]) = %+v, want today default", got)
	}
}

func TestEarliest_PicksMinNumeric(t *testing.T) {
	a := sched(2023, time.April, schedule.TermLate)
	b := sched(2023, time.April, schedule.TermEarly)

	got := schedule.Earliest(today, schedule.LocaleJA, []*schedule.Schedule{a, b})
	if got == nil || got.Numeric != b.Numeric {
		t.Fatalf("Earliest = %+v, want %+v", got, b)
	}
}

func TestEarliest_EmptyInputReturnsNil(t *testing.T) {
	if got := schedule.Earliest(today, schedule.LocaleJA, nil); got != nil {
		t.Fatalf("Earliest(nil) = %+v, want nil", got)
	}
}
