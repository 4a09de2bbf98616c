/*
aggregate.go - Latest / earliest selection across many schedules

PURPOSE:
  An order ships when its slowest line ships; a product page quotes the
  soonest window any variant can honor. Both reduce a collection of
  (Schedule | nil) values to one schedule by Numeric.

NIL HANDLING IS ASYMMETRIC - ON PURPOSE:
  Latest:   a nil entry counts as TODAY'S DEFAULT schedule. This is the
            "floor to today" safeguard: a list of stale past windows can
            never beat today, and an all-nil input still yields a usable
            schedule. Callers floor a resolved tag by passing it alongside
            an explicit nil entry.
  Earliest: a nil entry counts as a FAR-FUTURE sentinel, so one unknown
            entry does not drag "earliest" down to nothing. Only when every
            entry is nil does Earliest fall back to today's default.

  Both behaviors are load-bearing at their call sites (promise flooring and
  order folding). Do not "fix" the asymmetry; pre-filter nils if you need
  strict earliest-of-present-values semantics.

TIES:
  Broken by first occurrence. Numeric equality means the same window, so
  the choice is immaterial.
*/
package schedule

import "time"

// farFuture sorts after every real schedule (year 9999, late December).
const farFuture = 9999*1000 + 12*10 + 2 + 1

// Latest returns the chronologically latest of scheds, treating each nil
// entry as today's default schedule. An empty input returns nil.
func Latest(today time.Time, loc Locale, scheds []*Schedule) *Schedule {
	if len(scheds) == 0 {
		return nil
	}

	def := Today(today, loc)
	best := &def
	found := false
	for _, s := range scheds {
		cand := s
		if cand == nil {
			cand = &def
		}
		if !found || cand.Numeric > best.Numeric {
			best = cand
			found = true
		}
	}
	return best
}

// Earliest returns the chronologically earliest of scheds, treating each nil
// entry as a far-future sentinel. If every entry is nil it returns today's
// default schedule. An empty input returns nil.
func Earliest(today time.Time, loc Locale, scheds []*Schedule) *Schedule {
	if len(scheds) == 0 {
		return nil
	}

	var best *Schedule
	bestKey := farFuture
	for _, s := range scheds {
		key := farFuture
		if s != nil {
			key = s.Numeric
		}
		if best == nil && key == farFuture {
			continue
		}
		if best == nil || key < bestKey {
			best = s
			bestKey = key
		}
	}
	if best == nil {
		def := Today(today, loc)
		return &def
	}
	return best
}
