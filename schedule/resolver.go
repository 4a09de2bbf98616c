/*
resolver.go - Tag and "today" resolution

PURPOSE:
  Turns either an explicit delivery tag or the current date into a Schedule.
  The today path carries the rolling cutover rule that absorbs fulfillment
  lead time: the last few days of a month already promise next month's early
  term, and each term window is attributed three days ahead of the naive
  1-10/11-20/21-31 split.

CUTOVER WINDOWS (today -> term):
  day 28..end  -> next month, early (year rolls over past December)
  day  1..7    -> this month, early
  day  8..17   -> this month, middle
  day 18..27   -> this month, late

  The rendered date ranges (SubText) still use the plain 1-10/11-20/21-end
  split; only the attribution of "today" is shifted.

SEE ALSO:
  - tag.go: parsing of explicit tags
  - aggregate.go: Latest, which callers use to floor a tag at today
*/
package schedule

import "time"

// Resolve turns an optional delivery tag into a Schedule. A nil tag resolves
// to today's default schedule; a non-nil tag is authoritative regardless of
// today. Callers that must never promise a past window additionally floor
// the result with Latest.
func Resolve(tag *Tag, today time.Time, loc Locale) Schedule {
	if tag == nil {
		return Today(today, loc)
	}
	return New(tag.Year, tag.Month, tag.Term, loc)
}

// Today computes the current default schedule from today using the cutover
// windows above.
func Today(today time.Time, loc Locale) Schedule {
	year, month, term := cutover(today)
	return New(year, month, term, loc)
}

func cutover(today time.Time) (int, time.Month, Term) {
	year, month, day := today.Date()
	switch {
	case day >= 28:
		month++
		if month > time.December {
			month = time.January
			year++
		}
		return year, month, TermEarly
	case day <= 7:
		return year, month, TermEarly
	case day <= 17:
		return year, month, TermMiddle
	default:
		return year, month, TermLate
	}
}

// =============================================================================
// TERM HISTORY - Labels for UI display lists
// =============================================================================

// historyAnchorDay is the fixed day-of-month each term steps back from.
var historyAnchorDay = [3]int{8, 18, 28}

// History returns the schedule with Texts populated: the labels of the seven
// terms ending at s, oldest first. The walk steps back ten calendar days at
// a time from a fixed anchor day per term and classifies each date with the
// plain 1-10/11-20/21-end split. Stepping by a flat ten days is an
// approximation around month boundaries; the list only feeds display, never
// the authoritative schedule, so the drift is accepted.
func History(s Schedule, loc Locale) Schedule {
	const historyLen = 7

	at := time.Date(s.Year, time.Month(s.Month), historyAnchorDay[s.TermIndex], 0, 0, 0, 0, time.UTC)
	labels := make([]string, historyLen)
	labels[historyLen-1] = s.Text
	for i := historyLen - 2; i >= 0; i-- {
		at = at.AddDate(0, 0, -10)
		labels[i] = renderText(at.Year(), at.Month(), termOfDay(at.Day()), loc)
	}

	s.Texts = labels
	return s
}

// termOfDay classifies a day of month with the plain ten-day split,
// without the cutover shift.
func termOfDay(day int) Term {
	switch {
	case day <= 10:
		return TermEarly
	case day <= 20:
		return TermMiddle
	default:
		return TermLate
	}
}
