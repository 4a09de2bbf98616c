/*
Package schedule resolves delivery dates at ten-day-term granularity.

PURPOSE:
  This package contains the calendar math behind every delivery promise the
  platform makes. A promise is never a single day - it is a "term": one of
  the three ten-day divisions of a calendar month (early/middle/late, the
  Japanese 上旬/中旬/下旬). The package turns either "today" or an explicit
  delivery tag into a Schedule value, renders it for a locale, and selects
  across many schedules (latest / earliest).

KEY CONCEPTS IN THIS FILE (schedule.go):
  - Term: one ten-day division of a month (Early, Middle, Late)
  - Schedule: an immutable resolved (year, month, term) with rendered text
  - Numeric: a sortable integer key, year*1000 + month*10 + termIndex

DESIGN PRINCIPLES:
  1. Immutability: Schedules are constructed fully populated, never mutated
  2. Determinism: "today" is always an explicit parameter, never the clock
  3. Localization: rendered text is part of the value, chosen at construction

USAGE:
  s := schedule.New(2022, time.December, schedule.TermEarly, schedule.LocaleJA)
  fmt.Println(s.Text)    // 2022年12月上旬
  fmt.Println(s.SubText) // 12/1〜12/10

SEE ALSO:
  - resolver.go: tag / today resolution and the rolling cutover rule
  - aggregate.go: latest/earliest selection across schedules
  - tag.go: the "YYYY-MM-term" wire form
*/
package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// TERM - One ten-day division of a calendar month
// =============================================================================

type Term int

const (
	TermEarly Term = iota // days 1-10
	TermMiddle            // days 11-20
	TermLate              // days 21 to end of month
)

// Index returns the sortable position of the term within its month.
func (t Term) Index() int { return int(t) }

// Key is the serialized form used in delivery tags and JSON ("early", ...).
func (t Term) Key() string {
	switch t {
	case TermEarly:
		return "early"
	case TermMiddle:
		return "middle"
	default:
		return "late"
	}
}

// =============================================================================
// LOCALE
// =============================================================================

type Locale string

const (
	LocaleJA Locale = "ja"
	LocaleEN Locale = "en"
)

// =============================================================================
// SCHEDULE - Resolved (year, month, term) value object
// =============================================================================

// Schedule is a fully resolved delivery window. Two schedules compare by
// Numeric: equal Numeric means the same (year, month, term).
type Schedule struct {
	Year      int
	Month     int // 1..12
	Term      Term
	TermIndex int
	Numeric   int
	Text      string
	SubText   string

	// Texts holds the labels of the seven terms ending at this one, oldest
	// first. Only populated for UI history lists; see History in resolver.go.
	Texts []string
}

// New constructs a Schedule for an explicit year/month/term, rendered for loc.
func New(year int, month time.Month, term Term, loc Locale) Schedule {
	return Schedule{
		Year:      year,
		Month:     int(month),
		Term:      term,
		TermIndex: term.Index(),
		Numeric:   NumericKey(year, month, term),
		Text:      renderText(year, month, term, loc),
		SubText:   renderSubText(year, month, term, loc),
	}
}

// NumericKey computes the sortable key. It is injective and order-preserving
// for any year 0000-9999 and month 1-12: the month occupies two decimal
// digits (x10) and the term index one.
func NumericKey(year int, month time.Month, term Term) int {
	return year*1000 + int(month)*10 + term.Index()
}

// Before reports whether s is chronologically before other.
func (s Schedule) Before(other Schedule) bool { return s.Numeric < other.Numeric }

// After reports whether s is chronologically after other.
func (s Schedule) After(other Schedule) bool { return s.Numeric > other.Numeric }

// =============================================================================
// RENDERING
// =============================================================================

// termBounds returns the first and last day of the term within its month.
// The late term ends on the real last day of the month (leap-year aware).
func termBounds(year int, month time.Month, term Term) (int, int) {
	switch term {
	case TermEarly:
		return 1, 10
	case TermMiddle:
		return 11, 20
	default:
		return 21, lastDayOfMonth(year, month)
	}
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

var jaTermLabels = [3]string{"上旬", "中旬", "下旬"}
var enTermLabels = [3]string{"early", "mid", "late"}

func renderText(year int, month time.Month, term Term, loc Locale) string {
	if loc == LocaleEN {
		return fmt.Sprintf("%s %s. %d", enTermLabels[term.Index()], month.String()[:3], year)
	}
	return fmt.Sprintf("%d年%d月%s", year, int(month), jaTermLabels[term.Index()])
}

func renderSubText(year int, month time.Month, term Term, loc Locale) string {
	begin, end := termBounds(year, month, term)
	if loc == LocaleEN {
		return fmt.Sprintf("%s. %d - %d", month.String()[:3], begin, end)
	}
	return fmt.Sprintf("%d/%d〜%d/%d", int(month), begin, int(month), end)
}
