/*
tag.go - The "YYYY-MM-term" wire form of a delivery schedule override

PURPOSE:
  Delivery tags are how inventory batches and catalog override rules carry a
  schedule through storage and APIs: "2022-12-early". Parsing is strict -
  a malformed tag is a data error the caller must surface, never coerce.

SEE ALSO:
  - errors.go: ErrMalformedTag and MalformedTagError
*/
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tag identifies an explicit year/month/term override.
type Tag struct {
	Year  int
	Month time.Month
	Term  Term
}

// ParseTag parses the "YYYY-MM-{early|middle|late}" form. It fails fast on
// any deviation: wrong field count, non-numeric year/month, month outside
// 1-12, unknown term word.
func ParseTag(raw string) (*Tag, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return nil, &MalformedTagError{Raw: raw, Reason: "expected three dash-separated fields"}
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 || year < 0 {
		return nil, &MalformedTagError{Raw: raw, Reason: "year must be four digits"}
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return nil, &MalformedTagError{Raw: raw, Reason: "month must be 01-12"}
	}

	var term Term
	switch parts[2] {
	case "early":
		term = TermEarly
	case "middle":
		term = TermMiddle
	case "late":
		term = TermLate
	default:
		return nil, &MalformedTagError{Raw: raw, Reason: "term must be early, middle or late"}
	}

	return &Tag{Year: year, Month: time.Month(month), Term: term}, nil
}

// String renders the wire form back out.
func (t Tag) String() string {
	return fmt.Sprintf("%04d-%02d-%s", t.Year, int(t.Month), t.Term.Key())
}
