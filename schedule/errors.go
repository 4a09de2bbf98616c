package schedule

import (
	"errors"
	"fmt"
)

// ErrMalformedTag is returned when a delivery tag does not match the
// "YYYY-MM-{early|middle|late}" form. Use with errors.Is().
var ErrMalformedTag = errors.New("malformed delivery tag")

// MalformedTagError carries the offending input and the first rule it broke.
type MalformedTagError struct {
	Raw    string
	Reason string
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("malformed delivery tag %q: %s", e.Raw, e.Reason)
}

func (e *MalformedTagError) Unwrap() error { return ErrMalformedTag }
