package allocation

import (
	"errors"
	"fmt"
)

// Sentinel errors for input validation. Allocation rejects bad data rather
// than coercing it; the caller fixes the data and retries.
var (
	ErrNegativeQuantity = errors.New("negative quantity")
	ErrFaultyRateRange  = errors.New("faulty rate must be in [0, 1)")
)

// InputError reports which field failed validation.
type InputError struct {
	Field string
	Value any
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid allocation input: %s = %v: %v", e.Field, e.Value, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
