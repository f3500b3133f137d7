package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a referenced entry does not exist.
var ErrNotFound = errors.New("entry not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create an entry that already exists.
var ErrDuplicate = errors.New("entry already exists")

// ErrDatabase indicates a failure in the underlying store.
var ErrDatabase = errors.New("database error")

// ErrConversion indicates a currency conversion failure.
var ErrConversion = errors.New("conversion error")

// ErrInvalidDateRange indicates that a start date was not strictly before its end date.
var ErrInvalidDateRange = errors.New("invalid date range: start must be before end")

// ErrMixedCurrencies indicates an aggregation over entries in more than one
// currency with no converter available to normalize them.
var ErrMixedCurrencies = errors.New("entries span multiple currencies and no converter was supplied")

// ConversionError carries the failing currency pair and whether the failure is
// worth retrying. Network failures and timeouts are transient; an unknown
// currency or unsupported pair is permanent.
type ConversionError struct {
	From      string
	To        string
	Transient bool
	Err       error
}

func (e *ConversionError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Err != nil {
		return fmt.Sprintf("conversion error (%s) for %s->%s: %v", kind, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("conversion error (%s) for %s->%s", kind, e.From, e.To)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is makes every ConversionError match the ErrConversion sentinel.
func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// NewTransientConversionError wraps a retryable failure (network, timeout, bad
// response) for the given pair.
func NewTransientConversionError(from, to string, err error) *ConversionError {
	return &ConversionError{From: from, To: to, Transient: true, Err: err}
}

// NewPermanentConversionError wraps a failure that retrying cannot fix, such
// as an unsupported currency pair.
func NewPermanentConversionError(from, to string, err error) *ConversionError {
	return &ConversionError{From: from, To: to, Transient: false, Err: err}
}
