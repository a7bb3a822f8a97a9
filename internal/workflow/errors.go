package workflow

import (
	"errors"
	"fmt"
)

// Error kinds recognized by the retry policy. Kinds listed in the policy's
// non-retryable set fail the activity on the first occurrence.
const (
	KindValidation = "validation"
	KindMissingKey = "missing_key"
	KindTransient  = "transient"
)

// ActivityError wraps an activity failure with a kind the retry policy can
// classify. Expected failures travel as values, never as panics.
type ActivityError struct {
	Kind string
	Err  error
}

func NewActivityError(kind string, err error) *ActivityError {
	return &ActivityError{Kind: kind, Err: err}
}

func (e *ActivityError) Error() string {
	return fmt.Sprintf("activity failed (%s): %v", e.Kind, e.Err)
}

func (e *ActivityError) Unwrap() error { return e.Err }

// KindOf extracts the activity error kind from an error chain. Unclassified
// errors are treated as transient.
func KindOf(err error) string {
	var ae *ActivityError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransient
}
