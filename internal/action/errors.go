package action

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed or unknown action payload. It is fatal
// to the single action that carried it, not to the turn.
type ValidationError struct {
	// Tag is the discriminator that failed to resolve, empty when the tag was
	// known but a field was invalid.
	Tag string
	// Field names the first invalid field, empty for unknown-tag failures.
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Tag != "" && e.Field == "":
		return fmt.Sprintf("unknown action type %q: %s", e.Tag, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("invalid action field %q: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("invalid action payload: %s", e.Reason)
	}
}

// NotFoundError reports that locator resolution matched zero elements, or
// only ambiguous candidates, across every selector candidate.
type NotFoundError struct {
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no unambiguous element for any of the selectors: %s",
		strings.Join(e.Candidates, ", "))
}
