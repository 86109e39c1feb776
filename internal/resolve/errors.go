package resolve

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a target does not exist within the searched scope.
type NotFoundError struct {
	// Kind is the resource type, e.g. "workspace".
	Kind   string
	Target string
	// Scope describes where the search happened, e.g. "in organization 'acme'".
	Scope string
	// Errs holds lookups that failed for reasons other than not found.
	Errs []error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s '%s' not found", e.Kind, e.Target)
	if e.Scope != "" {
		msg += " " + e.Scope
	}
	if len(e.Errs) > 0 {
		parts := make([]string, len(e.Errs))
		for i, err := range e.Errs {
			parts[i] = err.Error()
		}
		msg += fmt.Sprintf(" (%d lookups failed: %s)", len(e.Errs), strings.Join(parts, "; "))
	}
	return msg
}

// Unwrap exposes the recorded lookup failures to errors.Is and errors.As.
func (e *NotFoundError) Unwrap() []error {
	return e.Errs
}

func orgScope(orgs []string) string {
	switch len(orgs) {
	case 0:
		return "(0 organizations searched)"
	case 1:
		return fmt.Sprintf("in organization '%s'", orgs[0])
	default:
		return fmt.Sprintf("in %d organizations", len(orgs))
	}
}
