package events

import (
	"fmt"
	"strings"
)

// HandlerFailure records one handler that returned an error.
type HandlerFailure struct {
	Handler string
	Err     error
}

// PublishError describes a fan-out that did not fully succeed. Handlers that
// ran successfully are not listed.
type PublishError struct {
	EventType Type
	Failures  []HandlerFailure
	// Skipped lists handlers that never ran because the context ended first.
	Skipped []string
}

func (e *PublishError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "publish %s:", e.EventType)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, " %s: %v;", f.Handler, f.Err)
	}
	if len(e.Skipped) > 0 {
		fmt.Fprintf(&b, " skipped %s", strings.Join(e.Skipped, ", "))
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Unwrap exposes the handler errors to errors.Is and errors.As.
func (e *PublishError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Interrupted reports whether some handlers were skipped.
func (e *PublishError) Interrupted() bool {
	return len(e.Skipped) > 0
}

// IsPublishFailure reports whether err consists only of fan-out failures,
// which callers may treat as a degraded success.
func IsPublishFailure(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*PublishError); ok {
		return true
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return false
	}
	for _, inner := range joined.Unwrap() {
		if _, ok := inner.(*PublishError); !ok {
			return false
		}
	}
	return true
}
