package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrLeaseNotFound = errors.New("lease not found")
)

// Rejection is the recoverable outcome of a failed validation pass. It
// carries every violated rule, not just the first, so a caller can surface
// all problems at once. It is always returned, never panicked.
type Rejection struct {
	Reasons []string
}

func (e *Rejection) Error() string {
	return strings.Join(e.Reasons, ". ")
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// PreconditionError indicates a caller bypassed the orchestrator and invoked
// an operation with data that validation would have rejected (for example a
// negative deduction). It is a programming error, not a business-rule
// failure, and must not be surfaced as a Rejection.
type PreconditionError struct {
	Op     string
	Detail string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated in %s: %s", e.Op, e.Detail)
}
