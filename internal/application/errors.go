package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/room-reservation/internal/lifecycle"
)

var (
	// ErrForbidden is returned when the caller's role or ownership does not
	// permit the action.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the referenced room or reservation does
	// not exist or is not active.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidTransition is returned when an action is not legal from the
	// reservation's current state.
	ErrInvalidTransition = lifecycle.ErrInvalidTransition
	// ErrSchedulingConflict is returned when the room is unavailable for the
	// requested range.
	ErrSchedulingConflict = errors.New("application: scheduling conflict")
	// ErrCapacityExceeded is returned when attendees exceed room capacity.
	ErrCapacityExceeded = errors.New("application: capacity exceeded")
	// ErrAlreadyExists is returned when a record conflicts with an existing
	// one, such as a duplicate active room name.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// PolicyError reports one or more reservation policy violations: advance
// notice, business hours, or weekday rules. The violations are human
// readable and listed in the order the rules are evaluated.
type PolicyError struct {
	Violations []string
}

// Error implements the error interface.
func (p *PolicyError) Error() string {
	if p == nil || len(p.Violations) == 0 {
		return "reservation policy violated"
	}
	return fmt.Sprintf("reservation policy violated: %s", strings.Join(p.Violations, "; "))
}

// add records a policy violation.
func (p *PolicyError) add(violation string) {
	p.Violations = append(p.Violations, violation)
}

// HasViolations reports whether any rule was violated.
func (p *PolicyError) HasViolations() bool {
	return p != nil && len(p.Violations) > 0
}

// ErrorKind maps sentinel and structured errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrSchedulingConflict):
		return "scheduling_conflict"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var pErr *PolicyError
	if errors.As(err, &pErr) {
		return "policy_violation"
	}

	return "unexpected"
}
