/*
errors.go - Centralized error types for the vacation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API layer, scheduler driver) branch on these with errors.Is
  and errors.As.

ERROR CATEGORIES:
  1. Validation errors - a draft policy violates a rule; recoverable,
     surfaced verbatim to the administration caller
  2. Invariant violations - a malformed descriptor or tracker row
     reached the scheduler; fatal for that row, the pass continues
  3. Store errors - not found, duplicate, concurrent modification

USAGE:
    if errors.Is(err, vacation.ErrConcurrentModification) {
        // another worker advanced this row; skip, do not retry the grant
    }

SEE ALSO:
  - validate.go: Produces RuleViolationError
  - tracker.go: Produces InvariantError
*/
package vacation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPolicyNotFound is returned when a referenced policy doesn't exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrScheduleNotFound is returned when no tracker row exists for an
	// (employee, policy) pair.
	ErrScheduleNotFound = errors.New("grant schedule not found")

	// ErrDuplicatePolicyName is returned when a policy name is already
	// taken by a live policy. Names are unique.
	ErrDuplicatePolicyName = errors.New("duplicate policy name")

	// ErrDuplicateSchedule is returned when a tracker row already exists
	// for the (employee, policy) pair. At most one active row per pair.
	ErrDuplicateSchedule = errors.New("duplicate grant schedule")

	// ErrDuplicateGrant is returned when a grant with the same
	// idempotency key already exists. Expected behavior for retries.
	ErrDuplicateGrant = errors.New("duplicate grant")

	// ErrConcurrentModification is returned when the optimistic version
	// check on a tracker row fails: another worker evaluated it first.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleViolationError reports one violated validation rule. The Rule
// field carries the exported rule name from validate.go so callers and
// tests can match on the exact rule, not the message text.
type RuleViolationError struct {
	Rule    string
	Field   string
	Message string
}

func (e *RuleViolationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Rule, e.Message, e.Field)
}

// InvariantError reports an illegal state that should have been made
// impossible by validation: a bug upstream, not caller input. The
// affected tracker row is left untouched and the scheduler pass
// continues with other rows.
type InvariantError struct {
	Component string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Component, e.Detail)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	var rv *RuleViolationError
	return errors.As(err, &rv) ||
		errors.Is(err, ErrDuplicatePolicyName) ||
		errors.Is(err, ErrDuplicateSchedule) ||
		errors.Is(err, ErrDuplicateGrant)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrScheduleNotFound)
}

// IsInvariantViolation returns true for fatal per-row scheduler failures.
func IsInvariantViolation(err error) bool {
	var iv *InvariantError
	return errors.As(err, &iv)
}
