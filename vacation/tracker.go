/*
tracker.go - Grant schedule tracker and the recurrence-advance algorithm

PURPOSE:
  One GrantSchedule row exists per (employee, REPEAT_GRANT policy)
  pair. It is the unit of idempotency for the scheduler: it records
  the last firing and the next due date, and every advance commits
  under an optimistic version check so that at most one grant is
  emitted per row per due date even with concurrent workers.

STATE MACHINE:
  UNSCHEDULED  row absent
  PENDING      NextGrantDate set, in the future
  DUE          today >= NextGrantDate
  EXHAUSTED    bounded recurrence fired MaxGrantCount times;
               NextGrantDate is null and never advances again

ADVANCE SEMANTICS:
  A due row fires exactly once per evaluation. The cursor then steps
  occurrence by occurrence until it lands strictly after today, so a
  long-overdue row collapses its missed occurrences into the single
  firing instead of burst-granting - and a second evaluation with the
  same "today" finds the row PENDING and does nothing. Skipped
  occurrences do not consume MaxGrantCount.

FAILURE SEMANTICS:
  A malformed descriptor reaching this stage is a bug upstream
  (validation bypassed), reported as *InvariantError: the row is left
  unmodified, the firing is reported failed, and the caller's pass
  continues with other rows.

SEE ALSO:
  - recurrence.go: FirstOccurrence / NextOccurrence
  - store.go: ScheduleStore version-check contract
*/
package vacation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// GRANT SCHEDULE - The per-(employee, policy) cursor
// =============================================================================

type GrantSchedule struct {
	EmployeeID EmployeeID
	PolicyID   PolicyID

	// LastGrantedAt is nil until the first firing.
	LastGrantedAt *TimePoint

	// NextGrantDate is the next date the scheduler should attempt a
	// firing on. Nil once a bounded recurrence is exhausted.
	NextGrantDate *TimePoint

	// GrantCount is how many times this row has fired.
	GrantCount int

	// Version backs the optimistic per-row concurrency check.
	Version int

	DeletedAt *TimePoint
}

func (s *GrantSchedule) IsDeleted() bool { return s.DeletedAt != nil }

type ScheduleState string

const (
	StatePending   ScheduleState = "PENDING"
	StateDue       ScheduleState = "DUE"
	StateExhausted ScheduleState = "EXHAUSTED"
)

// State classifies the row relative to today.
func (s *GrantSchedule) State(today TimePoint) ScheduleState {
	if s.NextGrantDate == nil {
		return StateExhausted
	}
	if today.AfterOrEqual(*s.NextGrantDate) {
		return StateDue
	}
	return StatePending
}

// =============================================================================
// EVALUATOR - Initialize and advance tracker rows
// =============================================================================

// Clock abstracts "now" so tests can pin it.
type Clock func() TimePoint

// Evaluator owns the tracker lifecycle: creating rows when a policy is
// assigned and advancing them on scheduler passes.
type Evaluator struct {
	Schedules ScheduleStore
	Grants    GrantLog
	NowFn     Clock
}

func NewEvaluator(schedules ScheduleStore, grants GrantLog) *Evaluator {
	return &Evaluator{Schedules: schedules, Grants: grants, NowFn: Now}
}

func (e *Evaluator) now() TimePoint {
	if e.NowFn != nil {
		return e.NowFn()
	}
	return Now()
}

// Initialize creates the tracker row for a newly assigned repeat-grant
// policy. The first due date is the earliest occurrence of the
// recurrence at or after FirstGrantDate (or asOf when no anchor is set).
func (e *Evaluator) Initialize(ctx context.Context, employeeID EmployeeID, policy *VacationPolicy, asOf TimePoint) (*GrantSchedule, error) {
	if policy.GrantMethod != MethodRepeatGrant || policy.Recurrence == nil {
		return nil, &InvariantError{Component: "tracker", Detail: fmt.Sprintf("policy %s is not a repeat-grant policy", policy.ID)}
	}

	anchor := asOf
	if policy.Recurrence.FirstGrantDate != nil {
		anchor = *policy.Recurrence.FirstGrantDate
	}

	first, err := policy.Recurrence.FirstOccurrence(anchor)
	if err != nil {
		return nil, err
	}

	row := &GrantSchedule{
		EmployeeID:    employeeID,
		PolicyID:      policy.ID,
		NextGrantDate: &first,
	}
	if err := e.Schedules.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// Unassign soft-deletes the tracker row for an (employee, policy) pair.
func (e *Evaluator) Unassign(ctx context.Context, employeeID EmployeeID, policyID PolicyID) error {
	return e.Schedules.SoftDelete(ctx, employeeID, policyID, e.now())
}

// EvaluateAndAdvance runs one scheduler evaluation of one row.
//
// Returns (nil, nil) when the row is not due. On a due row it emits
// exactly one grant and advances the cursor atomically: the grant
// append and the version-checked row update stand or fall together
// from the caller's perspective - a concurrent loser gets
// ErrConcurrentModification and no grant.
func (e *Evaluator) EvaluateAndAdvance(ctx context.Context, policy *VacationPolicy, row *GrantSchedule, today TimePoint) (*Grant, error) {
	if row.NextGrantDate == nil {
		return nil, nil // exhausted
	}
	if today.Before(*row.NextGrantDate) {
		return nil, nil // pending
	}

	// Everything below must not touch the row until the plan is known
	// to be computable: a malformed descriptor leaves it unmodified.
	if policy.GrantMethod != MethodRepeatGrant || policy.Recurrence == nil || policy.GrantAmount == nil {
		return nil, &InvariantError{Component: "tracker", Detail: fmt.Sprintf("policy %s reached the scheduler in an illegal shape", policy.ID)}
	}
	rec := *policy.Recurrence

	dueDate := *row.NextGrantDate
	next, exhausted, err := e.planAdvance(rec, dueDate, today, row.GrantCount+1)
	if err != nil {
		return nil, err
	}

	now := e.now()
	effective, expires := scheduledWindow(dueDate)
	grant := Grant{
		ID:             GrantID(uuid.NewString()),
		EmployeeID:     row.EmployeeID,
		PolicyID:       row.PolicyID,
		Amount:         *policy.GrantAmount,
		EffectiveAt:    effective,
		ExpiresAt:      expires,
		GrantedAt:      now,
		IdempotencyKey: ScheduledGrantKey(row.EmployeeID, row.PolicyID, dueDate),
		Reason:         fmt.Sprintf("scheduled grant under policy %q", policy.Name),
	}

	updated := *row
	updated.LastGrantedAt = &now
	updated.GrantCount = row.GrantCount + 1
	if exhausted {
		updated.NextGrantDate = nil
	} else {
		updated.NextGrantDate = &next
	}

	if err := e.commit(ctx, &updated, grant); err != nil {
		if errors.Is(err, ErrDuplicateGrant) {
			// The due date was already granted (replayed pass); treat
			// as "already advanced", not a new emission.
			return nil, nil
		}
		return nil, err
	}
	*row = updated

	return &grant, nil
}

// commit writes the advanced cursor and the grant. When the schedule
// store supports transactions the two are one atomic unit; otherwise
// the cursor's version check still serializes racing workers and the
// grant's idempotency key still blocks duplicate emissions.
func (e *Evaluator) commit(ctx context.Context, updated *GrantSchedule, grant Grant) error {
	if tx, ok := e.Schedules.(TxStore); ok {
		return tx.WithTx(ctx, func(schedules ScheduleStore, grants GrantLog) error {
			if err := schedules.Update(ctx, updated); err != nil {
				return err
			}
			return grants.Append(ctx, grant)
		})
	}

	// The version check is the mutual exclusion point: the loser of a
	// race stops here with no grant.
	if err := e.Schedules.Update(ctx, updated); err != nil {
		return err
	}
	return e.Grants.Append(ctx, grant)
}

// planAdvance computes the cursor position after a firing on dueDate:
// the first occurrence strictly after today (missed occurrences are
// skipped, not back-granted), or exhaustion once firedCount reaches
// the bounded cap.
func (e *Evaluator) planAdvance(rec Recurrence, dueDate, today TimePoint, firedCount int) (next TimePoint, exhausted bool, err error) {
	if !rec.IsRecurring && rec.MaxGrantCount != nil && firedCount >= *rec.MaxGrantCount {
		return TimePoint{}, true, nil
	}

	next, err = rec.NextOccurrence(dueDate)
	if err != nil {
		return TimePoint{}, false, err
	}
	for next.BeforeOrEqual(today) {
		next, err = rec.NextOccurrence(next)
		if err != nil {
			return TimePoint{}, false, err
		}
	}
	return next, false, nil
}
