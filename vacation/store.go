/*
store.go - Persistence interfaces for policies, schedules and grants

PURPOSE:
  Defines the interface between the engine and the database. Policies
  are read-mostly and immutable once validated; grant schedules are the
  only mutable rows and every update carries an optimistic version
  check; the grant log is append-only with idempotency keys.

CONCURRENCY CONTRACT:
  ScheduleStore.Update compares the row's Version against the stored
  one and returns ErrConcurrentModification on mismatch. Two workers
  evaluating the same row therefore serialize: one commits, the other
  observes the conflict and emits nothing.

IMPLEMENTATIONS:
  - vacation/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite (same patterns apply to PostgreSQL)
*/
package vacation

import "context"

// =============================================================================
// POLICY STORE
// =============================================================================

// PolicyStore persists validated policies. Get/GetByName/List filter
// soft-deleted rows; engine logic never sees a deleted policy.
type PolicyStore interface {
	// Save persists a new policy. Returns ErrDuplicatePolicyName when a
	// live policy already uses the name.
	Save(ctx context.Context, policy *VacationPolicy) error

	Get(ctx context.Context, id PolicyID) (*VacationPolicy, error)
	GetByName(ctx context.Context, name string) (*VacationPolicy, error)
	List(ctx context.Context) ([]*VacationPolicy, error)

	// SoftDelete marks the policy deleted. The row remains for audit.
	SoftDelete(ctx context.Context, id PolicyID, at TimePoint) error
}

// =============================================================================
// SCHEDULE STORE - Per-(employee, policy) tracker rows
// =============================================================================

type ScheduleStore interface {
	// Create inserts a new tracker row. Returns ErrDuplicateSchedule
	// when a live row already exists for the (employee, policy) pair.
	Create(ctx context.Context, row *GrantSchedule) error

	Get(ctx context.Context, employeeID EmployeeID, policyID PolicyID) (*GrantSchedule, error)

	// ListDue returns live rows with NextGrantDate set and <= today.
	ListDue(ctx context.Context, today TimePoint) ([]*GrantSchedule, error)

	// Update commits a mutated row iff row.Version still matches the
	// stored version, then increments it. Returns
	// ErrConcurrentModification on mismatch.
	Update(ctx context.Context, row *GrantSchedule) error

	// SoftDelete retires the row when the policy is unassigned.
	SoftDelete(ctx context.Context, employeeID EmployeeID, policyID PolicyID, at TimePoint) error
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic grant + cursor commit
// =============================================================================

// TxStore is implemented by stores that can commit a schedule update
// and a grant append as one atomic unit. The evaluator uses it when
// available so a firing and its cursor advance stand or fall together.
type TxStore interface {
	// WithTx executes fn within a transaction. If fn returns an error
	// the transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(schedules ScheduleStore, grants GrantLog) error) error
}

// =============================================================================
// GRANT LOG - Append-only record of emitted grants
// =============================================================================

// GrantLog stores emitted grants. Append-only: no update, no delete.
type GrantLog interface {
	// Append persists a grant. Returns ErrDuplicateGrant when the
	// idempotency key already exists.
	Append(ctx context.Context, grant Grant) error

	ListByEmployee(ctx context.Context, employeeID EmployeeID) ([]Grant, error)
}
