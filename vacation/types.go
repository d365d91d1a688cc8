/*
Package vacation implements the vacation policy and recurring grant
scheduling engine.

PURPOSE:
  This package contains the rule schema and algorithms for granting
  paid time-off balances: the policy grammar (grant methods, recurrence
  descriptors, effective/expiration rules), the validation logic that
  enforces legal rule combinations, the calendar arithmetic that turns
  a recurrence rule into concrete grant dates, and the per-employee
  schedule tracker that guarantees at-most-one grant per due date.

KEY CONCEPTS IN THIS FILE (types.go):
  - Duration: An exact fractional-day quantity (30-minute granularity)
  - VacationCategory: What kind of leave a policy grants (informational)
  - GrantMethod: How balances are created (on request, manual, repeating)
  - Grant: The event emitted when a balance is created for an employee
  - Employee/Policy IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Purity: Validators and date calculators are pure functions;
     the schedule tracker is the only mutable state
  3. Type Safety: Strong typing for IDs prevents mixing employee/policy IDs
  4. Idempotency: Every grant carries an idempotency key derived from
     (employee, policy, due date)

SEE ALSO:
  - policy.go: VacationPolicy definition
  - recurrence.go: Recurrence descriptor and occurrence arithmetic
  - validate.go: Per-grant-method validation rules
  - tracker.go: Per-employee grant schedule cursor
*/
package vacation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PolicyID string
type GrantID string

// =============================================================================
// VACATION CATEGORY - What kind of leave (informational to this engine)
// =============================================================================

type VacationCategory string

const (
	CategoryAnnual      VacationCategory = "annual"
	CategoryMaternity   VacationCategory = "maternity"
	CategoryWedding     VacationCategory = "wedding"
	CategoryBereavement VacationCategory = "bereavement"
	CategoryOvertime    VacationCategory = "overtime"
	CategoryHealth      VacationCategory = "health"
	CategoryArmy        VacationCategory = "army"
)

// Categories lists every known vacation category.
func Categories() []VacationCategory {
	return []VacationCategory{
		CategoryAnnual, CategoryMaternity, CategoryWedding,
		CategoryBereavement, CategoryOvertime, CategoryHealth, CategoryArmy,
	}
}

// IsValid reports whether c is a known category.
func (c VacationCategory) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// =============================================================================
// GRANT METHOD - How balances under a policy come into existence
// =============================================================================

type GrantMethod string

const (
	// MethodOnRequest: The employee asks, an approver grants. The
	// effective/expiration window is computed at grant time from the
	// policy's EffectiveRule and ExpirationRule.
	MethodOnRequest GrantMethod = "ON_REQUEST"

	// MethodManualGrant: An administrator creates the balance directly.
	// No recurrence, no effective/expiration rules.
	MethodManualGrant GrantMethod = "MANUAL_GRANT"

	// MethodRepeatGrant: The scheduler creates balances on a recurring
	// cadence described by the policy's Recurrence descriptor.
	MethodRepeatGrant GrantMethod = "REPEAT_GRANT"
)

func (m GrantMethod) IsValid() bool {
	switch m {
	case MethodOnRequest, MethodManualGrant, MethodRepeatGrant:
		return true
	}
	return false
}

// =============================================================================
// GRANT - One balance created for an employee under a policy
// =============================================================================

// Grant is the event emitted when a vacation balance is created.
// The balance/ledger component that spends grants is outside this engine;
// a Grant is this engine's complete output for one firing.
type Grant struct {
	ID         GrantID
	EmployeeID EmployeeID
	PolicyID   PolicyID
	Amount     Duration
	EffectiveAt TimePoint
	ExpiresAt   TimePoint
	GrantedAt   TimePoint

	// IdempotencyKey is employee|policy|dueDate for scheduled grants.
	// The grant log rejects duplicates, so a retried scheduler pass
	// cannot double-grant.
	IdempotencyKey string

	Reason string
}

// ScheduledGrantKey builds the idempotency key for a scheduled firing.
func ScheduledGrantKey(employeeID EmployeeID, policyID PolicyID, dueDate TimePoint) string {
	return fmt.Sprintf("%s|%s|%s", employeeID, policyID, dueDate.Time.Format("2006-01-02"))
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustParseDecimal parses s, returning zero on failure.
// For constants known at compile time only.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
