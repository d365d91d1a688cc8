/*
policy.go - Vacation policy definition

PURPOSE:
  A VacationPolicy is the complete rule definition for one kind of
  vacation balance: what it is called, how balances under it come into
  existence (grant method), how large each grant is, and - depending on
  the method - either a recurrence descriptor (REPEAT_GRANT) or an
  effective/expiration rule pair (ON_REQUEST).

FIELD LEGALITY:
  For every grant method the set of populated optional fields is
  exactly the set that method's validator requires:

    ON_REQUEST    GrantAmount>0, EffectiveRule, ExpirationRule,
                  ApprovalRequiredCount>=0; recurrence forbidden
    MANUAL_GRANT  GrantAmount optional (>0 if present); everything
                  else forbidden
    REPEAT_GRANT  GrantAmount>0 plus a coherent Recurrence;
                  effective/expiration rules forbidden

  ValidateAndBuild (validate.go) is the only constructor that may
  produce a persisted policy. Policies are immutable once validated;
  edits go through validation again.

SEE ALSO:
  - validate.go: The per-method validation strategies
  - recurrence.go: The REPEAT_GRANT sub-schema
  - calculator.go: Effective/expiration date rules
*/
package vacation

// =============================================================================
// EFFECTIVE / EXPIRATION RULES (ON_REQUEST only)
// =============================================================================

type EffectiveRule string

const (
	// EffectiveImmediate: The balance is usable from the grant instant.
	EffectiveImmediate EffectiveRule = "IMMEDIATE"

	// EffectiveStartOfYear: The balance is backdated to Jan 1 of the
	// grant year.
	EffectiveStartOfYear EffectiveRule = "START_OF_CALENDAR_YEAR"
)

func (r EffectiveRule) IsValid() bool {
	return r == EffectiveImmediate || r == EffectiveStartOfYear
}

type ExpirationRuleKind string

const (
	// ExpireAfterMonths: grant date + N calendar months (N in 1..6),
	// clamped to month end, time forced to 23:59:59.
	ExpireAfterMonths ExpirationRuleKind = "N_MONTHS_AFTER_GRANT"

	// ExpireEndOfYear: Dec 31 23:59:59 of the grant year.
	ExpireEndOfYear ExpirationRuleKind = "END_OF_CALENDAR_YEAR"
)

// ExpirationRule pairs the kind with its month count (meaningful only
// for N_MONTHS_AFTER_GRANT).
type ExpirationRule struct {
	Kind   ExpirationRuleKind
	Months int
}

func (r ExpirationRule) IsValid() bool {
	switch r.Kind {
	case ExpireAfterMonths:
		return r.Months >= 1 && r.Months <= 6
	case ExpireEndOfYear:
		return true
	}
	return false
}

// =============================================================================
// VACATION POLICY
// =============================================================================

type VacationPolicy struct {
	ID          PolicyID
	Name        string // unique across live policies
	Description string
	Category    VacationCategory

	GrantMethod GrantMethod

	// GrantAmount is required (>0) for ON_REQUEST and REPEAT_GRANT;
	// optional for MANUAL_GRANT where the administrator supplies the
	// amount per grant (>0 when present).
	GrantAmount *Duration

	// Recurrence is present iff GrantMethod == REPEAT_GRANT.
	Recurrence *Recurrence

	// EffectiveRule/ExpirationRule are present iff ON_REQUEST.
	EffectiveRule  *EffectiveRule
	ExpirationRule *ExpirationRule

	// ApprovalRequiredCount is how many approvals an ON_REQUEST grant
	// needs before the balance is created. Always 0 for other methods.
	ApprovalRequiredCount int

	// Soft delete. Filtered at the store boundary, never inside
	// engine logic.
	DeletedAt *TimePoint

	CreatedAt TimePoint
}

// IsDeleted reports whether the policy has been soft-deleted.
func (p *VacationPolicy) IsDeleted() bool { return p.DeletedAt != nil }

// IsScheduled reports whether the policy participates in the grant
// schedule tracker (only repeat-grant policies do).
func (p *VacationPolicy) IsScheduled() bool { return p.GrantMethod == MethodRepeatGrant }
