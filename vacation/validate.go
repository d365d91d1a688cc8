/*
validate.go - Per-grant-method policy validation strategies

PURPOSE:
  ValidateAndBuild is the single gate between a draft policy and a
  persisted one. Dispatch is a tagged-union switch over GrantMethod
  with one pure validation function per method; each function enforces
  exactly which optional fields its method requires and which it
  forbids, then the repeat-grant arm applies the timing->month/day
  table and the unit x timing coherence rule.

RULE ORDER:
  Checks run in a fixed order (required fields, amount, forbidden
  fields, timing table, coherence) and fail fast on the first violated
  rule, so error messages are deterministic for a given draft.

ERRORS:
  Every failure is a *RuleViolationError naming the violated rule via
  the Rule* constants below. Messages are surfaced verbatim by the
  administration layer; nothing is silently defaulted.

NAME UNIQUENESS:
  This validator is pure and checks shape only. The store enforces
  name uniqueness (ErrDuplicatePolicyName) at save time.
*/
package vacation

// =============================================================================
// RULE NAMES - Stable identifiers for violated rules
// =============================================================================

const (
	RuleNameRequired          = "name_required"
	RuleCategoryUnknown       = "category_unknown"
	RuleMethodUnknown         = "grant_method_unknown"
	RuleAmountRequired        = "grant_amount_required"
	RuleAmountNotPositive     = "grant_amount_not_positive"
	RuleRecurrenceForbidden   = "recurrence_forbidden"
	RuleRecurrenceRequired    = "recurrence_required"
	RuleEffectiveRequired     = "effective_rule_required"
	RuleEffectiveForbidden    = "effective_rule_forbidden"
	RuleEffectiveUnknown      = "effective_rule_unknown"
	RuleExpirationRequired    = "expiration_rule_required"
	RuleExpirationForbidden   = "expiration_rule_forbidden"
	RuleExpirationInvalid     = "expiration_rule_invalid"
	RuleApprovalNegative      = "approval_count_negative"
	RuleApprovalForbidden     = "approval_count_forbidden"
	RuleRepeatUnitRequired    = "repeat_unit_required"
	RuleRepeatIntervalInvalid = "repeat_interval_invalid"
	RuleTimingRequired        = "grant_timing_required"
	RuleMonthRequired         = "specific_month_required"
	RuleMonthForbidden        = "specific_month_forbidden"
	RuleMonthOutOfRange       = "specific_month_out_of_range"
	RuleDayRequired           = "specific_day_required"
	RuleDayForbidden          = "specific_day_forbidden"
	RuleDayOutOfRange         = "specific_day_out_of_range"
	RuleUnitTimingMismatch    = "repeat_unit_timing_mismatch"
	RuleMaxCountRequired      = "max_grant_count_required"
	RuleMaxCountInvalid       = "max_grant_count_invalid"
	RuleMaxCountForbidden     = "max_grant_count_forbidden"
)

func violation(rule, field, message string) error {
	return &RuleViolationError{Rule: rule, Field: field, Message: message}
}

// =============================================================================
// DRAFT - Caller-supplied policy before validation
// =============================================================================

// PolicyDraft is the mutable input to ValidateAndBuild. Every optional
// field is a pointer so "absent" and "zero" stay distinguishable.
type PolicyDraft struct {
	ID          PolicyID
	Name        string
	Description string
	Category    VacationCategory

	GrantMethod GrantMethod
	GrantAmount *Duration

	Recurrence *Recurrence

	EffectiveRule  *EffectiveRule
	ExpirationRule *ExpirationRule

	ApprovalRequiredCount int
}

// =============================================================================
// VALIDATE AND BUILD - Strategy dispatch
// =============================================================================

// ValidateAndBuild validates a draft against its grant method's rules
// and returns a fully-populated, immutable policy, or the first
// violated rule as a *RuleViolationError.
func ValidateAndBuild(draft PolicyDraft) (*VacationPolicy, error) {
	if err := validateCommon(draft); err != nil {
		return nil, err
	}

	var err error
	switch draft.GrantMethod {
	case MethodManualGrant:
		err = validateManualGrant(draft)
	case MethodOnRequest:
		err = validateOnRequest(draft)
	case MethodRepeatGrant:
		err = validateRepeatGrant(draft)
	default:
		err = violation(RuleMethodUnknown, "grantMethod", "unknown grant method "+string(draft.GrantMethod))
	}
	if err != nil {
		return nil, err
	}

	return build(draft), nil
}

func validateCommon(draft PolicyDraft) error {
	if draft.Name == "" {
		return violation(RuleNameRequired, "name", "policy name must not be blank")
	}
	if draft.Category != "" && !draft.Category.IsValid() {
		return violation(RuleCategoryUnknown, "vacationCategory", "unknown vacation category "+string(draft.Category))
	}
	return nil
}

// =============================================================================
// MANUAL_GRANT - Amount optional, everything else forbidden
// =============================================================================

func validateManualGrant(draft PolicyDraft) error {
	if draft.GrantAmount != nil && !draft.GrantAmount.IsPositive() {
		return violation(RuleAmountNotPositive, "grantAmount", "grant amount must be positive when present")
	}
	if draft.Recurrence != nil {
		return violation(RuleRecurrenceForbidden, "recurrence", "manual-grant policies cannot carry a recurrence descriptor")
	}
	if draft.EffectiveRule != nil {
		return violation(RuleEffectiveForbidden, "effectiveRule", "manual-grant policies cannot carry an effective rule")
	}
	if draft.ExpirationRule != nil {
		return violation(RuleExpirationForbidden, "expirationRule", "manual-grant policies cannot carry an expiration rule")
	}
	if draft.ApprovalRequiredCount != 0 {
		return violation(RuleApprovalForbidden, "approvalRequiredCount", "manual-grant policies do not use approvals")
	}
	return nil
}

// =============================================================================
// ON_REQUEST - Amount, effective and expiration rules required
// =============================================================================

func validateOnRequest(draft PolicyDraft) error {
	if draft.GrantAmount == nil {
		return violation(RuleAmountRequired, "grantAmount", "on-request policies require a grant amount")
	}
	if !draft.GrantAmount.IsPositive() {
		return violation(RuleAmountNotPositive, "grantAmount", "grant amount must be positive")
	}
	if draft.EffectiveRule == nil {
		return violation(RuleEffectiveRequired, "effectiveRule", "on-request policies require an effective rule")
	}
	if !draft.EffectiveRule.IsValid() {
		return violation(RuleEffectiveUnknown, "effectiveRule", "unknown effective rule "+string(*draft.EffectiveRule))
	}
	if draft.ExpirationRule == nil {
		return violation(RuleExpirationRequired, "expirationRule", "on-request policies require an expiration rule")
	}
	if !draft.ExpirationRule.IsValid() {
		return violation(RuleExpirationInvalid, "expirationRule", "expiration rule must be END_OF_CALENDAR_YEAR or N_MONTHS_AFTER_GRANT with 1..6 months")
	}
	if draft.ApprovalRequiredCount < 0 {
		return violation(RuleApprovalNegative, "approvalRequiredCount", "approval count cannot be negative")
	}
	if draft.Recurrence != nil {
		return violation(RuleRecurrenceForbidden, "recurrence", "on-request policies cannot carry a recurrence descriptor")
	}
	return nil
}

// =============================================================================
// REPEAT_GRANT - Recurrence required and coherent
// =============================================================================

// timingMonthDay is the grantTiming -> month/day requirement table.
// req: field must be present. forbid: field must be absent.
type monthDayRule struct {
	monthRequired bool
	monthForbidden bool
	dayRequired   bool
	dayForbidden  bool
}

var timingMonthDay = map[GrantTiming]monthDayRule{
	TimingFixedDate:     {monthRequired: true, dayRequired: true},
	TimingSpecificMonth: {monthRequired: true}, // day optional
	TimingSpecificDay:   {monthForbidden: true, dayRequired: true},
	TimingQuarterEnd:    {monthForbidden: true, dayForbidden: true},
	TimingHalfEnd:       {monthForbidden: true, dayForbidden: true},
	TimingYearEnd:       {monthForbidden: true, dayForbidden: true},
	TimingEveryInterval: {monthForbidden: true, dayForbidden: true},
}

// unitTimings is the repeatUnit x grantTiming coherence table.
var unitTimings = map[RepeatUnit][]GrantTiming{
	UnitYearly:    {TimingFixedDate, TimingSpecificMonth, TimingSpecificDay, TimingYearEnd},
	UnitMonthly:   {TimingSpecificDay},
	UnitQuarterly: {TimingQuarterEnd},
	UnitHalf:      {TimingHalfEnd},
	UnitDaily:     {TimingEveryInterval},
}

func validateRepeatGrant(draft PolicyDraft) error {
	if draft.GrantAmount == nil {
		return violation(RuleAmountRequired, "grantAmount", "repeat-grant policies require a grant amount")
	}
	if !draft.GrantAmount.IsPositive() {
		return violation(RuleAmountNotPositive, "grantAmount", "grant amount must be positive")
	}
	if draft.EffectiveRule != nil {
		return violation(RuleEffectiveForbidden, "effectiveRule", "repeat-grant policies cannot carry an effective rule")
	}
	if draft.ExpirationRule != nil {
		return violation(RuleExpirationForbidden, "expirationRule", "repeat-grant policies cannot carry an expiration rule")
	}
	if draft.ApprovalRequiredCount != 0 {
		return violation(RuleApprovalForbidden, "approvalRequiredCount", "repeat-grant policies do not use approvals")
	}
	if draft.Recurrence == nil {
		return violation(RuleRecurrenceRequired, "recurrence", "repeat-grant policies require a recurrence descriptor")
	}
	return validateRecurrence(*draft.Recurrence)
}

func validateRecurrence(r Recurrence) error {
	if !r.RepeatUnit.IsValid() {
		return violation(RuleRepeatUnitRequired, "repeatUnit", "repeat unit is required and must be YEARLY, MONTHLY, QUARTERLY, HALF or DAILY")
	}
	if r.RepeatInterval < 1 {
		return violation(RuleRepeatIntervalInvalid, "repeatInterval", "repeat interval must be at least 1")
	}
	if !r.GrantTiming.IsValid() {
		return violation(RuleTimingRequired, "grantTiming", "grant timing is required")
	}

	// Range checks before presence checks so an out-of-range value is
	// reported as such, not as a missing field.
	if r.SpecificMonth != nil && (*r.SpecificMonth < 1 || *r.SpecificMonth > 12) {
		return violation(RuleMonthOutOfRange, "specificMonth", "specific month must be in 1..12")
	}
	if r.SpecificDay != nil && (*r.SpecificDay < 1 || *r.SpecificDay > 31) {
		return violation(RuleDayOutOfRange, "specificDay", "specific day must be in 1..31")
	}

	// grantTiming -> month/day table
	rule := timingMonthDay[r.GrantTiming]
	if rule.monthRequired && r.SpecificMonth == nil {
		return violation(RuleMonthRequired, "specificMonth", string(r.GrantTiming)+" timing requires a specific month")
	}
	if rule.monthForbidden && r.SpecificMonth != nil {
		return violation(RuleMonthForbidden, "specificMonth", string(r.GrantTiming)+" timing forbids a specific month")
	}
	if rule.dayRequired && r.SpecificDay == nil {
		return violation(RuleDayRequired, "specificDay", string(r.GrantTiming)+" timing requires a specific day")
	}
	if rule.dayForbidden && r.SpecificDay != nil {
		return violation(RuleDayForbidden, "specificDay", string(r.GrantTiming)+" timing forbids a specific day")
	}

	// repeatUnit x grantTiming coherence
	coherent := false
	for _, t := range unitTimings[r.RepeatUnit] {
		if t == r.GrantTiming {
			coherent = true
			break
		}
	}
	if !coherent {
		return violation(RuleUnitTimingMismatch, "grantTiming",
			string(r.RepeatUnit)+" recurrence cannot use "+string(r.GrantTiming)+" timing")
	}

	// Bounded recurrence cap
	if !r.IsRecurring {
		if r.MaxGrantCount == nil {
			return violation(RuleMaxCountRequired, "maxGrantCount", "bounded recurrence requires a max grant count")
		}
		if *r.MaxGrantCount < 1 {
			return violation(RuleMaxCountInvalid, "maxGrantCount", "max grant count must be at least 1")
		}
	} else if r.MaxGrantCount != nil {
		return violation(RuleMaxCountForbidden, "maxGrantCount", "unbounded recurrence forbids a max grant count")
	}

	return nil
}

// =============================================================================
// BUILD - Draft to immutable policy
// =============================================================================

func build(draft PolicyDraft) *VacationPolicy {
	p := &VacationPolicy{
		ID:          draft.ID,
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
		GrantMethod: draft.GrantMethod,
		CreatedAt:   Now(),
	}

	if draft.GrantAmount != nil {
		amount := *draft.GrantAmount
		p.GrantAmount = &amount
	}

	switch draft.GrantMethod {
	case MethodOnRequest:
		eff := *draft.EffectiveRule
		exp := *draft.ExpirationRule
		p.EffectiveRule = &eff
		p.ExpirationRule = &exp
		p.ApprovalRequiredCount = draft.ApprovalRequiredCount
	case MethodRepeatGrant:
		rec := *draft.Recurrence
		p.Recurrence = &rec
	}

	return p
}
