package vacation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func durPtr(days string) *vacation.Duration {
	d, err := vacation.DurationFromString(days)
	if err != nil {
		panic(err)
	}
	return &d
}

func effPtr(r vacation.EffectiveRule) *vacation.EffectiveRule { return &r }

func expPtr(kind vacation.ExpirationRuleKind, months int) *vacation.ExpirationRule {
	return &vacation.ExpirationRule{Kind: kind, Months: months}
}

func recPtr(r vacation.Recurrence) *vacation.Recurrence { return &r }

func onRequestDraft() vacation.PolicyDraft {
	return vacation.PolicyDraft{
		ID:                    "pol-1",
		Name:                  "Wedding Leave",
		Category:              vacation.CategoryWedding,
		GrantMethod:           vacation.MethodOnRequest,
		GrantAmount:           durPtr("5"),
		EffectiveRule:         effPtr(vacation.EffectiveImmediate),
		ExpirationRule:        expPtr(vacation.ExpireAfterMonths, 3),
		ApprovalRequiredCount: 1,
	}
}

func repeatDraft(rec vacation.Recurrence) vacation.PolicyDraft {
	return vacation.PolicyDraft{
		ID:          "pol-2",
		Name:        "Annual Leave",
		Category:    vacation.CategoryAnnual,
		GrantMethod: vacation.MethodRepeatGrant,
		GrantAmount: durPtr("15"),
		Recurrence:  recPtr(rec),
	}
}

// assertRule asserts the draft fails validation with the named rule.
func assertRule(t *testing.T, draft vacation.PolicyDraft, rule string) {
	t.Helper()
	_, err := vacation.ValidateAndBuild(draft)
	require.Error(t, err)

	var rv *vacation.RuleViolationError
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, rule, rv.Rule)
}

// =============================================================================
// COMMON RULES
// =============================================================================

func TestValidate_BlankName_Rejected(t *testing.T) {
	draft := onRequestDraft()
	draft.Name = ""
	assertRule(t, draft, vacation.RuleNameRequired)
}

func TestValidate_UnknownCategory_Rejected(t *testing.T) {
	draft := onRequestDraft()
	draft.Category = "sabbatical"
	assertRule(t, draft, vacation.RuleCategoryUnknown)
}

func TestValidate_UnknownGrantMethod_Rejected(t *testing.T) {
	draft := onRequestDraft()
	draft.GrantMethod = "LOTTERY"
	assertRule(t, draft, vacation.RuleMethodUnknown)
}

// =============================================================================
// MANUAL_GRANT
// =============================================================================

func TestValidate_ManualGrant_MinimalDraftAccepted(t *testing.T) {
	// GIVEN: A manual-grant draft carrying nothing but a name
	// THEN: It validates (the administrator supplies amounts per grant)

	p, err := vacation.ValidateAndBuild(vacation.PolicyDraft{
		ID:          "pol-m",
		Name:        "Compassionate Leave",
		Category:    vacation.CategoryBereavement,
		GrantMethod: vacation.MethodManualGrant,
	})
	require.NoError(t, err)
	assert.Nil(t, p.GrantAmount)
	assert.Nil(t, p.Recurrence)
	assert.Nil(t, p.EffectiveRule)
}

func TestValidate_ManualGrant_OptionalAmountMustBePositive(t *testing.T) {
	draft := vacation.PolicyDraft{
		Name:        "Comp",
		GrantMethod: vacation.MethodManualGrant,
		GrantAmount: durPtr("0"),
	}
	assertRule(t, draft, vacation.RuleAmountNotPositive)
}

func TestValidate_ManualGrant_ForbiddenFields(t *testing.T) {
	base := vacation.PolicyDraft{Name: "Comp", GrantMethod: vacation.MethodManualGrant}

	withRec := base
	withRec.Recurrence = recPtr(vacation.Recurrence{})
	assertRule(t, withRec, vacation.RuleRecurrenceForbidden)

	withEff := base
	withEff.EffectiveRule = effPtr(vacation.EffectiveImmediate)
	assertRule(t, withEff, vacation.RuleEffectiveForbidden)

	withExp := base
	withExp.ExpirationRule = expPtr(vacation.ExpireEndOfYear, 0)
	assertRule(t, withExp, vacation.RuleExpirationForbidden)

	withApproval := base
	withApproval.ApprovalRequiredCount = 1
	assertRule(t, withApproval, vacation.RuleApprovalForbidden)
}

// =============================================================================
// ON_REQUEST
// =============================================================================

func TestValidate_OnRequest_FullDraftAccepted(t *testing.T) {
	p, err := vacation.ValidateAndBuild(onRequestDraft())
	require.NoError(t, err)
	assert.Equal(t, vacation.MethodOnRequest, p.GrantMethod)
	assert.Equal(t, 1, p.ApprovalRequiredCount)
	require.NotNil(t, p.ExpirationRule)
	assert.Equal(t, 3, p.ExpirationRule.Months)
}

func TestValidate_OnRequest_RequiredFields(t *testing.T) {
	noAmount := onRequestDraft()
	noAmount.GrantAmount = nil
	assertRule(t, noAmount, vacation.RuleAmountRequired)

	zeroAmount := onRequestDraft()
	zeroAmount.GrantAmount = durPtr("-1")
	assertRule(t, zeroAmount, vacation.RuleAmountNotPositive)

	noEff := onRequestDraft()
	noEff.EffectiveRule = nil
	assertRule(t, noEff, vacation.RuleEffectiveRequired)

	noExp := onRequestDraft()
	noExp.ExpirationRule = nil
	assertRule(t, noExp, vacation.RuleExpirationRequired)
}

func TestValidate_OnRequest_ExpirationMonthsBounds(t *testing.T) {
	// N_MONTHS_AFTER_GRANT is legal only for 1..6 months.
	for _, months := range []int{1, 6} {
		draft := onRequestDraft()
		draft.ExpirationRule = expPtr(vacation.ExpireAfterMonths, months)
		_, err := vacation.ValidateAndBuild(draft)
		assert.NoError(t, err, "months=%d should be legal", months)
	}
	for _, months := range []int{0, 7, -1} {
		draft := onRequestDraft()
		draft.ExpirationRule = expPtr(vacation.ExpireAfterMonths, months)
		assertRule(t, draft, vacation.RuleExpirationInvalid)
	}
}

func TestValidate_OnRequest_NegativeApprovals_Rejected(t *testing.T) {
	draft := onRequestDraft()
	draft.ApprovalRequiredCount = -1
	assertRule(t, draft, vacation.RuleApprovalNegative)
}

func TestValidate_OnRequest_RecurrenceForbidden(t *testing.T) {
	draft := onRequestDraft()
	draft.Recurrence = recPtr(vacation.Recurrence{})
	assertRule(t, draft, vacation.RuleRecurrenceForbidden)
}

// =============================================================================
// REPEAT_GRANT - recurrence shape
// =============================================================================

func TestValidate_RepeatGrant_LegalCombinations(t *testing.T) {
	// GIVEN: Every coherent repeatUnit x grantTiming pairing
	// THEN: All validate

	legal := []vacation.Recurrence{
		{RepeatUnit: vacation.UnitYearly, RepeatInterval: 1, GrantTiming: vacation.TimingFixedDate, SpecificMonth: intPtr(1), SpecificDay: intPtr(1), IsRecurring: true},
		{RepeatUnit: vacation.UnitYearly, RepeatInterval: 1, GrantTiming: vacation.TimingSpecificMonth, SpecificMonth: intPtr(4), IsRecurring: true},
		{RepeatUnit: vacation.UnitYearly, RepeatInterval: 1, GrantTiming: vacation.TimingSpecificDay, SpecificDay: intPtr(15), IsRecurring: true},
		{RepeatUnit: vacation.UnitYearly, RepeatInterval: 1, GrantTiming: vacation.TimingYearEnd, IsRecurring: true},
		{RepeatUnit: vacation.UnitMonthly, RepeatInterval: 1, GrantTiming: vacation.TimingSpecificDay, SpecificDay: intPtr(25), IsRecurring: true},
		{RepeatUnit: vacation.UnitQuarterly, RepeatInterval: 1, GrantTiming: vacation.TimingQuarterEnd, IsRecurring: true},
		{RepeatUnit: vacation.UnitHalf, RepeatInterval: 1, GrantTiming: vacation.TimingHalfEnd, IsRecurring: true},
		{RepeatUnit: vacation.UnitDaily, RepeatInterval: 30, GrantTiming: vacation.TimingEveryInterval, IsRecurring: true},
	}

	for _, rec := range legal {
		_, err := vacation.ValidateAndBuild(repeatDraft(rec))
		assert.NoError(t, err, "%s x %s should be legal", rec.RepeatUnit, rec.GrantTiming)
	}
}

func TestValidate_RepeatGrant_IncoherentUnitTiming_Rejected(t *testing.T) {
	illegal := []vacation.Recurrence{
		{RepeatUnit: vacation.UnitMonthly, RepeatInterval: 1, GrantTiming: vacation.TimingFixedDate, SpecificMonth: intPtr(1), SpecificDay: intPtr(1), IsRecurring: true},
		{RepeatUnit: vacation.UnitQuarterly, RepeatInterval: 1, GrantTiming: vacation.TimingHalfEnd, IsRecurring: true},
		{RepeatUnit: vacation.UnitHalf, RepeatInterval: 1, GrantTiming: vacation.TimingQuarterEnd, IsRecurring: true},
		{RepeatUnit: vacation.UnitYearly, RepeatInterval: 1, GrantTiming: vacation.TimingQuarterEnd, IsRecurring: true},
		{RepeatUnit: vacation.UnitDaily, RepeatInterval: 1, GrantTiming: vacation.TimingYearEnd, IsRecurring: true},
	}

	for _, rec := range illegal {
		assertRule(t, repeatDraft(rec), vacation.RuleUnitTimingMismatch)
	}
}

func TestValidate_RepeatGrant_MonthDayTable(t *testing.T) {
	// FIXED_DATE requires both month and day
	noDay := yearlyFixed(3, 15)
	noDay.SpecificDay = nil
	assertRule(t, repeatDraft(noDay), vacation.RuleDayRequired)

	noMonth := yearlyFixed(3, 15)
	noMonth.SpecificMonth = nil
	assertRule(t, repeatDraft(noMonth), vacation.RuleMonthRequired)

	// SPECIFIC_DAY forbids a month
	dayWithMonth := monthlyOnDay(25)
	dayWithMonth.SpecificMonth = intPtr(4)
	assertRule(t, repeatDraft(dayWithMonth), vacation.RuleMonthForbidden)

	// QUARTER_END forbids both
	qe := vacation.Recurrence{
		RepeatUnit: vacation.UnitQuarterly, RepeatInterval: 1,
		GrantTiming: vacation.TimingQuarterEnd, SpecificDay: intPtr(5), IsRecurring: true,
	}
	assertRule(t, repeatDraft(qe), vacation.RuleDayForbidden)
}

func TestValidate_RepeatGrant_RangeBeforePresence(t *testing.T) {
	// An out-of-range month is reported as out-of-range even where the
	// timing forbids a month entirely.
	rec := monthlyOnDay(25)
	rec.SpecificMonth = intPtr(13)
	assertRule(t, repeatDraft(rec), vacation.RuleMonthOutOfRange)

	rec = monthlyOnDay(32)
	assertRule(t, repeatDraft(rec), vacation.RuleDayOutOfRange)
}

func TestValidate_RepeatGrant_IntervalAndAmount(t *testing.T) {
	rec := yearlyFixed(1, 1)
	rec.RepeatInterval = 0
	assertRule(t, repeatDraft(rec), vacation.RuleRepeatIntervalInvalid)

	draft := repeatDraft(yearlyFixed(1, 1))
	draft.GrantAmount = nil
	assertRule(t, draft, vacation.RuleAmountRequired)
}

func TestValidate_RepeatGrant_ForbiddenRules(t *testing.T) {
	draft := repeatDraft(yearlyFixed(1, 1))
	draft.EffectiveRule = effPtr(vacation.EffectiveImmediate)
	assertRule(t, draft, vacation.RuleEffectiveForbidden)

	draft = repeatDraft(yearlyFixed(1, 1))
	draft.ExpirationRule = expPtr(vacation.ExpireEndOfYear, 0)
	assertRule(t, draft, vacation.RuleExpirationForbidden)
}

func TestValidate_RepeatGrant_BoundedCap(t *testing.T) {
	// Bounded recurrence requires a cap >= 1; unbounded forbids one.
	bounded := yearlyFixed(1, 1)
	bounded.IsRecurring = false
	assertRule(t, repeatDraft(bounded), vacation.RuleMaxCountRequired)

	bounded.MaxGrantCount = intPtr(0)
	assertRule(t, repeatDraft(bounded), vacation.RuleMaxCountInvalid)

	bounded.MaxGrantCount = intPtr(3)
	_, err := vacation.ValidateAndBuild(repeatDraft(bounded))
	assert.NoError(t, err)

	unbounded := yearlyFixed(1, 1)
	unbounded.MaxGrantCount = intPtr(3)
	assertRule(t, repeatDraft(unbounded), vacation.RuleMaxCountForbidden)
}
