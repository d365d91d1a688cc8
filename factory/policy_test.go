package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/factory"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// PARSE
// =============================================================================

func TestFactory_ParsePolicy_StandardAnnual(t *testing.T) {
	// GIVEN: The standard annual preset (15 days, yearly on Jan 1)
	// WHEN: Parsing
	// THEN: A validated repeat-grant policy comes back

	f := factory.NewPolicyFactory()
	p, err := f.ParsePolicy(factory.StandardAnnualJSON("annual-std", "Standard Annual Leave", 15))
	require.NoError(t, err)

	assert.Equal(t, vacation.PolicyID("annual-std"), p.ID)
	assert.Equal(t, vacation.MethodRepeatGrant, p.GrantMethod)
	assert.Equal(t, vacation.CategoryAnnual, p.Category)
	require.NotNil(t, p.GrantAmount)
	assert.True(t, p.GrantAmount.Equal(vacation.DurationFromInt(15)))
	require.NotNil(t, p.Recurrence)
	assert.Equal(t, vacation.UnitYearly, p.Recurrence.RepeatUnit)
	assert.Equal(t, vacation.TimingFixedDate, p.Recurrence.GrantTiming)
}

func TestFactory_ParsePolicy_OvertimeAndWeddingPresets(t *testing.T) {
	f := factory.NewPolicyFactory()

	overtime, err := f.ParsePolicy(factory.OvertimeCompJSON("ot-q", "Overtime Comp", 1))
	require.NoError(t, err)
	assert.Equal(t, vacation.UnitQuarterly, overtime.Recurrence.RepeatUnit)

	wedding, err := f.ParsePolicy(factory.WeddingLeaveJSON("wed-5", "Wedding Leave", 5, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, vacation.MethodOnRequest, wedding.GrantMethod)
	assert.Equal(t, 1, wedding.ApprovalRequiredCount)
	require.NotNil(t, wedding.ExpirationRule)
	assert.Equal(t, vacation.ExpireAfterMonths, wedding.ExpirationRule.Kind)
	assert.Equal(t, 3, wedding.ExpirationRule.Months)
}

func TestFactory_ParsePolicy_MalformedJSON(t *testing.T) {
	f := factory.NewPolicyFactory()
	_, err := f.ParsePolicy(`{"name": "broken"`)
	assert.Error(t, err)
}

func TestFactory_ParsePolicy_ShapeValidation(t *testing.T) {
	// Enumerant spelling is caught by struct tags before rule logic.
	f := factory.NewPolicyFactory()

	_, err := f.ParsePolicy(`{"name": "Bad", "grant_method": "SOMETIMES"}`)
	assert.Error(t, err)

	_, err = f.ParsePolicy(`{
		"name": "Bad", "grant_method": "REPEAT_GRANT", "grant_amount": "15",
		"recurrence": {"repeat_unit": "WEEKLY", "repeat_interval": 1, "grant_timing": "FIXED_DATE"}
	}`)
	assert.Error(t, err)
}

func TestFactory_ParsePolicy_RuleViolationSurfaced(t *testing.T) {
	// GIVEN: A shape-valid draft violating a cross-field rule
	// THEN: The error is a *RuleViolationError naming the rule

	f := factory.NewPolicyFactory()
	_, err := f.ParsePolicy(`{
		"name": "Bad Pairing", "grant_method": "REPEAT_GRANT", "grant_amount": "15",
		"recurrence": {
			"repeat_unit": "MONTHLY", "repeat_interval": 1,
			"grant_timing": "QUARTER_END", "is_recurring": true
		}
	}`)
	require.Error(t, err)

	var rv *vacation.RuleViolationError
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, vacation.RuleUnitTimingMismatch, rv.Rule)
}

func TestFactory_ParsePolicy_FirstGrantDate(t *testing.T) {
	f := factory.NewPolicyFactory()
	p, err := f.ParsePolicy(`{
		"name": "Anchored", "grant_method": "REPEAT_GRANT", "grant_amount": "10",
		"recurrence": {
			"repeat_unit": "MONTHLY", "repeat_interval": 1,
			"grant_timing": "SPECIFIC_DAY", "specific_day": 15,
			"is_recurring": true, "first_grant_date": "2025-04-01"
		}
	}`)
	require.NoError(t, err)
	require.NotNil(t, p.Recurrence.FirstGrantDate)
	assert.Equal(t, "2025-04-01", p.Recurrence.FirstGrantDate.String())
}

// =============================================================================
// EXPORT
// =============================================================================

func TestFactory_ToJSON_RoundTrip(t *testing.T) {
	f := factory.NewPolicyFactory()
	p, err := f.ParsePolicy(factory.WeddingLeaveJSON("wed-5", "Wedding Leave", 5, 3, 1))
	require.NoError(t, err)

	pj := f.ToJSON(p)
	back, err := f.FromJSON(pj)
	require.NoError(t, err)

	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, p.GrantMethod, back.GrantMethod)
	assert.True(t, back.GrantAmount.Equal(*p.GrantAmount))
	assert.Equal(t, *p.EffectiveRule, *back.EffectiveRule)
	assert.Equal(t, *p.ExpirationRule, *back.ExpirationRule)
	assert.Equal(t, p.ApprovalRequiredCount, back.ApprovalRequiredCount)
}
