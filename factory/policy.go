/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into validated VacationPolicy
  values. This enables policy configuration without code changes - HR
  can define policies in JSON, the admin API stores them, and the
  factory produces the engine's immutable policy type.

JSON SCHEMA:
  {
    "id": "annual-standard",
    "name": "Standard Annual Leave",
    "category": "annual",
    "grant_method": "REPEAT_GRANT",
    "grant_amount": "15",
    "recurrence": {
      "repeat_unit": "YEARLY",
      "repeat_interval": 1,
      "grant_timing": "FIXED_DATE",
      "specific_month": 1,
      "specific_day": 1,
      "is_recurring": true
    }
  }

VALIDATION LAYERS:
  1. Struct tags (go-playground/validator): enumerant spelling,
     numeric ranges - shape problems reported before any rule logic
  2. vacation.ValidateAndBuild: the cross-field rule tables
     (required/forbidden per grant method, timing x unit coherence)

SEE ALSO:
  - vacation/validate.go: The rule strategies
  - api/handlers.go: Uses this factory for the admin surface
*/
package factory

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy draft.
type PolicyJSON struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty" validate:"omitempty,oneof=annual maternity wedding bereavement overtime health army"`

	GrantMethod string `json:"grant_method" validate:"required,oneof=ON_REQUEST MANUAL_GRANT REPEAT_GRANT"`

	// GrantAmount is a decimal day count, e.g. "15" or "0.5".
	GrantAmount *string `json:"grant_amount,omitempty"`

	Recurrence *RecurrenceJSON `json:"recurrence,omitempty"`

	EffectiveRule    *string `json:"effective_rule,omitempty" validate:"omitempty,oneof=IMMEDIATE START_OF_CALENDAR_YEAR"`
	ExpirationRule   *string `json:"expiration_rule,omitempty" validate:"omitempty,oneof=N_MONTHS_AFTER_GRANT END_OF_CALENDAR_YEAR"`
	ExpirationMonths int     `json:"expiration_months,omitempty" validate:"omitempty,min=1,max=6"`

	ApprovalRequiredCount int `json:"approval_required_count,omitempty" validate:"min=0"`
}

// RecurrenceJSON represents the recurrence descriptor.
type RecurrenceJSON struct {
	RepeatUnit     string `json:"repeat_unit" validate:"required,oneof=YEARLY MONTHLY QUARTERLY HALF DAILY"`
	RepeatInterval int    `json:"repeat_interval" validate:"required,min=1"`
	GrantTiming    string `json:"grant_timing" validate:"required,oneof=FIXED_DATE SPECIFIC_MONTH SPECIFIC_DAY QUARTER_END HALF_END YEAR_END EVERY_INTERVAL"`
	SpecificMonth  *int   `json:"specific_month,omitempty" validate:"omitempty,min=1,max=12"`
	SpecificDay    *int   `json:"specific_day,omitempty" validate:"omitempty,min=1,max=31"`
	IsRecurring    bool   `json:"is_recurring"`
	MaxGrantCount  *int   `json:"max_grant_count,omitempty" validate:"omitempty,min=1"`
	FirstGrantDate string `json:"first_grant_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies into validated policy values.
type PolicyFactory struct {
	validate *validator.Validate
}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{validate: validator.New()}
}

// ParsePolicy parses and validates a JSON policy definition. Rule
// failures come back as *vacation.RuleViolationError; shape failures
// as validator errors.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (*vacation.VacationPolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PolicyJSON into a validated VacationPolicy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*vacation.VacationPolicy, error) {
	if err := f.validate.Struct(pj); err != nil {
		return nil, fmt.Errorf("invalid policy definition: %w", err)
	}

	draft, err := f.toDraft(pj)
	if err != nil {
		return nil, err
	}
	return vacation.ValidateAndBuild(*draft)
}

func (f *PolicyFactory) toDraft(pj PolicyJSON) (*vacation.PolicyDraft, error) {
	draft := &vacation.PolicyDraft{
		ID:                    vacation.PolicyID(pj.ID),
		Name:                  pj.Name,
		Description:           pj.Description,
		Category:              vacation.VacationCategory(pj.Category),
		GrantMethod:           vacation.GrantMethod(pj.GrantMethod),
		ApprovalRequiredCount: pj.ApprovalRequiredCount,
	}

	if pj.GrantAmount != nil {
		amount, err := vacation.DurationFromString(*pj.GrantAmount)
		if err != nil {
			return nil, err
		}
		draft.GrantAmount = &amount
	}

	if pj.EffectiveRule != nil {
		rule := vacation.EffectiveRule(*pj.EffectiveRule)
		draft.EffectiveRule = &rule
	}
	if pj.ExpirationRule != nil {
		rule := vacation.ExpirationRule{
			Kind:   vacation.ExpirationRuleKind(*pj.ExpirationRule),
			Months: pj.ExpirationMonths,
		}
		draft.ExpirationRule = &rule
	}

	if pj.Recurrence != nil {
		rec, err := parseRecurrence(*pj.Recurrence)
		if err != nil {
			return nil, err
		}
		draft.Recurrence = rec
	}

	return draft, nil
}

func parseRecurrence(rj RecurrenceJSON) (*vacation.Recurrence, error) {
	rec := &vacation.Recurrence{
		RepeatUnit:     vacation.RepeatUnit(rj.RepeatUnit),
		RepeatInterval: rj.RepeatInterval,
		GrantTiming:    vacation.GrantTiming(rj.GrantTiming),
		SpecificMonth:  rj.SpecificMonth,
		SpecificDay:    rj.SpecificDay,
		IsRecurring:    rj.IsRecurring,
		MaxGrantCount:  rj.MaxGrantCount,
	}

	if rj.FirstGrantDate != "" {
		tp, err := parseDate(rj.FirstGrantDate)
		if err != nil {
			return nil, err
		}
		rec.FirstGrantDate = &tp
	}
	return rec, nil
}

func parseDate(s string) (vacation.TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return vacation.TimePoint{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return vacation.NewTimePoint(t.Year(), t.Month(), t.Day()), nil
}

// =============================================================================
// EXPORT - Policy back to JSON
// =============================================================================

// ToJSON converts a policy back to its JSON representation.
func (f *PolicyFactory) ToJSON(p *vacation.VacationPolicy) PolicyJSON {
	pj := PolicyJSON{
		ID:                    string(p.ID),
		Name:                  p.Name,
		Description:           p.Description,
		Category:              string(p.Category),
		GrantMethod:           string(p.GrantMethod),
		ApprovalRequiredCount: p.ApprovalRequiredCount,
	}

	if p.GrantAmount != nil {
		s := p.GrantAmount.Days.String()
		pj.GrantAmount = &s
	}
	if p.EffectiveRule != nil {
		s := string(*p.EffectiveRule)
		pj.EffectiveRule = &s
	}
	if p.ExpirationRule != nil {
		s := string(p.ExpirationRule.Kind)
		pj.ExpirationRule = &s
		pj.ExpirationMonths = p.ExpirationRule.Months
	}
	if p.Recurrence != nil {
		r := p.Recurrence
		rj := &RecurrenceJSON{
			RepeatUnit:     string(r.RepeatUnit),
			RepeatInterval: r.RepeatInterval,
			GrantTiming:    string(r.GrantTiming),
			SpecificMonth:  r.SpecificMonth,
			SpecificDay:    r.SpecificDay,
			IsRecurring:    r.IsRecurring,
			MaxGrantCount:  r.MaxGrantCount,
		}
		if r.FirstGrantDate != nil {
			rj.FirstGrantDate = r.FirstGrantDate.Time.Format("2006-01-02")
		}
		pj.Recurrence = rj
	}
	return pj
}

// =============================================================================
// PRESET POLICIES
// =============================================================================

// StandardAnnualJSON is a yearly Jan 1 grant of the given day count.
func StandardAnnualJSON(id, name string, days int) string {
	return fmt.Sprintf(`{
		"id": %q, "name": %q, "category": "annual",
		"grant_method": "REPEAT_GRANT", "grant_amount": "%d",
		"recurrence": {
			"repeat_unit": "YEARLY", "repeat_interval": 1,
			"grant_timing": "FIXED_DATE", "specific_month": 1, "specific_day": 1,
			"is_recurring": true
		}
	}`, id, name, days)
}

// OvertimeCompJSON is a quarterly compensation grant.
func OvertimeCompJSON(id, name string, days int) string {
	return fmt.Sprintf(`{
		"id": %q, "name": %q, "category": "overtime",
		"grant_method": "REPEAT_GRANT", "grant_amount": "%d",
		"recurrence": {
			"repeat_unit": "QUARTERLY", "repeat_interval": 1,
			"grant_timing": "QUARTER_END", "is_recurring": true
		}
	}`, id, name, days)
}

// WeddingLeaveJSON is an on-request grant with an N-month expiry.
func WeddingLeaveJSON(id, name string, days, expireMonths, approvals int) string {
	return fmt.Sprintf(`{
		"id": %q, "name": %q, "category": "wedding",
		"grant_method": "ON_REQUEST", "grant_amount": "%d",
		"effective_rule": "IMMEDIATE",
		"expiration_rule": "N_MONTHS_AFTER_GRANT", "expiration_months": %d,
		"approval_required_count": %d
	}`, id, name, days, expireMonths, approvals)
}
