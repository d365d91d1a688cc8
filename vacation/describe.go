/*
describe.go - Human-readable policy descriptions

PURPOSE:
  Renders a policy's rules as one sentence for admin UIs. This is a
  boundary interface: localized renderers live outside the engine and
  plug in here; EnglishRenderer is the built-in default.
*/
package vacation

import (
	"fmt"
	"strings"
	"time"
)

// DescriptionRenderer turns a policy into a localized sentence.
type DescriptionRenderer interface {
	Describe(policy *VacationPolicy) string
}

// EnglishRenderer is the default renderer.
type EnglishRenderer struct{}

func (EnglishRenderer) Describe(p *VacationPolicy) string {
	switch p.GrantMethod {
	case MethodManualGrant:
		if p.GrantAmount != nil {
			return fmt.Sprintf("Granted manually by an administrator, %s at a time.", p.GrantAmount.DisplayString())
		}
		return "Granted manually by an administrator."

	case MethodOnRequest:
		return fmt.Sprintf("Granted on request (%s), %s per grant, effective %s, expiring %s.",
			approvalPhrase(p.ApprovalRequiredCount),
			p.GrantAmount.DisplayString(),
			effectivePhrase(*p.EffectiveRule),
			expirationPhrase(*p.ExpirationRule))

	case MethodRepeatGrant:
		return fmt.Sprintf("Grants %s %s.", p.GrantAmount.DisplayString(), cadencePhrase(*p.Recurrence))
	}
	return ""
}

func approvalPhrase(n int) string {
	switch n {
	case 0:
		return "no approval required"
	case 1:
		return "1 approval required"
	default:
		return fmt.Sprintf("%d approvals required", n)
	}
}

func effectivePhrase(r EffectiveRule) string {
	if r == EffectiveStartOfYear {
		return "from the start of the calendar year"
	}
	return "immediately"
}

func expirationPhrase(r ExpirationRule) string {
	if r.Kind == ExpireAfterMonths {
		if r.Months == 1 {
			return "1 month after grant"
		}
		return fmt.Sprintf("%d months after grant", r.Months)
	}
	return "at the end of the calendar year"
}

func cadencePhrase(r Recurrence) string {
	var b strings.Builder

	switch r.RepeatUnit {
	case UnitDaily:
		if r.RepeatInterval == 1 {
			b.WriteString("every day")
		} else {
			fmt.Fprintf(&b, "every %d days", r.RepeatInterval)
		}
	case UnitYearly:
		if r.RepeatInterval == 1 {
			b.WriteString("every year")
		} else {
			fmt.Fprintf(&b, "every %d years", r.RepeatInterval)
		}
		b.WriteString(timingSuffix(r))
	case UnitMonthly:
		if r.RepeatInterval == 1 {
			b.WriteString("every month")
		} else {
			fmt.Fprintf(&b, "every %d months", r.RepeatInterval)
		}
		b.WriteString(timingSuffix(r))
	case UnitQuarterly:
		b.WriteString("at the end of every quarter")
	case UnitHalf:
		b.WriteString("at the end of every half-year")
	}

	if !r.IsRecurring && r.MaxGrantCount != nil {
		fmt.Fprintf(&b, ", at most %d times", *r.MaxGrantCount)
	}
	return b.String()
}

func timingSuffix(r Recurrence) string {
	switch r.GrantTiming {
	case TimingFixedDate:
		return fmt.Sprintf(" on %s %d", time.Month(*r.SpecificMonth), *r.SpecificDay)
	case TimingSpecificMonth:
		return fmt.Sprintf(" in %s", time.Month(*r.SpecificMonth))
	case TimingSpecificDay:
		return fmt.Sprintf(" on day %d", *r.SpecificDay)
	case TimingYearEnd:
		return " on December 31"
	}
	return ""
}
