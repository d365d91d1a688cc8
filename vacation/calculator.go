/*
calculator.go - Effective and expiration date rules

PURPOSE:
  Pure, total functions mapping a reference instant to the start and
  end of a granted balance's validity window. Used synchronously at
  grant time for ON_REQUEST policies and by the scheduler for
  REPEAT_GRANT firings (anchored on the due date).

DOMAIN:
  Both functions are total over their declared enumerants. An unknown
  enumerant is a programming error and panics; the validators make it
  unreachable for persisted policies.
*/
package vacation

import "fmt"

// EffectiveDate resolves when a balance granted at t becomes usable.
func EffectiveDate(rule EffectiveRule, t TimePoint) TimePoint {
	switch rule {
	case EffectiveImmediate:
		return t
	case EffectiveStartOfYear:
		return StartOfYearInstant(t.Year())
	}
	panic(fmt.Sprintf("vacation: unknown effective rule %q", rule))
}

// ExpirationDate resolves when a balance granted at grantDate stops
// being usable. N_MONTHS_AFTER_GRANT clamps to the target month's last
// day (Jan 31 + 3 months expires Apr 30 23:59:59) and always forces
// the time-of-day to 23:59:59.
func ExpirationDate(rule ExpirationRule, grantDate TimePoint) TimePoint {
	switch rule.Kind {
	case ExpireAfterMonths:
		return AddCalendarMonths(grantDate, rule.Months).EndOfDay()
	case ExpireEndOfYear:
		return EndOfYearInstant(grantDate.Year())
	}
	panic(fmt.Sprintf("vacation: unknown expiration rule %q", rule.Kind))
}

// scheduledWindow is the validity window for a scheduled (REPEAT_GRANT)
// firing: effective immediately on the due date, expiring at the end of
// the due date's calendar year. Repeat-grant policies carry no
// effective/expiration rules of their own, so the window is fixed.
func scheduledWindow(dueDate TimePoint) (effective, expires TimePoint) {
	return EffectiveDate(EffectiveImmediate, dueDate),
		ExpirationDate(ExpirationRule{Kind: ExpireEndOfYear}, dueDate)
}
