/*
recurrence.go - Recurrence descriptor and occurrence arithmetic

PURPOSE:
  A Recurrence describes how often and on what calendar anchor a
  REPEAT_GRANT policy fires: the repeat unit and interval, the timing
  rule that pins a firing to a concrete date inside each period, an
  optional occurrence cap for bounded recurrences, and the anchor date
  the first occurrence is computed from.

TIMING RULES:
  FIXED_DATE      month+day required    e.g. "every year on March 15"
  SPECIFIC_MONTH  month required        e.g. "every year in March" (day defaults to 1)
  SPECIFIC_DAY    day required          e.g. "every month on the 25th"
  QUARTER_END                           last day of the quarter
  HALF_END                              June 30 / December 31
  YEAR_END                              December 31
  EVERY_INTERVAL                        the step date itself (DAILY only)

CLAMPING:
  Day-of-month always clamps to the target month's last day and the
  canonical day is re-resolved on every step, so a "25th of every
  month" rule never drifts and a day-31 rule fires Jan 31, Feb 28,
  Mar 31. Clamping never errors and never overflows into the next month.

SEE ALSO:
  - validate.go: Which descriptor shapes are legal per unit/timing
  - tracker.go: Consumes FirstOccurrence/NextOccurrence
*/
package vacation

import "time"

// =============================================================================
// REPEAT UNIT / GRANT TIMING
// =============================================================================

type RepeatUnit string

const (
	UnitYearly    RepeatUnit = "YEARLY"
	UnitMonthly   RepeatUnit = "MONTHLY"
	UnitQuarterly RepeatUnit = "QUARTERLY"
	UnitHalf      RepeatUnit = "HALF"
	UnitDaily     RepeatUnit = "DAILY"
)

func (u RepeatUnit) IsValid() bool {
	switch u {
	case UnitYearly, UnitMonthly, UnitQuarterly, UnitHalf, UnitDaily:
		return true
	}
	return false
}

// months per step for month-based units
func (u RepeatUnit) monthsPerStep() int {
	switch u {
	case UnitMonthly:
		return 1
	case UnitQuarterly:
		return 3
	case UnitHalf:
		return 6
	default:
		return 0
	}
}

type GrantTiming string

const (
	TimingFixedDate     GrantTiming = "FIXED_DATE"
	TimingSpecificMonth GrantTiming = "SPECIFIC_MONTH"
	TimingSpecificDay   GrantTiming = "SPECIFIC_DAY"
	TimingQuarterEnd    GrantTiming = "QUARTER_END"
	TimingHalfEnd       GrantTiming = "HALF_END"
	TimingYearEnd       GrantTiming = "YEAR_END"
	TimingEveryInterval GrantTiming = "EVERY_INTERVAL"
)

func (t GrantTiming) IsValid() bool {
	switch t {
	case TimingFixedDate, TimingSpecificMonth, TimingSpecificDay,
		TimingQuarterEnd, TimingHalfEnd, TimingYearEnd, TimingEveryInterval:
		return true
	}
	return false
}

// =============================================================================
// RECURRENCE DESCRIPTOR
// =============================================================================

// Recurrence is the immutable sub-schema of a REPEAT_GRANT policy
// describing repeat cadence and calendar anchor. Shape legality is
// enforced by ValidateAndBuild before a descriptor reaches the
// occurrence arithmetic below.
type Recurrence struct {
	RepeatUnit     RepeatUnit
	RepeatInterval int // every N units, >= 1

	GrantTiming   GrantTiming
	SpecificMonth *int // 1-12, required per timing table
	SpecificDay   *int // 1-31, clamped to month length

	// IsRecurring false means bounded: the tracker stops advancing
	// after MaxGrantCount firings.
	IsRecurring   bool
	MaxGrantCount *int

	// FirstGrantDate anchors "N occurrences from here". When absent,
	// the tracker anchors on the assignment date instead.
	FirstGrantDate *TimePoint
}

// shapeOK reports whether the descriptor can safely drive occurrence
// arithmetic. The validator guarantees this for persisted policies;
// the tracker re-checks it and treats a failure as a fatal invariant
// violation for that row.
func (r Recurrence) shapeOK() bool {
	if !r.RepeatUnit.IsValid() || !r.GrantTiming.IsValid() || r.RepeatInterval < 1 {
		return false
	}
	switch r.GrantTiming {
	case TimingFixedDate:
		return r.SpecificMonth != nil && r.SpecificDay != nil
	case TimingSpecificMonth:
		return r.SpecificMonth != nil
	case TimingSpecificDay:
		return r.SpecificDay != nil
	}
	return true
}

// =============================================================================
// OCCURRENCE ARITHMETIC
// =============================================================================

// resolveInPeriod pins the timing rule to a concrete date within the
// unit-period containing ref. anchorMonth supplies the month for
// YEARLY x SPECIFIC_DAY, where the descriptor names no month of its own.
func (r Recurrence) resolveInPeriod(ref TimePoint, anchorMonth time.Month) TimePoint {
	year, month := ref.Year(), ref.Month()

	switch r.GrantTiming {
	case TimingFixedDate:
		return ClampDay(year, time.Month(*r.SpecificMonth), *r.SpecificDay)

	case TimingSpecificMonth:
		day := 1
		if r.SpecificDay != nil {
			day = *r.SpecificDay
		}
		return ClampDay(year, time.Month(*r.SpecificMonth), day)

	case TimingSpecificDay:
		if r.RepeatUnit == UnitYearly {
			return ClampDay(year, anchorMonth, *r.SpecificDay)
		}
		return ClampDay(year, month, *r.SpecificDay)

	case TimingQuarterEnd:
		return QuarterEnd(year, month)

	case TimingHalfEnd:
		return HalfEnd(year, month)

	case TimingYearEnd:
		return NewTimePoint(year, time.December, 31)

	default: // TimingEveryInterval
		return ref.AsDate()
	}
}

// FirstOccurrence returns the earliest date >= anchor that satisfies
// the descriptor: the timing resolved within the anchor's period, or
// one interval later when that candidate has already passed.
func (r Recurrence) FirstOccurrence(anchor TimePoint) (TimePoint, error) {
	if !r.shapeOK() {
		return TimePoint{}, &InvariantError{Component: "recurrence", Detail: "malformed descriptor in FirstOccurrence"}
	}

	anchor = anchor.AsDate()
	month := r.anchorMonth(anchor)
	candidate := r.resolveInPeriod(anchor, month)
	if candidate.Before(anchor) {
		return r.step(candidate, month), nil
	}
	return candidate, nil
}

// NextOccurrence steps RepeatInterval units of RepeatUnit forward from
// the given occurrence and re-resolves the timing rule. anchorMonth is
// the month of the recurrence anchor (used only by YEARLY x SPECIFIC_DAY).
func (r Recurrence) NextOccurrence(from TimePoint) (TimePoint, error) {
	if !r.shapeOK() {
		return TimePoint{}, &InvariantError{Component: "recurrence", Detail: "malformed descriptor in NextOccurrence"}
	}
	return r.step(from, r.anchorMonth(from)), nil
}

// anchorMonth picks the month anchoring YEARLY x SPECIFIC_DAY rules:
// the first-grant anchor when present, otherwise the current occurrence.
func (r Recurrence) anchorMonth(from TimePoint) time.Month {
	if r.FirstGrantDate != nil {
		return r.FirstGrantDate.Month()
	}
	return from.Month()
}

// step advances one interval. Month-based units step on (year, month)
// integers and re-resolve the day from the canonical descriptor, so a
// clamped firing (Feb 28 for a day-31 rule) does not shrink later ones.
func (r Recurrence) step(from TimePoint, anchorMonth time.Month) TimePoint {
	switch r.RepeatUnit {
	case UnitDaily:
		return from.AddDays(r.RepeatInterval)

	case UnitYearly:
		next := NewTimePoint(from.Year()+r.RepeatInterval, from.Month(), 1)
		return r.resolveInPeriod(next, anchorMonth)

	default: // MONTHLY, QUARTERLY, HALF
		months := r.RepeatUnit.monthsPerStep() * r.RepeatInterval
		y, m := stepMonths(from.Year(), from.Month(), months)
		return r.resolveInPeriod(NewTimePoint(y, m, 1), anchorMonth)
	}
}
