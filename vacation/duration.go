/*
duration.go - Exact fractional-day durations and the unit codec

PURPOSE:
  Every grant and usage amount in this system is a Duration: an exact
  decimal count of days with fixed 30-minute granularity (one working
  day = 8 hours, so an hour is 0.125 days and 30 minutes is 0.0625).

INVARIANT:
  Every Duration is expressible as
    wholeDays + k1*(1/8) + k2*(1/16)
  with wholeDays >= 0, k1 in [0,7], k2 in {0,1}.

PRECISION:
  All arithmetic runs on decimal.Decimal. Rounding happens only at the
  final display-formatting step, never mid-computation.

SEE ALSO:
  - types.go: Identifier and grant types
  - tracker.go: Uses Duration for grant amounts
*/
package vacation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DURATION - Exact decimal day quantity
// =============================================================================

type Duration struct {
	Days decimal.Decimal
}

var (
	dayPerHour     = MustParseDecimal("0.125")  // 1/8
	dayPerHalfHour = MustParseDecimal("0.0625") // 1/16
	minutesPerHalf = decimal.NewFromInt(30)
)

func NewDuration(days decimal.Decimal) Duration { return Duration{Days: days} }

func DurationFromInt(days int) Duration {
	return Duration{Days: decimal.NewFromInt(int64(days))}
}

// DurationFromString parses an exact decimal day count, e.g. "1.5".
func DurationFromString(s string) (Duration, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration{Days: d}, nil
}

func (d Duration) Add(o Duration) Duration    { return Duration{Days: d.Days.Add(o.Days)} }
func (d Duration) Sub(o Duration) Duration    { return Duration{Days: d.Days.Sub(o.Days)} }
func (d Duration) IsZero() bool               { return d.Days.IsZero() }
func (d Duration) IsPositive() bool           { return d.Days.IsPositive() }
func (d Duration) IsNegative() bool           { return d.Days.IsNegative() }
func (d Duration) Equal(o Duration) bool      { return d.Days.Equal(o.Days) }
func (d Duration) String() string             { return d.Days.String() }

// =============================================================================
// UNIT KIND - Fixed day-multipliers for every grantable work unit
// =============================================================================

type UnitKind string

const (
	UnitFullDay          UnitKind = "full_day"
	UnitMorningHalf      UnitKind = "morning_half"
	UnitAfternoonHalf    UnitKind = "afternoon_half"
	UnitOneHour          UnitKind = "one_hour"
	UnitTwoHours         UnitKind = "two_hours"
	UnitThreeHours       UnitKind = "three_hours"
	UnitFourHours        UnitKind = "four_hours"
	UnitFiveHours        UnitKind = "five_hours"
	UnitSixHours         UnitKind = "six_hours"
	UnitSevenHours       UnitKind = "seven_hours"
	UnitHalfHour         UnitKind = "half_hour"
	UnitHealthCheckHalf  UnitKind = "health_check_half"
	UnitCivilDefenseDay  UnitKind = "civil_defense_day"
	UnitCivilDefenseHalf UnitKind = "civil_defense_half"
)

// unitMultipliers maps each unit kind to its fraction of one working day.
var unitMultipliers = map[UnitKind]decimal.Decimal{
	UnitFullDay:          decimal.NewFromInt(1),
	UnitMorningHalf:      MustParseDecimal("0.5"),
	UnitAfternoonHalf:    MustParseDecimal("0.5"),
	UnitOneHour:          MustParseDecimal("0.125"),
	UnitTwoHours:         MustParseDecimal("0.25"),
	UnitThreeHours:       MustParseDecimal("0.375"),
	UnitFourHours:        MustParseDecimal("0.5"),
	UnitFiveHours:        MustParseDecimal("0.625"),
	UnitSixHours:         MustParseDecimal("0.75"),
	UnitSevenHours:       MustParseDecimal("0.875"),
	UnitHalfHour:         MustParseDecimal("0.0625"),
	UnitHealthCheckHalf:  MustParseDecimal("0.5"),
	UnitCivilDefenseDay:  decimal.NewFromInt(1),
	UnitCivilDefenseHalf: MustParseDecimal("0.5"),
}

// UnitKinds lists every known unit kind.
func UnitKinds() []UnitKind {
	return []UnitKind{
		UnitFullDay, UnitMorningHalf, UnitAfternoonHalf,
		UnitOneHour, UnitTwoHours, UnitThreeHours, UnitFourHours,
		UnitFiveHours, UnitSixHours, UnitSevenHours, UnitHalfHour,
		UnitHealthCheckHalf, UnitCivilDefenseDay, UnitCivilDefenseHalf,
	}
}

// Multiplier returns the day fraction one unit of k represents.
func (k UnitKind) Multiplier() (decimal.Decimal, bool) {
	m, ok := unitMultipliers[k]
	return m, ok
}

// FromUnitCount converts a count of elapsed work units into an exact
// Duration: count x multiplier, no floating intermediate.
func FromUnitCount(kind UnitKind, count int) (Duration, error) {
	mult, ok := unitMultipliers[kind]
	if !ok {
		return Duration{}, fmt.Errorf("unknown unit kind %q", kind)
	}
	return Duration{Days: decimal.NewFromInt(int64(count)).Mul(mult)}, nil
}

// =============================================================================
// DISPLAY - days / hours / minutes breakdown
// =============================================================================

// DisplayString decomposes a non-negative duration into whole days,
// hours (eighths of a day) and minutes (a remaining sixteenth is 30
// minutes), rendering only the non-zero components. Zero or negative
// input renders the "0 days" sentinel.
func (d Duration) DisplayString() string {
	if d.Days.IsZero() || d.Days.IsNegative() {
		return "0 days"
	}

	whole := d.Days.Floor()
	frac := d.Days.Sub(whole)

	hours := frac.Div(dayPerHour).Floor()
	remainder := frac.Sub(hours.Mul(dayPerHour))
	minutes := remainder.Div(dayPerHalfHour).Floor().Mul(minutesPerHalf)

	var parts []string
	if !whole.IsZero() {
		parts = append(parts, fmt.Sprintf("%s days", whole.String()))
	}
	if !hours.IsZero() {
		parts = append(parts, fmt.Sprintf("%s hours", hours.String()))
	}
	if !minutes.IsZero() {
		parts = append(parts, fmt.Sprintf("%s minutes", minutes.String()))
	}
	if len(parts) == 0 {
		// Sub-granular residue (should not occur for valid durations).
		return "0 days"
	}
	return strings.Join(parts, " ")
}
