package vacation

import (
	"time"
)

// =============================================================================
// TIME POINT - Concrete time abstraction (grants live on calendar dates,
// effective/expiration windows on second-precision instants)
// =============================================================================

type TimePoint struct {
	Time        time.Time
	Granularity Granularity
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularitySecond
)

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

func NewInstant(year int, month time.Month, day, hour, min, sec int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, hour, min, sec, 0, time.UTC), Granularity: GranularitySecond}
}

func FromTime(t time.Time) TimePoint {
	return TimePoint{Time: t.UTC(), Granularity: GranularitySecond}
}

func Today() TimePoint {
	now := time.Now().UTC()
	return NewTimePoint(now.Year(), now.Month(), now.Day())
}

func Now() TimePoint {
	return FromTime(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	switch tp.Granularity {
	case GranularityDay:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return tp.Time
	}
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, 0, n), Granularity: tp.Granularity}
}

func (tp TimePoint) AddYears(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(n, 0, 0), Granularity: tp.Granularity}
}

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

// AsDate truncates to day granularity.
func (tp TimePoint) AsDate() TimePoint {
	return NewTimePoint(tp.Year(), tp.Month(), tp.Day())
}

func (tp TimePoint) String() string {
	switch tp.Granularity {
	case GranularityDay:
		return tp.Time.Format("2006-01-02")
	default:
		return tp.Time.Format("2006-01-02 15:04:05")
	}
}

// =============================================================================
// CALENDAR HELPERS
// =============================================================================

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }

// StartOfYearInstant is Jan 1 00:00:00 of the given year.
func StartOfYearInstant(year int) TimePoint {
	return NewInstant(year, time.January, 1, 0, 0, 0)
}

// EndOfYearInstant is Dec 31 23:59:59 of the given year.
func EndOfYearInstant(year int) TimePoint {
	return NewInstant(year, time.December, 31, 23, 59, 59)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// ClampDay resolves a requested day-of-month against a concrete month.
// Day 31 in a 30-day month lands on the 30th; Feb 29 in a non-leap
// year lands on the 28th. Clamping is the documented policy for every
// recurrence and expiration computation in this engine - it never
// overflows into the following month.
func ClampDay(year int, month time.Month, day int) TimePoint {
	last := DaysInMonth(year, month)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewTimePoint(year, month, day)
}

// EndOfDay forces the time-of-day to 23:59:59.
func (tp TimePoint) EndOfDay() TimePoint {
	return NewInstant(tp.Year(), tp.Month(), tp.Day(), 23, 59, 59)
}

// QuarterEnd returns the last day of the quarter containing tp.
func QuarterEnd(year int, month time.Month) TimePoint {
	switch {
	case month <= time.March:
		return NewTimePoint(year, time.March, 31)
	case month <= time.June:
		return NewTimePoint(year, time.June, 30)
	case month <= time.September:
		return NewTimePoint(year, time.September, 30)
	default:
		return NewTimePoint(year, time.December, 31)
	}
}

// HalfEnd returns the last day of the half-year containing tp.
func HalfEnd(year int, month time.Month) TimePoint {
	if month <= time.June {
		return NewTimePoint(year, time.June, 30)
	}
	return NewTimePoint(year, time.December, 31)
}

// AddCalendarMonths steps n months on (year, month) integers and clamps
// the day. Unlike time.AddDate, Jan 31 + 1 month is Feb 28/29, not Mar 2/3.
func AddCalendarMonths(tp TimePoint, n int) TimePoint {
	y, m := stepMonths(tp.Year(), tp.Month(), n)
	return ClampDay(y, m, tp.Day())
}

// stepMonths advances a (year, month) pair by n months.
func stepMonths(year int, month time.Month, n int) (int, time.Month) {
	total := year*12 + int(month) - 1 + n
	return total / 12, time.Month(total%12 + 1)
}
