package vacation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// CALENDAR HELPER TESTS
// =============================================================================

func TestClampDay_MonthEnds(t *testing.T) {
	// GIVEN: A requested day past the end of the target month
	// WHEN: Clamping
	// THEN: The date lands on the month's last day, never the next month

	assert.Equal(t, vacation.NewTimePoint(2025, time.February, 28), vacation.ClampDay(2025, time.February, 31))
	assert.Equal(t, vacation.NewTimePoint(2024, time.February, 29), vacation.ClampDay(2024, time.February, 31))
	assert.Equal(t, vacation.NewTimePoint(2025, time.April, 30), vacation.ClampDay(2025, time.April, 31))
	assert.Equal(t, vacation.NewTimePoint(2025, time.January, 31), vacation.ClampDay(2025, time.January, 31))
	assert.Equal(t, vacation.NewTimePoint(2025, time.June, 1), vacation.ClampDay(2025, time.June, 0))
}

func TestAddCalendarMonths_ClampsInsteadOfOverflowing(t *testing.T) {
	// GIVEN: Jan 31
	// WHEN: Adding calendar months
	// THEN: Feb lands on the 28th, Apr on the 30th - unlike time.AddDate,
	//       which would overflow Jan 31 + 1 month to March 2/3

	jan31 := vacation.NewTimePoint(2025, time.January, 31)
	assert.Equal(t, vacation.NewTimePoint(2025, time.February, 28), vacation.AddCalendarMonths(jan31, 1))
	assert.Equal(t, vacation.NewTimePoint(2025, time.April, 30), vacation.AddCalendarMonths(jan31, 3))
	assert.Equal(t, vacation.NewTimePoint(2025, time.July, 31), vacation.AddCalendarMonths(jan31, 6))

	// Year boundary
	nov30 := vacation.NewTimePoint(2025, time.November, 30)
	assert.Equal(t, vacation.NewTimePoint(2026, time.February, 28), vacation.AddCalendarMonths(nov30, 3))

	// Leap year
	nov30leap := vacation.NewTimePoint(2023, time.November, 30)
	assert.Equal(t, vacation.NewTimePoint(2024, time.February, 29), vacation.AddCalendarMonths(nov30leap, 3))
}

func TestQuarterAndHalfEnds(t *testing.T) {
	assert.Equal(t, vacation.NewTimePoint(2025, time.March, 31), vacation.QuarterEnd(2025, time.January))
	assert.Equal(t, vacation.NewTimePoint(2025, time.March, 31), vacation.QuarterEnd(2025, time.March))
	assert.Equal(t, vacation.NewTimePoint(2025, time.June, 30), vacation.QuarterEnd(2025, time.April))
	assert.Equal(t, vacation.NewTimePoint(2025, time.September, 30), vacation.QuarterEnd(2025, time.July))
	assert.Equal(t, vacation.NewTimePoint(2025, time.December, 31), vacation.QuarterEnd(2025, time.October))

	assert.Equal(t, vacation.NewTimePoint(2025, time.June, 30), vacation.HalfEnd(2025, time.February))
	assert.Equal(t, vacation.NewTimePoint(2025, time.December, 31), vacation.HalfEnd(2025, time.July))
}

func TestTimePoint_GranularityComparison(t *testing.T) {
	// GIVEN: A day-granularity date and a second-granularity instant
	// WHEN: Comparing
	// THEN: The date normalizes to midnight

	day := vacation.NewTimePoint(2025, time.March, 10)
	midnight := vacation.NewInstant(2025, time.March, 10, 0, 0, 0)
	noon := vacation.NewInstant(2025, time.March, 10, 12, 0, 0)

	assert.True(t, day.Equal(midnight))
	assert.True(t, day.Before(noon))
	assert.True(t, noon.After(day))
	assert.True(t, day.BeforeOrEqual(midnight))
	assert.True(t, day.AfterOrEqual(midnight))
}

func TestTimePoint_EndOfDay(t *testing.T) {
	got := vacation.NewTimePoint(2025, time.April, 30).EndOfDay()
	assert.Equal(t, vacation.NewInstant(2025, time.April, 30, 23, 59, 59), got)
}

func TestEndOfYearInstant(t *testing.T) {
	assert.Equal(t, vacation.NewInstant(2025, time.December, 31, 23, 59, 59), vacation.EndOfYearInstant(2025))
}
