package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDayOfMonth(t *testing.T) {
	tests := []struct {
		name      string
		targetDay int
		year      int
		month     time.Month
		want      int
	}{
		{"zero means last day", 0, 2024, time.January, 31},
		{"zero in february leap year", 0, 2024, time.February, 29},
		{"zero in february non-leap", 0, 2023, time.February, 28},
		{"day within month", 15, 2024, time.June, 15},
		{"day 31 clamped to 30", 31, 2024, time.April, 30},
		{"day 31 clamped to leap february", 31, 2024, time.February, 29},
		{"day 29 clamped to non-leap february", 29, 2023, time.February, 28},
		{"day 1 never clamped", 1, 2024, time.February, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDayOfMonth(tt.targetDay, tt.year, tt.month)
			assert.Equal(t, tt.want, got)

			// Result is always a real day of the month.
			assert.GreaterOrEqual(t, got, 1)
			assert.LessOrEqual(t, got, DaysInMonth(tt.year, tt.month))
		})
	}
}

func TestResolveDayOfMonthLastDayProperty(t *testing.T) {
	// The month's last day comes back iff target is 0 or exceeds the month.
	for month := time.January; month <= time.December; month++ {
		last := DaysInMonth(2023, month)
		assert.Equal(t, last, ResolveDayOfMonth(0, 2023, month))
		assert.Equal(t, last, ResolveDayOfMonth(last+1, 2023, month))
		if last > 1 {
			assert.NotEqual(t, last, ResolveDayOfMonth(last-1, 2023, month))
		}
	}
}

func TestAdvanceOneMonth(t *testing.T) {
	tests := []struct {
		name      string
		from      time.Time
		targetDay int
		want      time.Time
	}{
		{"simple step", Date(2024, time.January, 15), 15, Date(2024, time.February, 15)},
		{"clamp into february", Date(2024, time.January, 31), 31, Date(2024, time.February, 29)},
		{"recover after clamp", Date(2024, time.February, 29), 31, Date(2024, time.March, 31)},
		{"last day semantics", Date(2024, time.March, 31), 0, Date(2024, time.April, 30)},
		{"december rolls year", Date(2023, time.December, 5), 5, Date(2024, time.January, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdvanceOneMonth(tt.from, tt.targetDay))
		})
	}
}

func TestAdvanceOneYear(t *testing.T) {
	got := AdvanceOneYear(Date(2024, time.February, 29), time.February, 29)
	assert.Equal(t, Date(2025, time.February, 28), got)

	got = AdvanceOneYear(Date(2023, time.July, 4), time.July, 4)
	assert.Equal(t, Date(2024, time.July, 4), got)
}

func TestFirstNWeeklyOnOrAfter(t *testing.T) {
	anchor := Date(2024, time.January, 1) // a Monday

	tests := []struct {
		name     string
		interval int
		from     time.Time
		want     time.Time
	}{
		{"from before anchor returns anchor", 14, Date(2023, time.December, 1), anchor},
		{"from equals anchor returns anchor", 14, anchor, anchor},
		{"from on an occurrence", 14, Date(2024, time.January, 15), Date(2024, time.January, 15)},
		{"from between occurrences", 14, Date(2024, time.January, 16), Date(2024, time.January, 29)},
		{"from one day after anchor", 7, Date(2024, time.January, 2), Date(2024, time.January, 8)},
		{"long jump", 28, Date(2024, time.June, 1), Date(2024, time.June, 17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstNWeeklyOnOrAfter(anchor, tt.interval, tt.from)
			assert.Equal(t, tt.want, got)

			// Result lies on the anchor grid and is never before from.
			days := int(got.Sub(anchor).Hours() / 24)
			assert.Zero(t, days%tt.interval)
			assert.False(t, got.Before(tt.from) && tt.from.After(anchor))
		})
	}
}

func TestFirstMonthlyOnOrAfter(t *testing.T) {
	tests := []struct {
		name      string
		targetDay int
		from      time.Time
		want      time.Time
	}{
		{"same month when day ahead", 20, Date(2024, time.March, 10), Date(2024, time.March, 20)},
		{"same day", 10, Date(2024, time.March, 10), Date(2024, time.March, 10)},
		{"next month when day passed", 5, Date(2024, time.March, 10), Date(2024, time.April, 5)},
		{"last day current month", 0, Date(2024, time.February, 10), Date(2024, time.February, 29)},
		{"december wraps to january", 5, Date(2024, time.December, 10), Date(2025, time.January, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstMonthlyOnOrAfter(tt.targetDay, tt.from))
		})
	}
}

func TestFirstYearlyOnOrAfter(t *testing.T) {
	got := FirstYearlyOnOrAfter(time.April, 15, Date(2024, time.March, 1))
	assert.Equal(t, Date(2024, time.April, 15), got)

	got = FirstYearlyOnOrAfter(time.April, 15, Date(2024, time.May, 1))
	assert.Equal(t, Date(2025, time.April, 15), got)

	// Feb 29 target resolves to Feb 28 in a non-leap year.
	got = FirstYearlyOnOrAfter(time.February, 29, Date(2025, time.January, 1))
	assert.Equal(t, Date(2025, time.February, 28), got)
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, 0, Weekday(Date(2024, time.January, 1))) // Monday
	assert.Equal(t, 6, Weekday(Date(2024, time.January, 7))) // Sunday
}

func TestMonthHelpers(t *testing.T) {
	first, last, err := MonthRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, time.February, 1), first)
	assert.Equal(t, Date(2024, time.February, 29), last)

	prev, err := PrevMonth("2024-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-12", prev)

	next, err := NextMonth("2024-12")
	require.NoError(t, err)
	assert.Equal(t, "2025-01", next)

	_, _, err = MonthRange("not-a-month")
	require.Error(t, err)
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, Date(2024, time.February, 29), AddMonths(Date(2024, time.January, 31), 1))
	assert.Equal(t, Date(2023, time.November, 30), AddMonths(Date(2024, time.January, 31), -2))
	assert.Equal(t, Date(2025, time.January, 15), AddMonths(Date(2024, time.January, 15), 12))
	assert.Equal(t, Date(2022, time.November, 1), AddMonths(Date(2024, time.January, 1), -14))
}

func TestParseFormatRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", FormatDate(d))

	_, err = ParseDate("05/01/2024")
	require.Error(t, err)

	m, err := ParseMonth("2024-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-05", FormatMonth(m))
}

func TestFriendlyMonth(t *testing.T) {
	assert.Equal(t, "February 2026", FriendlyMonth("2026-02"))
	assert.Equal(t, "junk", FriendlyMonth("junk"))
}
