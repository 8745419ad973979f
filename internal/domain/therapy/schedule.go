package therapy

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar-date format used for course start dates and
// administration-log keys.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// midnight normalizes a timestamp to midnight UTC of its calendar day.
// All day arithmetic in this package runs on normalized dates so that a
// daylight-saving transition in the local zone can never shift a day index.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DosesPerDay converts a dosing frequency in hours into the number of
// administration slots per calendar day. Absent or invalid frequencies
// default to a single daily dose.
func DosesPerDay(frequencyHours int) int {
	if frequencyHours <= 0 {
		return 1
	}
	n := 24 / frequencyHours
	if n < 1 {
		return 1
	}
	return n
}

// DayIndex returns the 1-based calendar-day offset of date from start.
// Dates before start yield indices below 1.
func DayIndex(start, date time.Time) int {
	days := int(midnight(date).Sub(midnight(start)).Hours() / 24)
	return days + 1
}

// CalendarDate is the inverse of DayIndex: the calendar day at the given
// 1-based index of a course starting at start.
func CalendarDate(start time.Time, dayIndex int) time.Time {
	return midnight(start).AddDate(0, 0, dayIndex-1)
}

// DayOfTherapy is the 1-based count of calendar days a course has been
// running as of today, inclusive of the start day. A start date in the
// future clamps to day 1.
func DayOfTherapy(start, today time.Time) int {
	days := int(midnight(today).Sub(midnight(start)).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days + 1
}

// TotalPlannedDoses is the number of administration slots over the whole
// planned course.
func TotalPlannedDoses(plannedDays, dosesPerDay int) int {
	return plannedDays * dosesPerDay
}

// DisplayDays returns the number of day columns a chart should render for a
// set of courses: the longest planned duration, with a floor of seven so
// short courses still get a usable grid.
func DisplayDays(courses []*Course) int {
	days := 7
	for _, c := range courses {
		if d := c.PlannedDays(); d > days {
			days = d
		}
	}
	return days
}

// frequencyAliases maps common prescription shorthand to dosing intervals.
var frequencyAliases = map[string]int{
	"od":          24,
	"once daily":  24,
	"daily":       24,
	"bd":          12,
	"bid":         12,
	"twice daily": 12,
	"tds":         8,
	"tid":         8,
	"qds":         6,
	"qid":         6,
}

// ParseFrequencyHours derives a dosing interval in hours from a free-text
// frequency descriptor ("8 hourly", "q8h", "BD", ...). Returns 0 when the
// descriptor is not recognized; callers fall back to a single daily dose
// via DosesPerDay.
func ParseFrequencyHours(descriptor string) int {
	s := strings.ToLower(strings.TrimSpace(descriptor))
	if s == "" {
		return 0
	}
	if h, ok := frequencyAliases[s]; ok {
		return h
	}
	if strings.HasPrefix(s, "q") && strings.HasSuffix(s, "h") {
		if h, err := strconv.Atoi(s[1 : len(s)-1]); err == nil && h > 0 {
			return h
		}
	}
	if rest, ok := strings.CutSuffix(s, "hourly"); ok {
		if h, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && h > 0 {
			return h
		}
	}
	return 0
}
