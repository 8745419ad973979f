package therapy

import (
	"testing"
	"time"
)

func TestDosesPerDay(t *testing.T) {
	tests := []struct {
		name  string
		hours int
		want  int
	}{
		{"six hourly", 6, 4},
		{"eight hourly", 8, 3},
		{"twelve hourly", 12, 2},
		{"daily", 24, 1},
		{"awkward interval rounds down", 5, 4},
		{"zero defaults to daily", 0, 1},
		{"negative defaults to daily", -8, 1},
		{"interval past a day clamps to one", 48, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DosesPerDay(tt.hours); got != tt.want {
				t.Errorf("DosesPerDay(%d) = %d, want %d", tt.hours, got, tt.want)
			}
		})
	}
}

func TestDayIndexCalendarDateRoundTrip(t *testing.T) {
	start, err := ParseDate("2025-03-01")
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}

	for day := 1; day <= 14; day++ {
		date := CalendarDate(start, day)
		if got := DayIndex(start, date); got != day {
			t.Errorf("DayIndex(CalendarDate(%d)) = %d, want %d", day, got, day)
		}
	}
}

func TestDayIndex_StartDayIsOne(t *testing.T) {
	start, _ := ParseDate("2025-03-01")
	if got := DayIndex(start, start); got != 1 {
		t.Errorf("expected day index 1 on start date, got %d", got)
	}
}

func TestDayIndex_IgnoresTimeOfDay(t *testing.T) {
	start, _ := ParseDate("2025-03-01")
	lateSameDay := time.Date(2025, 3, 3, 23, 59, 0, 0, time.UTC)
	if got := DayIndex(start, lateSameDay); got != 3 {
		t.Errorf("expected day index 3 regardless of clock time, got %d", got)
	}
}

func TestDayIndex_DSTTransitionWeek(t *testing.T) {
	// A course spanning the US spring-forward date must still advance one
	// index per calendar day even when evaluated in a zone with DST.
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	start, _ := ParseDate("2025-03-08")
	for day := 1; day <= 5; day++ {
		local := time.Date(2025, 3, 7+day, 9, 0, 0, 0, loc)
		if got := DayIndex(start, local); got != day {
			t.Errorf("day %d across DST: got index %d", day, got)
		}
	}
}

func TestDayOfTherapy(t *testing.T) {
	start, _ := ParseDate("2025-03-01")
	tests := []struct {
		name  string
		today string
		want  int
	}{
		{"start day", "2025-03-01", 1},
		{"next day", "2025-03-02", 2},
		{"two weeks in", "2025-03-15", 15},
		{"future start clamps to one", "2025-02-20", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			today, _ := ParseDate(tt.today)
			if got := DayOfTherapy(start, today); got != tt.want {
				t.Errorf("DayOfTherapy on %s = %d, want %d", tt.today, got, tt.want)
			}
		})
	}
}

func TestTotalPlannedDoses(t *testing.T) {
	if got := TotalPlannedDoses(7, 3); got != 21 {
		t.Errorf("expected 21 planned doses, got %d", got)
	}
}

func TestDisplayDays(t *testing.T) {
	tests := []struct {
		name    string
		courses []*Course
		want    int
	}{
		{"no courses floors at seven", nil, 7},
		{"short course floors at seven", []*Course{{PlannedDuration: "3"}}, 7},
		{"longest course wins", []*Course{{PlannedDuration: "5"}, {PlannedDuration: "10"}}, 10},
		{"unparseable duration ignored", []*Course{{PlannedDuration: "n/a"}}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayDays(tt.courses); got != tt.want {
				t.Errorf("DisplayDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFrequencyHours(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"od", 24},
		{"OD", 24},
		{"bd", 12},
		{"tds", 8},
		{"qds", 6},
		{"q8h", 8},
		{"Q12H", 12},
		{"8 hourly", 8},
		{"6hourly", 6},
		{"twice daily", 12},
		{"", 0},
		{"prn", 0},
		{"q0h", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFrequencyHours(tt.in); got != tt.want {
				t.Errorf("ParseFrequencyHours(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoursePlannedDays(t *testing.T) {
	c := &Course{PlannedDuration: "7"}
	if got := c.PlannedDays(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	c.PlannedDuration = "ongoing"
	if got := c.PlannedDays(); got != 0 {
		t.Errorf("expected 0 for unparseable duration, got %d", got)
	}
}
