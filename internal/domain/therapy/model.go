// Package therapy implements the per-course administration tracking engine:
// the dose schedule calculator, the sparse per-day administration log, and
// the course lifecycle state machine. Everything in this package mutates a
// Course in memory only; persisting the owning patient document is the
// caller's job.
package therapy

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CourseStatus is the closed set of lifecycle states for a therapy course.
type CourseStatus string

const (
	StatusActive    CourseStatus = "Active"
	StatusCompleted CourseStatus = "Completed"
	StatusStopped   CourseStatus = "Stopped"
	StatusShifted   CourseStatus = "Shifted"
)

// DoseStatus records the outcome of a single administration slot.
type DoseStatus string

const (
	DoseGiven  DoseStatus = "Given"
	DoseMissed DoseStatus = "Missed"
)

// AdministrationEntry is one logged dose slot. Time carries the slot's
// scheduled time as it was at logging; Timestamp is the recording instant.
type AdministrationEntry struct {
	Status    DoseStatus `json:"status"`
	Time      string     `json:"time,omitempty"`
	User      string     `json:"user"`
	Timestamp time.Time  `json:"timestamp"`
	Reason    string     `json:"reason,omitempty"`
}

// ChangeHistoryEntry records a dose adjustment on a course.
type ChangeHistoryEntry struct {
	Date     time.Time `json:"date"`
	Type     string    `json:"type"`
	OldValue string    `json:"old_value"`
	NewValue string    `json:"new_value"`
	Reason   string    `json:"reason,omitempty"`
	User     string    `json:"user"`
}

// ChangeTypeDose is the only change-history entry type currently recorded.
const ChangeTypeDose = "Dose Change"

// Course is one antimicrobial regimen tracked for a patient. Courses are
// embedded in the patient document; the slice for any populated log date is
// always padded to exactly DosesPerDay() entries before a write, and slots
// are cleared individually, never removed by shrinking the slice.
type Course struct {
	ID              uuid.UUID    `json:"id"`
	Drug            string       `json:"drug"`
	Dose            string       `json:"dose"`
	Route           string       `json:"route,omitempty"`
	Frequency       string       `json:"frequency,omitempty"`
	FrequencyHours  int          `json:"frequency_hours,omitempty"`
	StartDate       string       `json:"start_date"`
	PlannedDuration string       `json:"planned_duration"`
	Status          CourseStatus `json:"status"`

	// Informational fields copied from the approval workflow at creation.
	Prescriber string `json:"prescriber,omitempty"`
	Specialist string `json:"specialist,omitempty"`
	Indication string `json:"indication,omitempty"`

	// Terminal metadata; exactly one group is set while the course is in a
	// terminal state, all are nil/empty while Active.
	StopDate    *time.Time `json:"stop_date,omitempty"`
	StopReason  string     `json:"stop_reason,omitempty"`
	ShiftedAt   *time.Time `json:"shifted_at,omitempty"`
	ShiftReason string     `json:"shift_reason,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ActionBy    string     `json:"action_by,omitempty"`

	ScheduledTimes    []string                          `json:"scheduled_times,omitempty"`
	AdministrationLog map[string][]*AdministrationEntry `json:"administration_log,omitempty"`
	ChangeHistory     []ChangeHistoryEntry              `json:"change_history,omitempty"`
}

// PlannedDays returns the planned duration in days, or 0 when the stored
// text is not a positive integer.
func (c *Course) PlannedDays() int {
	n, err := strconv.Atoi(c.PlannedDuration)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// DosesPerDay returns the number of administration slots per calendar day
// for this course.
func (c *Course) DosesPerDay() int {
	return DosesPerDay(c.FrequencyHours)
}

// Start returns the course start date parsed at midnight UTC. The zero time
// is returned when the stored date is malformed.
func (c *Course) Start() time.Time {
	t, err := ParseDate(c.StartDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
