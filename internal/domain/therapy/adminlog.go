package therapy

import "time"

// CellState classifies one chart cell for rendering.
type CellState string

const (
	CellEmpty        CellState = "empty"
	CellGiven        CellState = "given"
	CellMissed       CellState = "missed"
	CellBeyondWindow CellState = "beyond-window"
)

// padSlots grows a slot slice to exactly n entries. Every writer goes
// through this helper; slices are never shrunk.
func padSlots(slots []*AdministrationEntry, n int) []*AdministrationEntry {
	for len(slots) < n {
		slots = append(slots, nil)
	}
	return slots
}

// checkDose validates the shared preconditions for administration-log
// writes: the course must be Active and the cell inside the therapy window.
func (c *Course) checkDose(dayIndex, slot int) error {
	if c.Status != StatusActive {
		return ErrCourseNotActive
	}
	if dayIndex < 1 || dayIndex > c.PlannedDays() {
		return ErrDayOutOfRange
	}
	if slot < 0 || slot >= c.DosesPerDay() {
		return ErrSlotOutOfRange
	}
	return nil
}

// RecordDose logs the outcome of one dose slot. The date's slot slice is
// created and padded on first write. Re-recording the same cell overwrites
// without error. reason is kept only for missed doses.
func (c *Course) RecordDose(dayIndex, slot int, status DoseStatus, actor, scheduledTime, reason string, now time.Time) error {
	if err := c.checkDose(dayIndex, slot); err != nil {
		return err
	}
	if status != DoseGiven && status != DoseMissed {
		return ErrInvalidDoseStatus
	}
	if status != DoseMissed {
		reason = ""
	}
	if c.AdministrationLog == nil {
		c.AdministrationLog = make(map[string][]*AdministrationEntry)
	}
	date := CalendarDate(c.Start(), dayIndex).Format(DateLayout)
	c.AdministrationLog[date] = padSlots(c.AdministrationLog[date], c.DosesPerDay())
	c.AdministrationLog[date][slot] = &AdministrationEntry{
		Status:    status,
		Time:      scheduledTime,
		User:      actor,
		Timestamp: now,
		Reason:    reason,
	}
	return nil
}

// ClearDose reverts a logged slot to the not-yet-logged state. The slice
// keeps its padded length.
func (c *Course) ClearDose(dayIndex, slot int) error {
	if err := c.checkDose(dayIndex, slot); err != nil {
		return err
	}
	date := CalendarDate(c.Start(), dayIndex).Format(DateLayout)
	slots, ok := c.AdministrationLog[date]
	if !ok {
		return nil
	}
	c.AdministrationLog[date] = padSlots(slots, c.DosesPerDay())
	c.AdministrationLog[date][slot] = nil
	return nil
}

// SetScheduledTime sets the default scheduled time for a dose slot,
// independent of the administration log. The defaults slice is padded with
// empty strings so setting a late slot never indexes out of bounds.
func (c *Course) SetScheduledTime(slot int, t string) error {
	if slot < 0 || slot >= c.DosesPerDay() {
		return ErrSlotOutOfRange
	}
	for len(c.ScheduledTimes) < c.DosesPerDay() {
		c.ScheduledTimes = append(c.ScheduledTimes, "")
	}
	c.ScheduledTimes[slot] = t
	return nil
}

// ScheduledTime returns the default time for a slot, or "" when unset.
func (c *Course) ScheduledTime(slot int) string {
	if slot < 0 || slot >= len(c.ScheduledTimes) {
		return ""
	}
	return c.ScheduledTimes[slot]
}

// Cell reads one chart cell. Days past the planned duration report
// CellBeyondWindow; such cells are rendered distinctly and are not
// clickable.
func (c *Course) Cell(dayIndex, slot int) (CellState, *AdministrationEntry) {
	if dayIndex < 1 || dayIndex > c.PlannedDays() {
		return CellBeyondWindow, nil
	}
	date := CalendarDate(c.Start(), dayIndex).Format(DateLayout)
	slots := c.AdministrationLog[date]
	if slot < 0 || slot >= len(slots) || slots[slot] == nil {
		return CellEmpty, nil
	}
	entry := slots[slot]
	if entry.Status == DoseMissed {
		return CellMissed, entry
	}
	return CellGiven, entry
}

// DoseCounts tallies the logged entries across the whole course.
func (c *Course) DoseCounts() (given, missed int) {
	for _, slots := range c.AdministrationLog {
		for _, e := range slots {
			if e == nil {
				continue
			}
			switch e.Status {
			case DoseGiven:
				given++
			case DoseMissed:
				missed++
			}
		}
	}
	return given, missed
}
