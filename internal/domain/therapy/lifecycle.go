package therapy

import (
	"time"
)

// ReasonOther marks a stop or shift justified by free text instead of one
// of the closed reason lists.
const ReasonOther = "Other"

// StopReasons is the closed list of accepted reasons for stopping a course.
var StopReasons = []string{
	"De-escalation",
	"Adverse Event/Toxicity",
	"No Infection",
	"Clinical Failure",
	"Resistant Organism",
	"Palliative Care",
	"Discharged/Expired",
	ReasonOther,
}

// ShiftReasons is the closed list of accepted reasons for shifting a course.
var ShiftReasons = []string{
	"IV to PO Switch",
	"Escalation",
	"De-escalation",
	"Renal Adjustment",
	"Adverse Event",
	ReasonOther,
}

func validReason(reason string, allowed []string) bool {
	for _, r := range allowed {
		if r == reason {
			return true
		}
	}
	return false
}

// resolveReason validates a reason against its closed list and folds the
// free-text detail into the stored value for "Other".
func resolveReason(reason, detail string, allowed []string) (string, error) {
	if !validReason(reason, allowed) {
		return "", ErrUnknownReason
	}
	if reason == ReasonOther {
		if detail == "" {
			return "", ErrReasonRequired
		}
		return ReasonOther + ": " + detail, nil
	}
	return reason, nil
}

// Complete marks an Active course as finished.
func (c *Course) Complete(actor string, now time.Time) error {
	if c.Status != StatusActive {
		return ErrCourseNotActive
	}
	c.Status = StatusCompleted
	t := now
	c.CompletedAt = &t
	c.ActionBy = actor
	return nil
}

// Stop terminates an Active course early for one of StopReasons. detail is
// required when reason is Other and ignored otherwise.
func (c *Course) Stop(reason, detail, actor string, now time.Time) error {
	if c.Status != StatusActive {
		return ErrCourseNotActive
	}
	r, err := resolveReason(reason, detail, StopReasons)
	if err != nil {
		return err
	}
	c.Status = StatusStopped
	t := now
	c.StopDate = &t
	c.StopReason = r
	c.ActionBy = actor
	return nil
}

// Shift closes an Active course because therapy changed form (route switch,
// escalation, ...) for one of ShiftReasons.
func (c *Course) Shift(reason, detail, actor string, now time.Time) error {
	if c.Status != StatusActive {
		return ErrCourseNotActive
	}
	r, err := resolveReason(reason, detail, ShiftReasons)
	if err != nil {
		return err
	}
	c.Status = StatusShifted
	t := now
	c.ShiftedAt = &t
	c.ShiftReason = r
	c.ActionBy = actor
	return nil
}

// Undo reverts a terminal course to Active. Every terminal metadata field is
// cleared explicitly; the administration log and change history are left
// untouched. Undo on an Active course is a precondition failure.
func (c *Course) Undo() error {
	switch c.Status {
	case StatusCompleted, StatusStopped, StatusShifted:
	default:
		return ErrCourseNotTerminal
	}
	c.Status = StatusActive
	c.CompletedAt = nil
	c.StopDate = nil
	c.StopReason = ""
	c.ShiftedAt = nil
	c.ShiftReason = ""
	c.ActionBy = ""
	return nil
}

// AdjustDose changes the prescribed dose and appends a change-history
// entry. It is orthogonal to the lifecycle: the status is not touched.
func (c *Course) AdjustDose(newDose, reason, actor string, now time.Time) error {
	if newDose == "" {
		return ErrDoseRequired
	}
	c.ChangeHistory = append(c.ChangeHistory, ChangeHistoryEntry{
		Date:     now,
		Type:     ChangeTypeDose,
		OldValue: c.Dose,
		NewValue: newDose,
		Reason:   reason,
		User:     actor,
	})
	c.Dose = newDose
	return nil
}
