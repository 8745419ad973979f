package therapy

import "errors"

// Precondition failures. These are rejected before any mutation; a course is
// never left partially changed.
var (
	ErrCourseNotActive   = errors.New("course is not active")
	ErrCourseNotTerminal = errors.New("course has no terminal action to undo")
	ErrDayOutOfRange     = errors.New("day index is outside the planned duration")
	ErrSlotOutOfRange    = errors.New("slot index is outside the dosing schedule")
	ErrInvalidDoseStatus = errors.New("dose status must be Given or Missed")
	ErrUnknownReason     = errors.New("reason is not one of the allowed values")
	ErrReasonRequired    = errors.New("a free-text reason is required")
	ErrDoseRequired      = errors.New("new dose must not be empty")
)

// IsPrecondition reports whether err is one of the engine's precondition
// failures, so transport layers can map them to a conflict status.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrCourseNotActive, ErrCourseNotTerminal,
		ErrDayOutOfRange, ErrSlotOutOfRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
