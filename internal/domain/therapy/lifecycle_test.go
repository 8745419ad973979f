package therapy

import (
	"reflect"
	"testing"
	"time"
)

func TestComplete(t *testing.T) {
	c := activeCourse()
	now := time.Now()

	if err := c.Complete("dr.ahmed", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != StatusCompleted {
		t.Errorf("expected Completed, got %s", c.Status)
	}
	if c.CompletedAt == nil || !c.CompletedAt.Equal(now) {
		t.Error("expected CompletedAt set")
	}
	if c.ActionBy != "dr.ahmed" {
		t.Errorf("expected actor recorded, got %q", c.ActionBy)
	}

	if err := c.Complete("dr.ahmed", now); err != ErrCourseNotActive {
		t.Errorf("expected ErrCourseNotActive on second complete, got %v", err)
	}
}

func TestStop(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		reason     string
		detail     string
		wantErr    error
		wantStored string
	}{
		{"listed reason", "De-escalation", "", nil, "De-escalation"},
		{"other with detail", "Other", "Switched per micro advice", nil, "Other: Switched per micro advice"},
		{"other without detail", "Other", "", ErrReasonRequired, ""},
		{"unknown reason", "Felt like it", "", ErrUnknownReason, ""},
		{"detail ignored for listed reason", "No Infection", "extra", nil, "No Infection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := activeCourse()
			err := c.Stop(tt.reason, tt.detail, "dr.ahmed", now)
			if err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				if c.Status != StatusActive {
					t.Error("expected course untouched on rejected stop")
				}
				return
			}
			if c.Status != StatusStopped {
				t.Errorf("expected Stopped, got %s", c.Status)
			}
			if c.StopReason != tt.wantStored {
				t.Errorf("expected stored reason %q, got %q", tt.wantStored, c.StopReason)
			}
			if c.StopDate == nil {
				t.Error("expected StopDate set")
			}
		})
	}
}

func TestStop_NotActive(t *testing.T) {
	c := activeCourse()
	c.Status = StatusCompleted
	if err := c.Stop("De-escalation", "", "dr", time.Now()); err != ErrCourseNotActive {
		t.Errorf("expected ErrCourseNotActive, got %v", err)
	}
}

func TestShift(t *testing.T) {
	c := activeCourse()
	now := time.Now()

	if err := c.Shift("IV to PO Switch", "", "pharm.lee", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != StatusShifted {
		t.Errorf("expected Shifted, got %s", c.Status)
	}
	if c.ShiftReason != "IV to PO Switch" {
		t.Errorf("unexpected shift reason %q", c.ShiftReason)
	}
	if c.ShiftedAt == nil {
		t.Error("expected ShiftedAt set")
	}

	c2 := activeCourse()
	if err := c2.Shift("Palliative Care", "", "pharm.lee", now); err != ErrUnknownReason {
		t.Errorf("stop-only reason must not be accepted for shift, got %v", err)
	}
}

func TestUndo_RestoresActiveAndClearsMetadata(t *testing.T) {
	now := time.Now()
	terminalize := map[string]func(*Course) error{
		"after complete": func(c *Course) error { return c.Complete("dr", now) },
		"after stop":     func(c *Course) error { return c.Stop("Other", "trial end", "dr", now) },
		"after shift":    func(c *Course) error { return c.Shift("Escalation", "", "dr", now) },
	}
	for name, makeTerminal := range terminalize {
		t.Run(name, func(t *testing.T) {
			c := activeCourse()
			c.RecordDose(1, 0, DoseGiven, "nurse", "08:00", "", now)
			c.RecordDose(2, 1, DoseMissed, "nurse", "16:00", "Refused", now)
			c.AdjustDose("2g", "Renal recovery", "dr", now)

			logBefore := make(map[string][]*AdministrationEntry, len(c.AdministrationLog))
			for k, v := range c.AdministrationLog {
				logBefore[k] = append([]*AdministrationEntry(nil), v...)
			}
			historyBefore := append([]ChangeHistoryEntry(nil), c.ChangeHistory...)

			if err := makeTerminal(c); err != nil {
				t.Fatalf("terminal transition: %v", err)
			}
			if err := c.Undo(); err != nil {
				t.Fatalf("undo: %v", err)
			}

			if c.Status != StatusActive {
				t.Errorf("expected Active after undo, got %s", c.Status)
			}
			if c.CompletedAt != nil || c.StopDate != nil || c.ShiftedAt != nil {
				t.Error("expected all terminal timestamps cleared")
			}
			if c.StopReason != "" || c.ShiftReason != "" || c.ActionBy != "" {
				t.Error("expected all terminal reasons and actor cleared")
			}
			if !reflect.DeepEqual(c.AdministrationLog, logBefore) {
				t.Error("expected administration log untouched by undo")
			}
			if !reflect.DeepEqual(c.ChangeHistory, historyBefore) {
				t.Error("expected change history untouched by undo")
			}
		})
	}
}

func TestUndo_ActiveCourseRejected(t *testing.T) {
	c := activeCourse()
	if err := c.Undo(); err != ErrCourseNotTerminal {
		t.Errorf("expected ErrCourseNotTerminal, got %v", err)
	}
}

func TestAdjustDose(t *testing.T) {
	c := activeCourse()
	now := time.Now()

	if err := c.AdjustDose("500mg", "Renal Adjustment", "pharm.lee", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Dose != "500mg" {
		t.Errorf("expected dose updated, got %q", c.Dose)
	}
	if len(c.ChangeHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(c.ChangeHistory))
	}
	entry := c.ChangeHistory[0]
	if entry.Type != ChangeTypeDose {
		t.Errorf("expected type %q, got %q", ChangeTypeDose, entry.Type)
	}
	if entry.OldValue != "1g" || entry.NewValue != "500mg" {
		t.Errorf("expected 1g -> 500mg, got %q -> %q", entry.OldValue, entry.NewValue)
	}
	if entry.User != "pharm.lee" {
		t.Errorf("expected actor recorded, got %q", entry.User)
	}

	if err := c.AdjustDose("", "r", "a", now); err != ErrDoseRequired {
		t.Errorf("expected ErrDoseRequired, got %v", err)
	}

	// Adjustments stack in order.
	c.AdjustDose("1g", "Escalation", "dr", now)
	if len(c.ChangeHistory) != 2 {
		t.Fatalf("expected two history entries, got %d", len(c.ChangeHistory))
	}
	if c.ChangeHistory[1].OldValue != "500mg" {
		t.Errorf("expected second entry to chain from 500mg, got %q", c.ChangeHistory[1].OldValue)
	}
}
