package patient

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ams/ams/internal/domain/therapy"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestEGFR_FormulaSelection(t *testing.T) {
	// Adults get the CKD-EPI equation; under-18s the height-based bedside
	// formula. The pediatric result for height 120 / scr 0.5 is exactly
	// 0.413*120/0.5 = 99.12.
	child := &Patient{
		Age:            intPtr(10),
		Sex:            "Female",
		HeightCM:       floatPtr(120),
		Creatinine:     "0.5",
		CreatinineUnit: "mg/dL",
	}
	got := child.EGFR()
	if !got.Valid || got.Display != "99.1 mL/min/1.73m²" {
		t.Errorf("expected pediatric formula result, got %q", got.Display)
	}

	// The same fields on an adult ignore height entirely.
	adult := &Patient{
		Age:            intPtr(40),
		Sex:            "Female",
		HeightCM:       floatPtr(120),
		Creatinine:     "0.5",
		CreatinineUnit: "mg/dL",
	}
	if adult.EGFR().Display == got.Display {
		t.Error("expected adult equation to differ from pediatric result")
	}

	// At the cutoff the adult equation applies.
	cusp := &Patient{Age: intPtr(18), Sex: "Male", Creatinine: "1.0", CreatinineUnit: "mg/dL"}
	if !cusp.EGFR().Valid {
		t.Error("expected valid adult result at age 18")
	}

	// A child without a height gets the missing sentinel, not an error.
	noHeight := &Patient{Age: intPtr(10), Creatinine: "0.5", CreatinineUnit: "mg/dL"}
	if r := noHeight.EGFR(); r.Valid || r.Display != "—" {
		t.Errorf("expected missing sentinel, got %q", r.Display)
	}
}

func TestCourseLookup(t *testing.T) {
	c1 := &therapy.Course{ID: uuid.New(), Drug: "A"}
	c2 := &therapy.Course{ID: uuid.New(), Drug: "B"}
	p := &Patient{Antimicrobials: []*therapy.Course{c1, c2}}

	if got := p.Course(c2.ID); got != c2 {
		t.Errorf("expected course B, got %v", got)
	}
	if got := p.Course(uuid.New()); got != nil {
		t.Errorf("expected nil for unknown id, got %v", got)
	}
}

func TestPatientDisplayDays(t *testing.T) {
	p := &Patient{Antimicrobials: []*therapy.Course{{PlannedDuration: "10"}}}
	if got := p.DisplayDays(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	empty := &Patient{}
	if got := empty.DisplayDays(); got != 7 {
		t.Errorf("expected floor of 7, got %d", got)
	}
}
