// Package risk derives clinical risk flags and fleet KPIs from the
// canonical patient state. Everything here is computed on read and never
// persisted; the evaluator is pure and safe to re-run on every
// subscription tick.
package risk

import (
	"time"

	"github.com/ams/ams/internal/domain/patient"
	"github.com/ams/ams/internal/domain/therapy"
)

// renalAlertThreshold is the eGFR (mL/min/1.73m²) below which dosing needs
// review.
const renalAlertThreshold = 30

// prolongedTherapyDays is the day of therapy beyond which a course counts
// as prolonged.
const prolongedTherapyDays = 14

// Flags are the per-patient red flags used to triage monitoring attention.
type Flags struct {
	MissedDose       bool `json:"missed_dose"`
	RenalAlert       bool `json:"renal_alert"`
	ProlongedTherapy bool `json:"prolonged_therapy"`
	Flagged          bool `json:"flagged"`
}

// HasMissedDose reports whether any course logged a missed dose.
func HasMissedDose(p *patient.Patient) bool {
	for _, c := range p.Antimicrobials {
		if _, missed := c.DoseCounts(); missed > 0 {
			return true
		}
	}
	return false
}

// HasRenalAlert reports whether the computed eGFR is numeric and below the
// alert threshold.
func HasRenalAlert(p *patient.Patient) bool {
	egfr := p.EGFR()
	return egfr.Valid && egfr.Value < renalAlertThreshold
}

// HasProlongedTherapy reports whether any Active course has run past the
// prolonged-therapy threshold as of today.
func HasProlongedTherapy(p *patient.Patient, today time.Time) bool {
	for _, c := range p.Antimicrobials {
		if c.Status != therapy.StatusActive {
			continue
		}
		start := c.Start()
		if start.IsZero() {
			continue
		}
		if therapy.DayOfTherapy(start, today) > prolongedTherapyDays {
			return true
		}
	}
	return false
}

// Evaluate computes all red flags for one patient.
func Evaluate(p *patient.Patient, today time.Time) Flags {
	f := Flags{
		MissedDose:       HasMissedDose(p),
		RenalAlert:       HasRenalAlert(p),
		ProlongedTherapy: HasProlongedTherapy(p, today),
	}
	f.Flagged = f.MissedDose || f.RenalAlert || f.ProlongedTherapy
	return f
}

// KPIs are the fleet-wide stewardship indicators over admitted patients.
type KPIs struct {
	ActiveCount            int `json:"active_count"`
	FlaggedCount           int `json:"flagged_count"`
	NewCount               int `json:"new_count"`
	NearingCompletionCount int `json:"nearing_completion_count"`
}

// nearingCompletion reports whether any Active course has between zero and
// two planned days remaining.
func nearingCompletion(p *patient.Patient, today time.Time) bool {
	for _, c := range p.Antimicrobials {
		if c.Status != therapy.StatusActive {
			continue
		}
		start := c.Start()
		if start.IsZero() {
			continue
		}
		remaining := c.PlannedDays() - therapy.DayOfTherapy(start, today)
		if remaining >= 0 && remaining <= 2 {
			return true
		}
	}
	return false
}

// Fleet computes the dashboard KPIs over all Admitted patients.
func Fleet(patients []*patient.Patient, now time.Time) KPIs {
	var k KPIs
	for _, p := range patients {
		if p.AdmissionStatus != patient.StatusAdmitted {
			continue
		}
		k.ActiveCount++
		if Evaluate(p, now).Flagged {
			k.FlaggedCount++
		}
		if now.Sub(p.CreatedAt) < 24*time.Hour {
			k.NewCount++
		}
		if nearingCompletion(p, now) {
			k.NearingCompletionCount++
		}
	}
	return k
}

// Adherence summarizes dose completion for one course.
type Adherence struct {
	CourseID     string  `json:"course_id"`
	Drug         string  `json:"drug"`
	Given        int     `json:"given"`
	Missed       int     `json:"missed"`
	TotalPlanned int     `json:"total_planned"`
	Percent      float64 `json:"percent"`
}

// AdherencePercent is given doses over total planned doses as a percentage,
// clamped to [0, 100]. Missed doses are reported separately and never
// subtract from the denominator.
func AdherencePercent(c *therapy.Course) float64 {
	total := therapy.TotalPlannedDoses(c.PlannedDays(), c.DosesPerDay())
	if total <= 0 {
		return 0
	}
	given, _ := c.DoseCounts()
	pct := float64(given) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// CourseAdherence builds the adherence summary for every course of a
// patient.
func CourseAdherence(p *patient.Patient) []Adherence {
	out := make([]Adherence, 0, len(p.Antimicrobials))
	for _, c := range p.Antimicrobials {
		given, missed := c.DoseCounts()
		out = append(out, Adherence{
			CourseID:     c.ID.String(),
			Drug:         c.Drug,
			Given:        given,
			Missed:       missed,
			TotalPlanned: therapy.TotalPlannedDoses(c.PlannedDays(), c.DosesPerDay()),
			Percent:      AdherencePercent(c),
		})
	}
	return out
}
