// Package patient owns the Patient aggregate: the unit of storage and of
// concurrency for the stewardship engine. Whole documents are written on
// every mutation; the store performs no field-level merge.
package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/ams/ams/internal/domain/renal"
	"github.com/ams/ams/internal/domain/therapy"
)

// AdmissionStatus is the closed set of admission states.
type AdmissionStatus string

const (
	StatusAdmitted   AdmissionStatus = "Admitted"
	StatusDischarged AdmissionStatus = "Discharged"
	StatusExpired    AdmissionStatus = "Expired"
)

// pediatricAgeCutoff selects the height-based bedside eGFR formula.
const pediatricAgeCutoff = 18

// Patient is the aggregate root. Courses are embedded as an array, not a
// sub-collection; callers always submit the full, already-mutated
// antimicrobials slice on update.
type Patient struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	HospitalNumber string    `json:"hospital_number,omitempty"`
	Ward           string    `json:"ward"`
	Bed            string    `json:"bed"`

	Age            *int     `json:"age,omitempty"`
	Sex            string   `json:"sex,omitempty"`
	Creatinine     string   `json:"serum_creatinine,omitempty"`
	CreatinineUnit string   `json:"creatinine_unit,omitempty"`
	HeightCM       *float64 `json:"height_cm,omitempty"`
	Diagnosis      string   `json:"diagnosis,omitempty"`
	OnDialysis     bool     `json:"on_dialysis,omitempty"`

	AdmissionStatus AdmissionStatus `json:"admission_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedBy       string          `json:"updated_by,omitempty"`

	Antimicrobials []*therapy.Course `json:"antimicrobials"`
}

// Course returns the embedded course with the given id, or nil.
func (p *Patient) Course(id uuid.UUID) *therapy.Course {
	for _, c := range p.Antimicrobials {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// EGFR recomputes the estimated GFR from the patient's current fields.
// Pediatric patients use the height-based bedside formula, everyone else
// the adult CKD-EPI 2021 equation.
func (p *Patient) EGFR() renal.Result {
	if p.Age != nil && *p.Age < pediatricAgeCutoff {
		return renal.Pediatric(p.HeightCM, p.Creatinine, p.CreatinineUnit)
	}
	return renal.Adult(p.Age, p.Sex, p.Creatinine, p.CreatinineUnit)
}

// DisplayDays is the chart width in day columns for this patient's courses.
func (p *Patient) DisplayDays() int {
	return therapy.DisplayDays(p.Antimicrobials)
}
