// Package renal estimates glomerular filtration rate for dosing alerts.
// Estimates are display values only: they are recomputed from the source
// fields on every read and never persisted. Malformed or missing inputs
// resolve to a sentinel display, never an error.
package renal

import (
	"math"
	"strconv"
	"strings"
)

// CreatininePending is the sentinel a lab result carries while the sample
// is still being processed.
const CreatininePending = "Pending"

// Creatinine units accepted on patient records.
const (
	UnitMicromolPerL = "umol/L"
	UnitMgPerDL      = "mg/dL"
)

// micromolPerMgDL converts serum creatinine from µmol/L to mg/dL.
const micromolPerMgDL = 88.4

// Result is a computed eGFR. When Valid is false the Display sentinel says
// why ("Pending" for an outstanding lab, "—" for missing inputs).
type Result struct {
	Value   float64 `json:"value,omitempty"`
	Valid   bool    `json:"valid"`
	Display string  `json:"display"`
}

const (
	displayMissing = "—"
	unitSuffix     = " mL/min/1.73m²"
)

func invalid(display string) Result {
	return Result{Display: display}
}

func valid(v float64) Result {
	return Result{
		Value:   v,
		Valid:   true,
		Display: strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64) + unitSuffix,
	}
}

// CreatinineMgDL parses a free-text serum creatinine value and normalizes
// it to mg/dL. ok is false for the Pending sentinel, empty text, or
// non-numeric input.
func CreatinineMgDL(text, unit string) (scr float64, pending, ok bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, false, false
	}
	if strings.EqualFold(t, CreatininePending) {
		return 0, true, false
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil || v <= 0 {
		return 0, false, false
	}
	if unit != UnitMgPerDL {
		v /= micromolPerMgDL
	}
	return v, false, true
}

// Adult computes eGFR with the race-free CKD-EPI 2021 creatinine equation.
// age in years; sex "Male" or "Female"; creatinine as free text in the
// given unit (µmol/L when unit is empty).
func Adult(age *int, sex, creatinine, unit string) Result {
	scr, pending, ok := CreatinineMgDL(creatinine, unit)
	if pending {
		return invalid(CreatininePending)
	}
	if !ok || age == nil || *age <= 0 {
		return invalid(displayMissing)
	}
	female := strings.EqualFold(sex, "Female")
	male := strings.EqualFold(sex, "Male")
	if !female && !male {
		return invalid(displayMissing)
	}

	k, alpha, sexFactor := 0.9, -0.302, 1.0
	if female {
		k, alpha, sexFactor = 0.7, -0.241, 1.012
	}
	ratio := scr / k
	egfr := 142 *
		math.Pow(math.Min(ratio, 1), alpha) *
		math.Pow(math.Max(ratio, 1), -1.2) *
		math.Pow(0.9938, float64(*age)) *
		sexFactor
	return valid(egfr)
}

// Pediatric computes eGFR with the height-based bedside formula
// 0.413 * height / creatinine.
func Pediatric(heightCM *float64, creatinine, unit string) Result {
	scr, pending, ok := CreatinineMgDL(creatinine, unit)
	if pending {
		return invalid(CreatininePending)
	}
	if !ok || heightCM == nil || *heightCM <= 0 {
		return invalid(displayMissing)
	}
	return valid(0.413 * *heightCM / scr)
}
