package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ams/ams/internal/domain/patient"
	"github.com/ams/ams/internal/domain/therapy"
	"github.com/ams/ams/internal/platform/auth"
)

type stubRepo struct {
	patients map[uuid.UUID]*patient.Patient
	fail     bool
}

var errBoom = fmt.Errorf("connection refused: %w", patient.ErrStore)

func (s *stubRepo) Create(ctx context.Context, p *patient.Patient) error { return nil }
func (s *stubRepo) Update(ctx context.Context, p *patient.Patient) error { return nil }
func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error       { return nil }

func (s *stubRepo) Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	if s.fail {
		return nil, errBoom
	}
	p, ok := s.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) List(ctx context.Context) ([]*patient.Patient, error) {
	if s.fail {
		return nil, errBoom
	}
	out := make([]*patient.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	return out, nil
}

func newRiskServer(repo patient.Repository) *echo.Echo {
	e := echo.New()
	e.Use(auth.DevMiddleware())
	NewHandler(repo).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetPatientFlagsEndpoint(t *testing.T) {
	now := time.Now()
	c := courseStarting(now.AddDate(0, 0, -20), 7)
	c.RecordDose(1, 0, therapy.DoseMissed, "nurse", "", "Refused", now)
	p := admittedPatient(c)

	repo := &stubRepo{patients: map[uuid.UUID]*patient.Patient{p.ID: p}}
	e := newRiskServer(repo)

	rec := get(e, "/api/v1/patients/"+p.ID.String()+"/flags")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view struct {
		PatientID string      `json:"patient_id"`
		Flags     Flags       `json:"flags"`
		Adherence []Adherence `json:"adherence"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.PatientID != p.ID.String() {
		t.Errorf("unexpected patient id %q", view.PatientID)
	}
	if !view.Flags.MissedDose || !view.Flags.ProlongedTherapy || !view.Flags.Flagged {
		t.Errorf("expected missed-dose and prolonged-therapy flags, got %+v", view.Flags)
	}
	if len(view.Adherence) != 1 {
		t.Errorf("expected one adherence summary, got %d", len(view.Adherence))
	}
}

func TestGetPatientFlagsEndpoint_Errors(t *testing.T) {
	repo := &stubRepo{patients: map[uuid.UUID]*patient.Patient{}}
	e := newRiskServer(repo)

	rec := get(e, "/api/v1/patients/"+uuid.NewString()+"/flags")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = get(e, "/api/v1/patients/not-a-uuid/flags")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	repo.fail = true
	rec = get(e, "/api/v1/patients/"+uuid.NewString()+"/flags")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on store failure, got %d", rec.Code)
	}
	if !errors.Is(errBoom, patient.ErrStore) {
		t.Fatal("test fixture must wrap ErrStore")
	}
}

func TestGetFleetKPIsEndpoint(t *testing.T) {
	now := time.Now()
	flagged := admittedPatient(courseStarting(now.AddDate(0, 0, -20), 7))
	clean := admittedPatient(courseStarting(now.AddDate(0, 0, -1), 7))

	repo := &stubRepo{patients: map[uuid.UUID]*patient.Patient{
		flagged.ID: flagged,
		clean.ID:   clean,
	}}
	e := newRiskServer(repo)

	rec := get(e, "/api/v1/dashboard/kpis")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var k KPIs
	if err := json.Unmarshal(rec.Body.Bytes(), &k); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if k.ActiveCount != 2 {
		t.Errorf("expected 2 admitted, got %d", k.ActiveCount)
	}
	if k.FlaggedCount != 1 {
		t.Errorf("expected 1 flagged, got %d", k.FlaggedCount)
	}

	repo.fail = true
	rec = get(e, "/api/v1/dashboard/kpis")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on store failure, got %d", rec.Code)
	}
}
