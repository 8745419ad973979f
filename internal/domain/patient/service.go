package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ams/ams/internal/domain/therapy"
)

// ErrCourseNotFound is returned when a patient has no course with the
// requested id.
var ErrCourseNotFound = errors.New("course not found")

// Notifier is told after every successful mutation so live viewers can be
// pushed the new canonical state. Implementations must not block.
type Notifier interface {
	PatientsChanged(ctx context.Context)
}

// Service orchestrates engine mutations: load the patient document, apply
// the in-memory change, write the whole document back, notify watchers.
// Precondition and validation failures are rejected before the store is
// touched, so a failed call never leaves partial state.
type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) notify(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.PatientsChanged(ctx)
	}
}

var validAdmissionStatuses = map[AdmissionStatus]bool{
	StatusAdmitted: true, StatusDischarged: true, StatusExpired: true,
}

// Create validates and stores a new patient. Ward and bed are required at
// intake; the admission status defaults to Admitted.
func (s *Service) Create(ctx context.Context, p *Patient, actor string) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Ward == "" {
		return fmt.Errorf("ward is required")
	}
	if p.Bed == "" {
		return fmt.Errorf("bed is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.AdmissionStatus == "" {
		p.AdmissionStatus = StatusAdmitted
	}
	if !validAdmissionStatuses[p.AdmissionStatus] {
		return fmt.Errorf("invalid admission status: %s", p.AdmissionStatus)
	}
	p.CreatedAt = time.Now()
	p.UpdatedBy = actor
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// UpdateDetails overwrites the patient's demographic and clinical fields
// while preserving the stored course list and creation metadata.
func (s *Service) UpdateDetails(ctx context.Context, in *Patient, actor string) (*Patient, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	stored, err := s.repo.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	stored.Name = in.Name
	stored.HospitalNumber = in.HospitalNumber
	stored.Ward = in.Ward
	stored.Bed = in.Bed
	stored.Age = in.Age
	stored.Sex = in.Sex
	stored.Creatinine = in.Creatinine
	stored.CreatinineUnit = in.CreatinineUnit
	stored.HeightCM = in.HeightCM
	stored.Diagnosis = in.Diagnosis
	stored.OnDialysis = in.OnDialysis
	stored.UpdatedBy = actor
	if err := s.repo.Update(ctx, stored); err != nil {
		return nil, err
	}
	s.notify(ctx)
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// SetAdmissionStatus marks a patient Discharged or Expired (or re-admits).
func (s *Service) SetAdmissionStatus(ctx context.Context, id uuid.UUID, status AdmissionStatus, actor string) (*Patient, error) {
	if !validAdmissionStatuses[status] {
		return nil, fmt.Errorf("invalid admission status: %s", status)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.AdmissionStatus = status
	p.UpdatedBy = actor
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.notify(ctx)
	return p, nil
}

// AddCourse appends a course supplied by the approval workflow. The course
// starts Active; the dosing interval is derived from the frequency
// descriptor when not given explicitly.
func (s *Service) AddCourse(ctx context.Context, patientID uuid.UUID, c *therapy.Course, actor string) (*Patient, error) {
	if c.Drug == "" {
		return nil, fmt.Errorf("drug is required")
	}
	if c.Dose == "" {
		return nil, fmt.Errorf("dose is required")
	}
	if _, err := therapy.ParseDate(c.StartDate); err != nil {
		return nil, fmt.Errorf("start_date must be a calendar date (YYYY-MM-DD)")
	}
	if c.PlannedDays() <= 0 {
		return nil, fmt.Errorf("planned_duration must be a positive number of days")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.FrequencyHours == 0 {
		c.FrequencyHours = therapy.ParseFrequencyHours(c.Frequency)
	}
	c.Status = therapy.StatusActive

	p, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	p.Antimicrobials = append(p.Antimicrobials, c)
	p.UpdatedBy = actor
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.notify(ctx)
	return p, nil
}

// mutateCourse runs one engine operation against an embedded course and, if
// it succeeds, writes the whole patient document back. The full
// antimicrobials array is always submitted; the store does not deep-merge.
func (s *Service) mutateCourse(ctx context.Context, patientID, courseID uuid.UUID, actor string, op func(*therapy.Course) error) (*Patient, error) {
	p, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	c := p.Course(courseID)
	if c == nil {
		return nil, ErrCourseNotFound
	}
	if err := op(c); err != nil {
		return nil, err
	}
	p.UpdatedBy = actor
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.notify(ctx)
	return p, nil
}

// RecordDose logs one dose slot. When scheduledTime is empty the slot's
// default scheduled time is copied into the entry.
func (s *Service) RecordDose(ctx context.Context, patientID, courseID uuid.UUID, dayIndex, slot int, status therapy.DoseStatus, scheduledTime, reason, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		if scheduledTime == "" {
			scheduledTime = c.ScheduledTime(slot)
		}
		return c.RecordDose(dayIndex, slot, status, actor, scheduledTime, reason, time.Now())
	})
}

func (s *Service) ClearDose(ctx context.Context, patientID, courseID uuid.UUID, dayIndex, slot int, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.ClearDose(dayIndex, slot)
	})
}

func (s *Service) SetScheduledTime(ctx context.Context, patientID, courseID uuid.UUID, slot int, t, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.SetScheduledTime(slot, t)
	})
}

func (s *Service) CompleteCourse(ctx context.Context, patientID, courseID uuid.UUID, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.Complete(actor, time.Now())
	})
}

func (s *Service) StopCourse(ctx context.Context, patientID, courseID uuid.UUID, reason, detail, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.Stop(reason, detail, actor, time.Now())
	})
}

func (s *Service) ShiftCourse(ctx context.Context, patientID, courseID uuid.UUID, reason, detail, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.Shift(reason, detail, actor, time.Now())
	})
}

func (s *Service) UndoCourseAction(ctx context.Context, patientID, courseID uuid.UUID, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.Undo()
	})
}

func (s *Service) AdjustDose(ctx context.Context, patientID, courseID uuid.UUID, newDose, reason, actor string) (*Patient, error) {
	return s.mutateCourse(ctx, patientID, courseID, actor, func(c *therapy.Course) error {
		return c.AdjustDose(newDose, reason, actor, time.Now())
	})
}
