package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no patient document exists for an id.
	ErrNotFound = errors.New("patient not found")
	// ErrStore wraps any store failure (network, permission). Local state
	// is left exactly as the store last reported it; callers re-attempt
	// manually, there is no automatic retry.
	ErrStore = errors.New("patient store failure")
)

// Repository is the patient document store. Update overwrites the whole
// document; there is no field-level merge, so concurrent writers to the
// same patient race at document granularity (last write wins).
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns all patients ordered by creation time, newest first.
	List(ctx context.Context) ([]*Patient, error)
}
