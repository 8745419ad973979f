package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// repoPG stores each patient as one JSONB document plus scalar columns for
// ordering and filtering. The doc column is rewritten wholesale on every
// update, matching the engine's whole-document overwrite model.
type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO patient (id, admission_status, created_at, doc)
		VALUES ($1, $2, $3, $4)`,
		p.ID, string(p.AdmissionStatus), p.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("insert patient: %w: %w", ErrStore, err)
	}
	return nil
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM patient WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query patient: %w: %w", ErrStore, err)
	}
	var p Patient
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET admission_status = $2, doc = $3, updated_at = NOW()
		WHERE id = $1`,
		p.ID, string(p.AdmissionStatus), doc)
	if err != nil {
		return fmt.Errorf("update patient: %w: %w", ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w: %w", ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM patient ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w: %w", ErrStore, err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan patient: %w: %w", ErrStore, err)
		}
		var p Patient
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode patient: %w", err)
		}
		patients = append(patients, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w: %w", ErrStore, err)
	}
	return patients, nil
}
