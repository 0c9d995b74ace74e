package repository

import (
	"context"
	"database/sql"
	"errors"

	"auth-gateway/internal/organization/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	var o domain.Org
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_ref, name, created_at FROM organization WHERE id = $1`, id,
	).Scan(&o.ID, &o.ExternalRef, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// GetByExternalRef returns the organization for the provider tenant id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByExternalRef(ctx context.Context, externalRef string) (*domain.Org, error) {
	var o domain.Org
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_ref, name, created_at FROM organization WHERE external_ref = $1`, externalRef,
	).Scan(&o.ID, &o.ExternalRef, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the organization. The organization must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organization (id, external_ref, name, created_at) VALUES ($1, $2, $3, $4)`,
		o.ID, o.ExternalRef, o.Name, o.CreatedAt,
	)
	return err
}
