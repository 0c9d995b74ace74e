package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auth-gateway/internal/person/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a person repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the person for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	return r.get(ctx, `SELECT id, external_id, email, display_name, organization_id, created_at, updated_at
		FROM person WHERE id = $1`, id)
}

// GetByExternalID returns the person for the provider subject id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Person, error) {
	return r.get(ctx, `SELECT id, external_id, email, display_name, organization_id, created_at, updated_at
		FROM person WHERE external_id = $1`, externalID)
}

func (r *PostgresRepository) get(ctx context.Context, query, arg string) (*domain.Person, error) {
	var p domain.Person
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&p.ID, &p.ExternalID, &email, &p.DisplayName, &p.OrganizationID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if email.Valid {
		p.Email = email.String
	}
	return &p, nil
}

// Upsert reconciles p in a single transaction:
//
//  1. any other row holding p's email has the address cleared, since the
//     provider just proved this subject owns it;
//  2. the row keyed by p's external id is inserted or updated in place.
//
// Conflicting first logins racing on the same external id serialize on the
// unique index, so both arrive at one row.
func (r *PostgresRepository) Upsert(ctx context.Context, p *domain.Person) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`UPDATE person SET email = NULL, updated_at = now()
		 WHERE email = $1 AND external_id <> $2`,
		p.Email, p.ExternalID,
	)
	if err != nil {
		return "", fmt.Errorf("reclaim email: %w", err)
	}

	var id string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO person (id, external_id, email, display_name, organization_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (external_id) DO UPDATE
		 SET email = EXCLUDED.email,
		     display_name = EXCLUDED.display_name,
		     organization_id = EXCLUDED.organization_id,
		     updated_at = now()
		 RETURNING id`,
		p.ID, p.ExternalID, p.Email, p.DisplayName, p.OrganizationID, p.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert person: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}
