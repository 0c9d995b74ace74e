package repository

import (
	"context"
	"database/sql"

	"auth-gateway/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (id, credential_prefix, credential_hash, person_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.CredentialPrefix, s.CredentialHash, s.PersonID, s.CreatedAt,
	)
	return err
}

// GetByCredentialPrefix returns all sessions with the given lookup prefix.
func (r *PostgresRepository) GetByCredentialPrefix(ctx context.Context, prefix string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, credential_prefix, credential_hash, person_id, created_at
		 FROM session WHERE credential_prefix = $1`, prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.CredentialPrefix, &s.CredentialHash, &s.PersonID, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Delete removes the session by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id)
	return err
}
