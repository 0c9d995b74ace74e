package repository

import (
	"context"
	"database/sql"

	"auth-gateway/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit event. The event must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	orgID := sql.NullString{String: e.OrgID, Valid: e.OrgID != ""}
	personID := sql.NullString{String: e.PersonID, Valid: e.PersonID != ""}
	metadata := e.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, org_id, person_id, action, outcome, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, orgID, personID, e.Action, e.Outcome, e.IP, metadata, e.CreatedAt,
	)
	return err
}

// ListByOrg returns audit events for the given org, newest first, paginated by
// limit and offset.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, person_id, action, outcome, ip, metadata, created_at
		 FROM audit_log WHERE org_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var (
			e        domain.Event
			personID sql.NullString
			metadata sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OrgID, &personID, &e.Action, &e.Outcome, &e.IP, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PersonID = personID.String
		e.Metadata = metadata.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
