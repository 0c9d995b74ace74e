package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"auth-gateway/internal/flow/domain"
)

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a flow repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Put stores the pending flow. Returns ErrStateExists when the state token collides.
func (r *PostgresRepository) Put(ctx context.Context, f *domain.PendingFlow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_flow (state, flow, redirected_from, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		f.State, f.Flow, f.RedirectedFrom, f.CreatedAt, f.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrStateExists
		}
		return err
	}
	return nil
}

// Take atomically removes and returns the flow for state. A single conditional
// DELETE ... RETURNING guarantees that two concurrent callbacks bearing the
// same state cannot both succeed, even across process instances. Expired rows
// are filtered by the same statement and left for PurgeExpired.
func (r *PostgresRepository) Take(ctx context.Context, state string) (*domain.PendingFlow, error) {
	var f domain.PendingFlow
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM auth_flow
		 WHERE state = $1 AND expires_at > now()
		 RETURNING state, flow, redirected_from, created_at, expires_at`,
		state,
	).Scan(&f.State, &f.Flow, &f.RedirectedFrom, &f.CreatedAt, &f.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// PurgeExpired deletes flows past their expiry and returns the number removed.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_flow WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
