package repository

import (
	"context"

	"auth-gateway/internal/session/domain"
)

// Repository defines persistence for sessions. There is deliberately no way
// to read a credential back; rows are looked up by prefix and verified
// against the stored hash.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetByCredentialPrefix returns all sessions sharing the lookup prefix.
	// Prefix collisions are possible, so callers verify each candidate's hash.
	GetByCredentialPrefix(ctx context.Context, prefix string) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
