package repository

import (
	"context"

	"auth-gateway/internal/person/domain"
)

// Repository defines persistence for people.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Person, error)
	// Upsert reconciles p against existing rows in one transaction, keyed on
	// external id. The external id is authoritative: a different row holding
	// p's email has its email cleared so the address follows its proven owner.
	// Returns the id of the created or updated row.
	Upsert(ctx context.Context, p *domain.Person) (string, error)
}
