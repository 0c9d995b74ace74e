package repository

import (
	"context"

	"auth-gateway/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*domain.Org, error)
	Create(ctx context.Context, o *domain.Org) error
}
