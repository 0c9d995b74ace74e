package repository

import (
	"context"

	"auth-gateway/internal/audit/domain"
)

// Repository defines persistence for audit events.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.Event, error)
}
