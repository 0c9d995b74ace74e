package repository

import (
	"context"
	"errors"

	"auth-gateway/internal/flow/domain"
)

// ErrStateExists is returned by Put when the state token is already present.
// State tokens carry enough entropy that this indicates a caller bug, not a
// race to tolerate.
var ErrStateExists = errors.New("flow state already exists")

// Repository defines persistence for pending auth flows.
//
// Take must be atomic: for a given state token, at most one caller observes
// the flow; every other caller gets nil. This is the single concurrency
// invariant the login state machine depends on, and it must hold across
// process instances, so it is enforced by the backing store rather than by
// in-process locking.
type Repository interface {
	// Put stores the pending flow. Returns ErrStateExists if the state token
	// is already present.
	Put(ctx context.Context, f *domain.PendingFlow) error
	// Take atomically removes and returns the flow for state. Returns nil
	// (with no error) if the state is unknown, already consumed, or expired.
	Take(ctx context.Context, state string) (*domain.PendingFlow, error)
	// PurgeExpired removes flows past their expiry and returns how many were
	// deleted. Backends with native TTL may make this a no-op.
	PurgeExpired(ctx context.Context) (int64, error)
}
