package repository

import (
	"context"
	"sync"
	"time"

	"auth-gateway/internal/flow/domain"
)

// MemoryRepository is an in-memory flow store for tests and single-process
// development runs. It provides the same single-use Take semantics as the
// durable backends but is not crash-safe and does not span instances.
type MemoryRepository struct {
	mu   sync.Mutex
	m    map[string]*domain.PendingFlow
	nowF func() time.Time
}

// NewMemoryRepository returns an empty in-memory flow store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		m:    make(map[string]*domain.PendingFlow),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores the pending flow. Returns ErrStateExists on a duplicate state token.
func (r *MemoryRepository) Put(ctx context.Context, f *domain.PendingFlow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[f.State]; ok {
		return ErrStateExists
	}
	cp := *f
	r.m[f.State] = &cp
	return nil
}

// Take removes and returns the flow for state under the store lock. Expired
// flows are dropped and reported as absent.
func (r *MemoryRepository) Take(ctx context.Context, state string) (*domain.PendingFlow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.m[state]
	if !ok {
		return nil, nil
	}
	delete(r.m, state)
	if f.Expired(r.nowF()) {
		return nil, nil
	}
	return f, nil
}

// PurgeExpired removes expired flows and returns how many were deleted.
func (r *MemoryRepository) PurgeExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowF()
	var n int64
	for state, f := range r.m {
		if f.Expired(now) {
			delete(r.m, state)
			n++
		}
	}
	return n, nil
}
