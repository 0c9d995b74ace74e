package audit

import (
	"context"
	"log"
	"time"

	"auth-gateway/internal/audit/domain"
)

// emitTimeout is the max time allowed for a single async emit. Also bounds how
// long shutdown should drain in-flight emits.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server stops before
// shutting down exporters, so in-flight async emits have time to complete.
const ShutdownDrainDuration = emitTimeout

// MultiProducer fans one event out to several producers. Nil producers are
// skipped; the first error is returned after all producers ran.
func MultiProducer(producers ...Producer) Producer {
	var active []Producer
	for _, p := range producers {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return multiProducer(active)
}

type multiProducer []Producer

func (m multiProducer) Emit(ctx context.Context, e *domain.Event) error {
	var firstErr error
	for _, p := range m {
		if err := p.Emit(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewAsyncProducer wraps p so Emit returns immediately and the write happens
// in a goroutine with its own timeout. Request cancellation does not abort an
// in-flight emit; errors are logged. Returns nil when p is nil.
func NewAsyncProducer(p Producer) Producer {
	if p == nil {
		return nil
	}
	return &asyncProducer{next: p}
}

type asyncProducer struct {
	next Producer
}

func (a *asyncProducer) Emit(_ context.Context, e *domain.Event) error {
	if e == nil {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := a.next.Emit(ctx, e); err != nil {
			log.Printf("audit: async emit failed: %v", err)
		}
	}()
	return nil
}
