package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auth-gateway/internal/audit/domain"
)

type chanProducer struct {
	ch chan *domain.Event
}

func (p *chanProducer) Emit(_ context.Context, e *domain.Event) error {
	p.ch <- e
	return nil
}

func TestMultiProducer(t *testing.T) {
	a := &memProducer{}
	b := &memProducer{err: errors.New("broker down")}
	c := &memProducer{}

	m := MultiProducer(a, nil, b, c)
	err := m.Emit(context.Background(), &domain.Event{ID: "e1"})
	if err == nil {
		t.Fatal("expected the failing producer's error")
	}
	if len(a.emitted) != 1 || len(c.emitted) != 1 {
		t.Fatal("healthy producers must still receive the event")
	}

	if MultiProducer(nil, nil) != nil {
		t.Fatal("all-nil fan-out should collapse to nil")
	}
}

func TestAsyncProducer(t *testing.T) {
	p := &chanProducer{ch: make(chan *domain.Event, 1)}
	async := NewAsyncProducer(p)

	if err := async.Emit(context.Background(), &domain.Event{ID: "e1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case e := <-p.ch:
		if e.ID != "e1" {
			t.Fatalf("got event %q", e.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("async emit never reached the producer")
	}

	if NewAsyncProducer(nil) != nil {
		t.Fatal("nil producer should stay nil")
	}
}

func TestAsyncProducerDoesNotBlockCaller(t *testing.T) {
	var mu sync.Mutex
	mu.Lock()
	blocked := blockingProducer{mu: &mu}
	async := NewAsyncProducer(blocked)

	done := make(chan struct{})
	go func() {
		_ = async.Emit(context.Background(), &domain.Event{ID: "e1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked the caller")
	}
	mu.Unlock()
}

type blockingProducer struct {
	mu *sync.Mutex
}

func (p blockingProducer) Emit(context.Context, *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return nil
}
