// Package audit records login and logout outcomes to durable storage and,
// optionally, to a Kafka topic for downstream consumers.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"auth-gateway/internal/audit/domain"
	auditrepo "auth-gateway/internal/audit/repository"
)

type ctxKey int

const ipKey ctxKey = 0

// ContextWithIP stashes the client IP on the context so audit entries written
// deeper in the call stack can record it.
func ContextWithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey, ip)
}

// IPFromContext returns the client IP stored by ContextWithIP, or "unknown".
func IPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// Producer fans audit events out to an external stream. Best-effort.
type Producer interface {
	Emit(ctx context.Context, e *domain.Event) error
}

// Logger persists audit events and optionally emits them to a producer.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type Logger struct {
	repo     auditrepo.Repository
	producer Producer
}

// NewLogger returns a Logger writing to repo. producer may be nil.
func NewLogger(repo auditrepo.Repository, producer Producer) *Logger {
	return &Logger{repo: repo, producer: producer}
}

// LogEvent writes one audit entry. Errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, personID, action, outcome, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	e := &domain.Event{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		PersonID:  personID,
		Action:    action,
		Outcome:   outcome,
		IP:        IPFromContext(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, e); err != nil {
		log.Printf("audit: failed to record %s/%s: %v", action, outcome, err)
	}
	if l.producer != nil {
		if err := l.producer.Emit(ctx, e); err != nil {
			log.Printf("audit: failed to emit %s/%s: %v", action, outcome, err)
		}
	}
}
