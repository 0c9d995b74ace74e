package otel

import (
	"context"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"auth-gateway/internal/audit/domain"
)

// AuditEmitter sends audit events as OTel log records. It satisfies the audit
// producer contract and is typically fanned out next to the Kafka producer.
type AuditEmitter struct {
	logger otellog.Logger
}

// NewAuditEmitter returns an emitter backed by provider, or nil when provider
// is nil so callers can wire it unconditionally.
func NewAuditEmitter(provider *sdklog.LoggerProvider) *AuditEmitter {
	if provider == nil {
		return nil
	}
	return &AuditEmitter{logger: provider.Logger("authgateway.audit")}
}

// Emit converts the event to a log record and emits it. Best-effort.
func (e *AuditEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if e == nil || event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	}
	rec.SetBody(otellog.StringValue(event.Action + " " + event.Outcome))
	rec.AddAttributes(
		otellog.String("audit.id", event.ID),
		otellog.String("audit.action", event.Action),
		otellog.String("audit.outcome", event.Outcome),
	)
	if event.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", event.OrgID))
	}
	if event.PersonID != "" {
		rec.AddAttributes(otellog.String("person_id", event.PersonID))
	}
	if event.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", event.IP))
	}
	if event.Metadata != "" {
		rec.AddAttributes(otellog.String("metadata", event.Metadata))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
