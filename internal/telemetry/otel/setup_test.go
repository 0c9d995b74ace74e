package otel

import (
	"context"
	"testing"
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"auth-gateway/internal/audit/domain"
)

func TestNewProvidersEmptyEndpoint(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "auth-gateway", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
		t.Fatal("empty endpoint must still yield usable providers")
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
}

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		in       string
		target   string
		insecure bool
		wantErr  bool
	}{
		{"localhost:4317", "localhost:4317", true, false},
		{"http://collector:4317", "collector:4317", true, false},
		{"https://collector:4317", "collector:4317", false, false},
		{"https://collector:4317/v1/traces", "collector:4317", false, false},
		{"http://", "", false, true},
		{"http://[bad", "", false, true},
	}
	for _, tc := range cases {
		target, insecure, err := parseEndpoint(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseEndpoint(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseEndpoint(%q): %v", tc.in, err)
			continue
		}
		if target != tc.target || insecure != tc.insecure {
			t.Errorf("parseEndpoint(%q) = (%q, %v), want (%q, %v)", tc.in, target, insecure, tc.target, tc.insecure)
		}
	}
}

func TestAuditEmitter(t *testing.T) {
	// An SDK provider with no processor swallows records; this exercises the
	// conversion path without a collector.
	provider := sdklog.NewLoggerProvider()
	emitter := NewAuditEmitter(provider)

	err := emitter.Emit(context.Background(), &domain.Event{
		ID:        "e1",
		OrgID:     "org-1",
		PersonID:  "person-1",
		Action:    "login",
		Outcome:   "success",
		IP:        "203.0.113.9",
		Metadata:  `{"k":"v"}`,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := emitter.Emit(context.Background(), nil); err != nil {
		t.Fatalf("nil event: %v", err)
	}

	if NewAuditEmitter(nil) != nil {
		t.Fatal("nil provider should yield nil emitter")
	}
}
