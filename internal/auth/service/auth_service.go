package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	flowdomain "auth-gateway/internal/flow/domain"
	personsvc "auth-gateway/internal/person/service"
	"auth-gateway/internal/provider"
	sessionsvc "auth-gateway/internal/session/service"
)

// Sentinel errors for the auth service; the HTTP handler maps them to statuses.
var (
	// ErrInvalidOrExpiredFlow covers an unknown state token, an expired flow,
	// and a flow that was already consumed. The three are deliberately
	// indistinguishable to callers.
	ErrInvalidOrExpiredFlow = errors.New("unknown, expired, or already used login flow")
)

// FlowStore is the slice of the flow repository the auth service needs.
type FlowStore interface {
	Put(ctx context.Context, f *flowdomain.PendingFlow) error
	Take(ctx context.Context, state string) (*flowdomain.PendingFlow, error)
}

// Resolver maps verified provider claims to a local person and organization.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, claims *provider.Claims) (*personsvc.Resolution, error)
}

// Issuer mints a session for a resolved person.
type Issuer interface {
	Issue(ctx context.Context, personID, orgID string) (*sessionsvc.Issued, error)
}

// Revoker tears down the session behind a presented credential.
type Revoker interface {
	Revoke(ctx context.Context, credential string) error
}

// AuditLogger records login and logout outcomes. Best-effort; implementations
// must not fail the calling flow.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, personID, action, outcome, metadata string)
}

// CompleteResult is the outcome of a successful login completion. Credential
// is the raw session secret; this is the only moment it exists outside the
// user's hands.
type CompleteResult struct {
	SessionID      string
	PersonID       string
	OrganizationID string
	Credential     string
	RedirectedFrom string
}

// AuthService orchestrates the login flow: initiate stores a pending flow and
// points the browser at the provider; complete consumes the flow exactly once,
// redeems the callback, resolves the identity, and issues a session.
type AuthService struct {
	flows    FlowStore
	provider provider.Client
	resolver Resolver
	issuer   Issuer
	revoker  Revoker
	audit    AuditLogger
	flowTTL  time.Duration
}

// NewAuthService returns an AuthService with the given dependencies. audit may
// be nil. revoker may be nil when the deployment delegates sessions to a
// remote sink; Logout is then a no-op.
func NewAuthService(
	flows FlowStore,
	providerClient provider.Client,
	resolver Resolver,
	issuer Issuer,
	revoker Revoker,
	audit AuditLogger,
	flowTTL time.Duration,
) *AuthService {
	return &AuthService{
		flows:    flows,
		provider: providerClient,
		resolver: resolver,
		issuer:   issuer,
		revoker:  revoker,
		audit:    audit,
		flowTTL:  flowTTL,
	}
}

// Initiate starts a login flow and returns the provider URL to redirect the
// browser to. redirectedFrom is the in-app path to return the user to after
// login; it is sanitized to a local path. If the pending flow cannot be
// persisted, no redirect URL is returned: sending the user to the provider
// with an unredeemable state would strand them at the callback.
func (s *AuthService) Initiate(ctx context.Context, redirectedFrom string) (string, error) {
	started, err := s.provider.StartFlow(ctx)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	pending := &flowdomain.PendingFlow{
		State:          started.State,
		Flow:           started.Flow,
		RedirectedFrom: SanitizeRedirect(redirectedFrom),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.flowTTL),
	}
	if err := s.flows.Put(ctx, pending); err != nil {
		return "", err
	}
	return started.AuthURL, nil
}

// Complete finishes a login flow from the provider callback. The flow is
// consumed atomically before any remote call, so a given state token can
// reach the provider's token endpoint at most once; retries and duplicate
// callbacks get ErrInvalidOrExpiredFlow. A provider rejection is terminal for
// the flow (provider.ErrExchangeRejected); the user must start over.
func (s *AuthService) Complete(ctx context.Context, state string, callbackParams url.Values) (*CompleteResult, error) {
	if state == "" {
		return nil, ErrInvalidOrExpiredFlow
	}
	pending, err := s.flows.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		s.logEvent(ctx, "", "", "login", "failure", `{"reason":"invalid_or_expired_flow"}`)
		return nil, ErrInvalidOrExpiredFlow
	}

	claims, err := s.provider.Redeem(ctx, pending.Flow, callbackParams)
	if err != nil {
		if errors.Is(err, provider.ErrExchangeRejected) {
			s.logEvent(ctx, "", "", "login", "failure", `{"reason":"exchange_rejected"}`)
		}
		return nil, err
	}

	resolution, err := s.resolver.ResolveOrCreate(ctx, claims)
	if err != nil {
		if errors.Is(err, personsvc.ErrUnknownOrganization) {
			s.logEvent(ctx, "", "", "login", "failure", `{"reason":"unknown_organization"}`)
		}
		return nil, err
	}

	issued, err := s.issuer.Issue(ctx, resolution.PersonID, resolution.OrganizationID)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, resolution.OrganizationID, resolution.PersonID, "login", "success", "")
	return &CompleteResult{
		SessionID:      issued.SessionID,
		PersonID:       resolution.PersonID,
		OrganizationID: resolution.OrganizationID,
		Credential:     issued.Credential,
		RedirectedFrom: pending.RedirectedFrom,
	}, nil
}

// Logout revokes the session behind the presented credential. Unknown or
// already revoked credentials are not errors.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	if s.revoker == nil || credential == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, credential); err != nil {
		return err
	}
	s.logEvent(ctx, "", "", "logout", "success", "")
	return nil
}

func (s *AuthService) logEvent(ctx context.Context, orgID, personID, action, outcome, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, orgID, personID, action, outcome, metadata)
}

// SanitizeRedirect clamps a post-login return target to a local path. Anything
// that is not a plain absolute path ("//host", "https://...", relative paths,
// empty) falls back to "/", closing the open-redirect hole on the login entry
// point.
func SanitizeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	// Browsers treat a backslash after the slash like a second slash.
	if strings.ContainsRune(target, '\\') {
		return "/"
	}
	if u, err := url.Parse(target); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return target
}

var (
	_ Issuer  = (*sessionsvc.LocalIssuer)(nil)
	_ Revoker = (*sessionsvc.LocalIssuer)(nil)
	_ Issuer  = (*sessionsvc.SinkIssuer)(nil)
)
