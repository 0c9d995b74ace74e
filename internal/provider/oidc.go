package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"auth-gateway/internal/security"
)

// providerTimeout bounds every remote call to the identity provider.
const providerTimeout = 10 * time.Second

// OIDCConfig configures the OIDC client. Endpoints are discovered from
// {Issuer}/.well-known/openid-configuration.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	// RedirectURL is the absolute callback URL registered with the provider.
	RedirectURL string
	// Scopes are requested in addition to "openid".
	Scopes []string
}

// flowContext is the provider-internal state serialized into the pending-flow
// blob. It never leaves the gateway.
type flowContext struct {
	CodeVerifier string `json:"code_verifier"`
	Nonce        string `json:"nonce"`
	RedirectURI  string `json:"redirect_uri"`
}

// OIDCClient implements Client against any OIDC-compliant provider using
// discovery, PKCE, and ID-token verification.
type OIDCClient struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	http     *http.Client
}

// NewOIDCClient discovers the provider's endpoints and returns a ready client.
func NewOIDCClient(ctx context.Context, cfg OIDCConfig) (*OIDCClient, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("provider: issuer is required")
	}
	if cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("provider: client id and redirect URL are required")
	}

	httpClient := &http.Client{Timeout: providerTimeout}
	ctx = oidc.ClientContext(ctx, httpClient)

	p, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("provider discovery: %w", err)
	}

	scopes := append([]string{oidc.ScopeOpenID}, cfg.Scopes...)
	return &OIDCClient{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     p.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier: p.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		http:     httpClient,
	}, nil
}

// StartFlow generates state, nonce, and a PKCE verifier, and returns the
// authorization URL together with the serialized flow context.
func (c *OIDCClient) StartFlow(ctx context.Context) (*StartedFlow, error) {
	state, err := security.NewStateToken()
	if err != nil {
		return nil, err
	}
	nonce, err := security.NewStateToken()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	blob, err := json.Marshal(flowContext{
		CodeVerifier: verifier,
		Nonce:        nonce,
		RedirectURI:  c.oauth.RedirectURL,
	})
	if err != nil {
		return nil, err
	}

	authURL := c.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	)
	return &StartedFlow{State: state, Flow: blob, AuthURL: authURL}, nil
}

// Redeem exchanges the callback's authorization code for tokens, verifies the
// ID token, and extracts claims. Provider-side rejections come back as
// ErrExchangeRejected; transport failures are returned as-is so callers can
// distinguish infrastructure faults from refusals.
func (c *OIDCClient) Redeem(ctx context.Context, flow []byte, callbackParams url.Values) (*Claims, error) {
	var fc flowContext
	if err := json.Unmarshal(flow, &fc); err != nil {
		return nil, fmt.Errorf("decode flow context: %w", err)
	}

	if e := callbackParams.Get("error"); e != "" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrExchangeRejected, e, callbackParams.Get("error_description"))
	}
	code := callbackParams.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: callback carried no authorization code", ErrExchangeRejected)
	}

	ctx = oidc.ClientContext(ctx, c.http)
	token, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(fc.CodeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
		}
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: token response carried no ID token", ErrExchangeRejected)
	}
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}
	if idToken.Nonce != fc.Nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrExchangeRejected)
	}

	var raw struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		TID   string `json:"tid"`
	}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}
	if idToken.Subject == "" || raw.Email == "" || raw.TID == "" {
		return nil, fmt.Errorf("%w: ID token missing required claims", ErrExchangeRejected)
	}

	return &Claims{
		Subject:     idToken.Subject,
		Email:       raw.Email,
		DisplayName: raw.Name,
		TenantID:    raw.TID,
	}, nil
}
