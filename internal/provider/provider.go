// Package provider brokers the authorization-code handshake with the external
// identity provider. The rest of the gateway sees only the two-phase capability:
// start a flow, later redeem it exactly once for verified claims.
package provider

import (
	"context"
	"errors"
	"net/url"
)

// ErrExchangeRejected is returned when the provider refuses to redeem the
// callback (expired or reused code, mismatched redirect, revoked grant, or an
// error relayed on the callback itself). The flow has already been consumed by
// then, so the only recovery is a fresh login.
var ErrExchangeRejected = errors.New("identity provider rejected the exchange")

// Claims are the verified identity attributes extracted from the provider's
// ID token after a successful redemption.
type Claims struct {
	// Subject is the provider's stable identifier for the user.
	Subject string
	// Email may change over time for the same subject.
	Email string
	// DisplayName is the human-readable name claim.
	DisplayName string
	// TenantID is the provider-side tenant/organization identifier. It must
	// map to a locally provisioned organization.
	TenantID string
}

// StartedFlow is the outcome of starting an authorization flow.
type StartedFlow struct {
	// State keys the pending flow and correlates the callback.
	State string
	// Flow is the serialized provider flow context. Callers store it verbatim
	// and hand it back, byte for byte, at redemption time.
	Flow []byte
	// AuthURL is where the user's browser is sent to authenticate.
	AuthURL string
}

// Client is the two-phase identity provider capability.
//
// Redeem talks to a remote system and must not be invoked twice for the same
// flow blob; the flow store's atomic consume enforces that upstream.
type Client interface {
	StartFlow(ctx context.Context) (*StartedFlow, error)
	Redeem(ctx context.Context, flow []byte, callbackParams url.Values) (*Claims, error)
}
