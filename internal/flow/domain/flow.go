package domain

import "time"

// PendingFlow is a login attempt that has been redirected out to the identity
// provider and not yet completed. It is keyed by the opaque state token and is
// consumed exactly once by the callback.
type PendingFlow struct {
	// State is the server-issued token correlating the outbound redirect with
	// the later callback.
	State string `json:"state"`
	// Flow is the serialized provider-specific flow context. It is opaque to
	// everything but the provider client and must round-trip byte for byte.
	Flow []byte `json:"flow"`
	// RedirectedFrom is the local path the browser returns to after login.
	RedirectedFrom string    `json:"redirected_from"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the flow is past its expiry at the given instant.
func (f *PendingFlow) Expired(now time.Time) bool {
	return !f.ExpiresAt.After(now)
}
