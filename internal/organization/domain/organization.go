package domain

import (
	"errors"
	"time"
)

// Org represents a locally provisioned organization/tenant. The identity
// provider attaches a tenant id to each user; only users whose tenant maps to
// a provisioned organization may log in.
type Org struct {
	ID string
	// ExternalRef is the provider-side tenant identifier.
	ExternalRef string
	Name        string
	CreatedAt   time.Time
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.ExternalRef == "" {
		return errors.New("external_ref is required")
	}
	if o.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
