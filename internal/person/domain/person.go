package domain

import (
	"errors"
	"time"
)

// Person is a local identity resolved from verified provider claims.
// Exactly one row exists per external subject id; rows are created on first
// login, updated on later logins, and never deleted by the gateway.
type Person struct {
	ID string
	// ExternalID is the provider's stable subject id. Immutable once set.
	ExternalID string
	// Email is unique across people but may change over time for the same
	// external identity. Empty when the address has been reclaimed by another
	// identity (stored as NULL).
	Email       string
	DisplayName string
	// OrganizationID references a provisioned organization.
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the person for persistence. Returns an error describing the first validation failure.
func (p *Person) Validate() error {
	if p.ExternalID == "" {
		return errors.New("external_id is required")
	}
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.OrganizationID == "" {
		return errors.New("organization_id is required")
	}
	return nil
}
