package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	orgdomain "auth-gateway/internal/organization/domain"
	persondomain "auth-gateway/internal/person/domain"
	"auth-gateway/internal/provider"
)

// Sentinel errors for identity resolution; the HTTP layer maps them to statuses.
var (
	// ErrUnknownOrganization is returned when the tenant claim does not map to
	// a provisioned organization. Organizations are never auto-created at login.
	ErrUnknownOrganization = errors.New("tenant does not map to a provisioned organization")
	// ErrConflictingIdentity is reserved for deployments that reject email
	// collisions instead of reassigning the address. The default policy treats
	// the external subject id as authoritative, so the resolver itself never
	// returns it.
	ErrConflictingIdentity = errors.New("claims conflict with an existing identity")
	// ErrIncompleteClaims is returned when required claims are missing.
	ErrIncompleteClaims = errors.New("claims are missing required attributes")
)

// OrgRepo is the minimal organization repository needed by the resolver.
type OrgRepo interface {
	GetByExternalRef(ctx context.Context, externalRef string) (*orgdomain.Org, error)
}

// PersonRepo is the minimal person repository needed by the resolver.
type PersonRepo interface {
	Upsert(ctx context.Context, p *persondomain.Person) (string, error)
}

// Resolution is the outcome of resolving claims to a local identity.
type Resolution struct {
	PersonID       string
	OrganizationID string
}

// Resolver maps verified provider claims to a local person row, creating or
// updating it. Resolution is idempotent: the same claims always land on the
// same row.
type Resolver struct {
	orgRepo    OrgRepo
	personRepo PersonRepo
}

// NewResolver returns a Resolver with the given dependencies.
func NewResolver(orgRepo OrgRepo, personRepo PersonRepo) *Resolver {
	return &Resolver{orgRepo: orgRepo, personRepo: personRepo}
}

// ResolveOrCreate maps claims to a person id. The tenant claim must match a
// provisioned organization; the person row is upserted keyed on the external
// subject id, with email reassignment per the repository's reconciliation.
func (s *Resolver) ResolveOrCreate(ctx context.Context, claims *provider.Claims) (*Resolution, error) {
	if claims == nil || claims.Subject == "" || claims.Email == "" || claims.TenantID == "" {
		return nil, ErrIncompleteClaims
	}

	org, err := s.orgRepo.GetByExternalRef(ctx, claims.TenantID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrUnknownOrganization
	}

	now := time.Now().UTC()
	p := &persondomain.Person{
		ID:             uuid.New().String(),
		ExternalID:     claims.Subject,
		Email:          strings.TrimSpace(strings.ToLower(claims.Email)),
		DisplayName:    strings.TrimSpace(claims.DisplayName),
		OrganizationID: org.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	id, err := s.personRepo.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Resolution{PersonID: id, OrganizationID: org.ID}, nil
}
