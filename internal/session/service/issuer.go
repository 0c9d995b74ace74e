package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"auth-gateway/internal/security"
	"auth-gateway/internal/session/domain"
)

var (
	// ErrInvalidCredential is returned by Validate when the presented
	// credential does not correspond to an active session.
	ErrInvalidCredential = errors.New("invalid session credential")
)

// Repo is the slice of the session repository the issuer needs.
type Repo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByCredentialPrefix(ctx context.Context, prefix string) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// Issued is the outcome of issuing a session. Credential carries the raw
// secret and is the only place it ever appears; storage holds a hash.
type Issued struct {
	SessionID  string
	PersonID   string
	Credential string
}

// Issuer mints session credentials for resolved identities. orgID travels
// along for backends that record or scope sessions by organization.
type Issuer interface {
	Issue(ctx context.Context, personID, orgID string) (*Issued, error)
}

// LocalIssuer issues sessions backed by the local session repository.
// Credentials are random, stored only as a bcrypt hash alongside a short
// cleartext prefix used to narrow lookups.
type LocalIssuer struct {
	repo   Repo
	hasher *security.Hasher
}

func NewLocalIssuer(repo Repo, hasher *security.Hasher) *LocalIssuer {
	return &LocalIssuer{repo: repo, hasher: hasher}
}

// Issue creates a new session for the person and returns the raw credential.
// The credential is not recoverable after this call. The local store keys
// sessions by person, so orgID is not persisted here.
func (i *LocalIssuer) Issue(ctx context.Context, personID, _ string) (*Issued, error) {
	credential, err := security.NewCredential()
	if err != nil {
		return nil, err
	}
	prefix, err := security.CredentialPrefix(credential)
	if err != nil {
		return nil, err
	}
	hash, err := i.hasher.Hash([]byte(credential))
	if err != nil {
		return nil, err
	}

	s := &domain.Session{
		ID:               uuid.New().String(),
		CredentialPrefix: prefix,
		CredentialHash:   hash,
		PersonID:         personID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := i.repo.Create(ctx, s); err != nil {
		return nil, err
	}

	return &Issued{SessionID: s.ID, PersonID: personID, Credential: credential}, nil
}

// Validate resolves a presented credential to its session. The prefix narrows
// the candidate set; the hash comparison decides. Returns ErrInvalidCredential
// when no stored session matches.
func (i *LocalIssuer) Validate(ctx context.Context, credential string) (*domain.Session, error) {
	prefix, err := security.CredentialPrefix(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	candidates, err := i.repo.GetByCredentialPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for _, s := range candidates {
		if i.hasher.Compare(s.CredentialHash, []byte(credential)) == nil {
			return s, nil
		}
	}
	return nil, ErrInvalidCredential
}

// Revoke deletes the session identified by the presented credential. Revoking
// an unknown credential is not an error.
func (i *LocalIssuer) Revoke(ctx context.Context, credential string) error {
	s, err := i.Validate(ctx, credential)
	if errors.Is(err, ErrInvalidCredential) {
		return nil
	}
	if err != nil {
		return err
	}
	return i.repo.Delete(ctx, s.ID)
}

// SinkIssuer delegates session issuance to a remote internal service. The
// sink receives the resolved person and answers with the session it created,
// including the raw credential it minted.
type SinkIssuer struct {
	url    string
	secret string
	client *http.Client
}

func NewSinkIssuer(url, secret string) *SinkIssuer {
	return &SinkIssuer{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sinkRequest struct {
	PersonID       string `json:"person_id"`
	OrganizationID string `json:"organization_id,omitempty"`
}

type sinkResponse struct {
	SessionID  string `json:"session_id"`
	PersonID   string `json:"person_id"`
	Credential string `json:"credential"`
}

func (i *SinkIssuer) Issue(ctx context.Context, personID, orgID string) (*Issued, error) {
	body, err := json.Marshal(sinkRequest{PersonID: personID, OrganizationID: orgID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("auth-gateway", i.secret)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("session sink returned status %d", resp.StatusCode)
	}

	var out sinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.SessionID == "" || out.Credential == "" {
		return nil, errors.New("session sink returned an incomplete session")
	}
	if out.PersonID == "" {
		out.PersonID = personID
	}
	return &Issued{SessionID: out.SessionID, PersonID: out.PersonID, Credential: out.Credential}, nil
}
