package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	auditdomain "auth-gateway/internal/audit/domain"
	authsvc "auth-gateway/internal/auth/service"
	orgdomain "auth-gateway/internal/organization/domain"
	persondomain "auth-gateway/internal/person/domain"
	personsvc "auth-gateway/internal/person/service"
	"auth-gateway/internal/provider"
	sessiondomain "auth-gateway/internal/session/domain"
)

// AuthFlow is the slice of the auth service the handlers need.
type AuthFlow interface {
	Initiate(ctx context.Context, redirectedFrom string) (string, error)
	Complete(ctx context.Context, state string, callbackParams url.Values) (*authsvc.CompleteResult, error)
	Logout(ctx context.Context, credential string) error
}

// SessionValidator resolves a presented credential to its session.
type SessionValidator interface {
	Validate(ctx context.Context, credential string) (*sessiondomain.Session, error)
}

// PersonDirectory looks up people for the whoami endpoint.
type PersonDirectory interface {
	GetByID(ctx context.Context, id string) (*persondomain.Person, error)
}

// OrgDirectory looks up organizations for the whoami endpoint.
type OrgDirectory interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// AuditTrail lists the audit events recorded for an organization.
type AuditTrail interface {
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*auditdomain.Event, error)
}

// AuthHandler serves the browser-facing login surface.
type AuthHandler struct {
	auth     AuthFlow
	sessions SessionValidator
	people   PersonDirectory
	orgs     OrgDirectory
	trail    AuditTrail
	cookies  CookieConfig
	db       *sql.DB
}

// NewAuthHandler returns an AuthHandler. db is used only by the health
// endpoint and may be nil in tests.
func NewAuthHandler(auth AuthFlow, sessions SessionValidator, people PersonDirectory, orgs OrgDirectory, trail AuditTrail, cookies CookieConfig, db *sql.DB) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, people: people, orgs: orgs, trail: trail, cookies: cookies, db: db}
}

// Login starts a login flow and redirects the browser to the identity
// provider. GET /login?redirected_from=<path>
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.auth.Initiate(r.Context(), r.URL.Query().Get("redirected_from"))
	if err != nil {
		log.Printf("server: initiate login: %v", err)
		http.Error(w, "login is unavailable", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback finishes a login flow. On success it sets the session cookie and
// redirects to the path the user came from. No failure path sets a cookie.
// GET /auth/callback?state=...&code=...
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.auth.Complete(r.Context(), q.Get("state"), q)
	if err != nil {
		h.writeCallbackError(w, err)
		return
	}
	h.cookies.set(w, res.Credential)
	http.Redirect(w, r, res.RedirectedFrom, http.StatusFound)
}

func (h *AuthHandler) writeCallbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidOrExpiredFlow):
		http.Error(w, "login flow is invalid or expired, start over", http.StatusUnauthorized)
	case errors.Is(err, provider.ErrExchangeRejected):
		http.Error(w, "identity provider rejected the login, start over", http.StatusUnauthorized)
	case errors.Is(err, personsvc.ErrUnknownOrganization):
		http.Error(w, "no organization is provisioned for this account", http.StatusForbidden)
	case errors.Is(err, personsvc.ErrConflictingIdentity):
		http.Error(w, "account conflicts with an existing identity", http.StatusConflict)
	case errors.Is(err, personsvc.ErrIncompleteClaims):
		http.Error(w, "identity provider returned incomplete account data", http.StatusForbidden)
	default:
		log.Printf("server: complete login: %v", err)
		http.Error(w, "login failed", http.StatusBadGateway)
	}
}

type whoamiResponse struct {
	PersonID         string `json:"person_id"`
	SessionID        string `json:"session_id"`
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name,omitempty"`
	Email            string `json:"email,omitempty"`
	DisplayName      string `json:"display_name"`
}

// Whoami returns the authenticated person. Requires the session middleware.
// GET /auth/whoami
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	personID, ok := GetPersonID(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	person, err := h.people.GetByID(r.Context(), personID)
	if err != nil {
		log.Printf("server: whoami lookup: %v", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if person == nil {
		// Session outlived the person row.
		h.cookies.clear(w)
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	resp := whoamiResponse{
		PersonID:       person.ID,
		OrganizationID: person.OrganizationID,
		Email:          person.Email,
		DisplayName:    person.DisplayName,
	}
	if sessionID, ok := GetSessionID(r.Context()); ok {
		resp.SessionID = sessionID
	}
	if org, err := h.orgs.GetByID(r.Context(), person.OrganizationID); err != nil {
		log.Printf("server: whoami org lookup: %v", err)
	} else if org != nil {
		resp.OrganizationName = org.Name
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type auditEntry struct {
	ID        string `json:"id"`
	PersonID  string `json:"person_id,omitempty"`
	Action    string `json:"action"`
	Outcome   string `json:"outcome"`
	IP        string `json:"ip,omitempty"`
	Metadata  string `json:"metadata,omitempty"`
	CreatedAt string `json:"created_at"`
}

const (
	auditDefaultLimit = 50
	auditMaxLimit     = 200
)

// AuditLog lists audit events for the caller's organization, newest first.
// Requires the session middleware. GET /auth/audit?limit=<n>&offset=<n>
func (h *AuthHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	personID, ok := GetPersonID(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	person, err := h.people.GetByID(r.Context(), personID)
	if err != nil {
		log.Printf("server: audit lookup: %v", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if person == nil {
		h.cookies.clear(w)
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	limit := queryInt32(r, "limit", auditDefaultLimit)
	if limit < 1 || limit > auditMaxLimit {
		limit = auditDefaultLimit
	}
	offset := queryInt32(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	events, err := h.trail.ListByOrg(r.Context(), person.OrganizationID, limit, offset)
	if err != nil {
		log.Printf("server: audit list: %v", err)
		http.Error(w, "audit log is unavailable", http.StatusInternalServerError)
		return
	}
	entries := make([]auditEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, auditEntry{
			ID:        e.ID,
			PersonID:  e.PersonID,
			Action:    e.Action,
			Outcome:   e.Outcome,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}

// Logout revokes the presented session, clears the cookie, and returns 204.
// Idempotent: logging out without a valid session still clears the cookie.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if credential := credentialFromRequest(r); credential != "" {
		if err := h.auth.Logout(r.Context(), credential); err != nil {
			log.Printf("server: logout: %v", err)
		}
	}
	h.cookies.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Healthz pings the database. GET /healthz
func (h *AuthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
