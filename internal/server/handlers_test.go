package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	auditdomain "auth-gateway/internal/audit/domain"
	authsvc "auth-gateway/internal/auth/service"
	orgdomain "auth-gateway/internal/organization/domain"
	persondomain "auth-gateway/internal/person/domain"
	personsvc "auth-gateway/internal/person/service"
	"auth-gateway/internal/provider"
	sessiondomain "auth-gateway/internal/session/domain"
	sessionsvc "auth-gateway/internal/session/service"
)

type fakeAuthFlow struct {
	initiateFrom string
	initiateErr  error
	complete     *authsvc.CompleteResult
	completeErr  error
	loggedOut    []string
}

func (f *fakeAuthFlow) Initiate(_ context.Context, redirectedFrom string) (string, error) {
	f.initiateFrom = redirectedFrom
	if f.initiateErr != nil {
		return "", f.initiateErr
	}
	return "https://login.example.com/authorize?state=s1", nil
}

func (f *fakeAuthFlow) Complete(_ context.Context, _ string, _ url.Values) (*authsvc.CompleteResult, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.complete, nil
}

func (f *fakeAuthFlow) Logout(_ context.Context, credential string) error {
	f.loggedOut = append(f.loggedOut, credential)
	return nil
}

type fakeValidator struct {
	sessions map[string]*sessiondomain.Session
}

func (f *fakeValidator) Validate(_ context.Context, credential string) (*sessiondomain.Session, error) {
	if s, ok := f.sessions[credential]; ok {
		return s, nil
	}
	return nil, sessionsvc.ErrInvalidCredential
}

type fakePeople struct {
	people map[string]*persondomain.Person
}

func (f *fakePeople) GetByID(_ context.Context, id string) (*persondomain.Person, error) {
	return f.people[id], nil
}

type fakeOrgs struct {
	orgs map[string]*orgdomain.Org
}

func (f *fakeOrgs) GetByID(_ context.Context, id string) (*orgdomain.Org, error) {
	return f.orgs[id], nil
}

type fakeTrail struct {
	events     map[string][]*auditdomain.Event
	lastLimit  int32
	lastOffset int32
}

func (f *fakeTrail) ListByOrg(_ context.Context, orgID string, limit, offset int32) ([]*auditdomain.Event, error) {
	f.lastLimit, f.lastOffset = limit, offset
	return f.events[orgID], nil
}

type testEnv struct {
	router    http.Handler
	validator *fakeValidator
	people    *fakePeople
	orgs      *fakeOrgs
	trail     *fakeTrail
}

func newTestEnv(flow *fakeAuthFlow) *testEnv {
	validator := &fakeValidator{sessions: map[string]*sessiondomain.Session{}}
	people := &fakePeople{people: map[string]*persondomain.Person{}}
	orgs := &fakeOrgs{orgs: map[string]*orgdomain.Org{}}
	trail := &fakeTrail{events: map[string][]*auditdomain.Event{}}
	h := NewAuthHandler(flow, validator, people, orgs, trail, CookieConfig{Secure: true, MaxAge: time.Hour}, nil)
	return &testEnv{router: NewRouter(h), validator: validator, people: people, orgs: orgs, trail: trail}
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range res.Cookies() {
		if ck.Name == CookieName {
			return ck
		}
	}
	return nil
}

func TestLoginRedirectsToProvider(t *testing.T) {
	flow := &fakeAuthFlow{}
	router := newTestEnv(flow).router

	req := httptest.NewRequest(http.MethodGet, "/login?redirected_from=/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "https://login.example.com/") {
		t.Fatalf("location = %q", loc)
	}
	if flow.initiateFrom != "/dashboard" {
		t.Fatalf("redirected_from passed to service = %q", flow.initiateFrom)
	}
}

func TestLoginUnavailable(t *testing.T) {
	flow := &fakeAuthFlow{initiateErr: errors.New("store down")}
	router := newTestEnv(flow).router

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if sessionCookie(t, rec.Result()) != nil {
		t.Fatal("failure must not set a cookie")
	}
}

func TestCallbackSetsSessionCookie(t *testing.T) {
	flow := &fakeAuthFlow{complete: &authsvc.CompleteResult{
		SessionID:      "sess-1",
		PersonID:       "person-1",
		OrganizationID: "org-1",
		Credential:     "the-credential",
		RedirectedFrom: "/dashboard",
	}}
	router := newTestEnv(flow).router

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=c1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("location = %q, want /dashboard", loc)
	}
	ck := sessionCookie(t, rec.Result())
	if ck == nil {
		t.Fatal("no session cookie set")
	}
	if ck.Value != "the-credential" {
		t.Fatalf("cookie value = %q", ck.Value)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes: HttpOnly=%v Secure=%v SameSite=%v", ck.HttpOnly, ck.Secure, ck.SameSite)
	}
	if ck.Path != "/" {
		t.Fatalf("cookie path = %q", ck.Path)
	}
}

func TestCallbackFailureStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid flow", authsvc.ErrInvalidOrExpiredFlow, http.StatusUnauthorized},
		{"exchange rejected", provider.ErrExchangeRejected, http.StatusUnauthorized},
		{"unknown organization", personsvc.ErrUnknownOrganization, http.StatusForbidden},
		{"conflicting identity", personsvc.ErrConflictingIdentity, http.StatusConflict},
		{"incomplete claims", personsvc.ErrIncompleteClaims, http.StatusForbidden},
		{"infrastructure", errors.New("db down"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestEnv(&fakeAuthFlow{completeErr: tc.err}).router

			req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=c1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if sessionCookie(t, rec.Result()) != nil {
				t.Fatal("failure must not set a cookie")
			}
		})
	}
}

func TestWhoami(t *testing.T) {
	env := newTestEnv(&fakeAuthFlow{})
	env.validator.sessions["cred-1"] = &sessiondomain.Session{ID: "sess-1", PersonID: "person-1"}
	env.people.people["person-1"] = &persondomain.Person{
		ID:             "person-1",
		ExternalID:     "sub-1",
		Email:          "a@example.com",
		DisplayName:    "A",
		OrganizationID: "org-1",
	}
	env.orgs.orgs["org-1"] = &orgdomain.Org{ID: "org-1", ExternalRef: "tid-1", Name: "Acme"}

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cred-1"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`"person_id":"person-1"`,
		`"session_id":"sess-1"`,
		`"organization_id":"org-1"`,
		`"organization_name":"Acme"`,
		`"email":"a@example.com"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %s", body, want)
		}
	}
}

func TestWhoamiUnknownOrganizationName(t *testing.T) {
	env := newTestEnv(&fakeAuthFlow{})
	env.validator.sessions["cred-1"] = &sessiondomain.Session{ID: "sess-1", PersonID: "person-1"}
	env.people.people["person-1"] = &persondomain.Person{ID: "person-1", OrganizationID: "org-gone"}

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cred-1"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "organization_name") {
		t.Fatalf("body %q should omit the name of a missing organization", rec.Body.String())
	}
}

func TestWhoamiUnauthenticated(t *testing.T) {
	router := newTestEnv(&fakeAuthFlow{}).router

	// No cookie at all.
	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: status = %d, want 401", rec.Code)
	}

	// A cookie that maps to no session.
	req = httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "nope"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credential: status = %d, want 401", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	flow := &fakeAuthFlow{}
	router := newTestEnv(flow).router

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cred-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(flow.loggedOut) != 1 || flow.loggedOut[0] != "cred-1" {
		t.Fatalf("revoked credentials = %v", flow.loggedOut)
	}
	ck := sessionCookie(t, rec.Result())
	if ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", ck)
	}

	// Without a cookie logout is still a 204.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cookieless logout: status = %d, want 204", rec.Code)
	}
}

func TestAuditListing(t *testing.T) {
	env := newTestEnv(&fakeAuthFlow{})
	env.validator.sessions["cred-1"] = &sessiondomain.Session{ID: "sess-1", PersonID: "person-1"}
	env.people.people["person-1"] = &persondomain.Person{ID: "person-1", OrganizationID: "org-1"}
	env.trail.events["org-1"] = []*auditdomain.Event{
		{ID: "ev-2", PersonID: "person-1", Action: "login", Outcome: "success", IP: "10.0.0.1", CreatedAt: time.Now().UTC()},
		{ID: "ev-1", Action: "login", Outcome: "failure", CreatedAt: time.Now().UTC().Add(-time.Minute)},
	}
	env.trail.events["org-other"] = []*auditdomain.Event{
		{ID: "ev-x", Action: "login", Outcome: "success", CreatedAt: time.Now().UTC()},
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/audit?limit=10&offset=5", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cred-1"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"id":"ev-2"`, `"id":"ev-1"`, `"outcome":"failure"`, `"ip":"10.0.0.1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %s", body, want)
		}
	}
	// Only the caller's organization is listed.
	if strings.Contains(body, "ev-x") {
		t.Fatalf("body %q leaks another organization's events", body)
	}
	if env.trail.lastLimit != 10 || env.trail.lastOffset != 5 {
		t.Fatalf("pagination = (%d, %d), want (10, 5)", env.trail.lastLimit, env.trail.lastOffset)
	}
}

func TestAuditListingPaginationDefaults(t *testing.T) {
	env := newTestEnv(&fakeAuthFlow{})
	env.validator.sessions["cred-1"] = &sessiondomain.Session{ID: "sess-1", PersonID: "person-1"}
	env.people.people["person-1"] = &persondomain.Person{ID: "person-1", OrganizationID: "org-1"}

	req := httptest.NewRequest(http.MethodGet, "/auth/audit?limit=100000&offset=-3", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cred-1"})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if env.trail.lastLimit != auditDefaultLimit || env.trail.lastOffset != 0 {
		t.Fatalf("pagination = (%d, %d), want (%d, 0)", env.trail.lastLimit, env.trail.lastOffset, auditDefaultLimit)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want empty list", body)
	}
}

func TestAuditListingUnauthenticated(t *testing.T) {
	router := newTestEnv(&fakeAuthFlow{}).router

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/audit", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealthzWithoutDB(t *testing.T) {
	router := newTestEnv(&fakeAuthFlow{}).router

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
