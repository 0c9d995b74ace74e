package server

import (
	"errors"
	"net"
	"net/http"

	"auth-gateway/internal/audit"
	sessionsvc "auth-gateway/internal/session/service"
)

// RequireSession validates the session cookie and puts the resolved identity
// on the request context. Requests without a valid session get 401.
func RequireSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := credentialFromRequest(r)
			if credential == "" {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			s, err := sessions.Validate(r.Context(), credential)
			if err != nil {
				if errors.Is(err, sessionsvc.ErrInvalidCredential) {
					http.Error(w, "not authenticated", http.StatusUnauthorized)
					return
				}
				http.Error(w, "session lookup failed", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), s.PersonID, s.ID)))
		})
	}
}

// ClientIP records the caller's IP on the context for audit entries. Runs
// after chi's RealIP middleware so RemoteAddr reflects X-Forwarded-For.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(audit.ContextWithIP(r.Context(), ip)))
	})
}
