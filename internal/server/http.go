// Package server wires the browser-facing HTTP surface of the gateway:
// login entry, provider callback, session introspection, logout, and health.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for the gateway.
func NewRouter(h *AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(ClientIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/login", h.Login)
	r.Get("/healthz", h.Healthz)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/callback", h.Callback)
		r.Post("/logout", h.Logout)
		r.With(RequireSession(h.sessions)).Get("/whoami", h.Whoami)
		r.With(RequireSession(h.sessions)).Get("/audit", h.AuditLog)
	})
	return r
}

// Server is the gateway's HTTP server with graceful shutdown.
type Server struct {
	srv *http.Server
}

// New returns a Server listening on addr with the given router.
func New(addr string, router http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails. A closed-server error is returned as-is for the caller to filter.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
