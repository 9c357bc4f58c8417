// Package web serves the imported listings over a small JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/listings/internal/config"
	"github.com/JonMunkholm/listings/internal/core"
	"github.com/JonMunkholm/listings/internal/logging"
	"github.com/JonMunkholm/listings/internal/web/middleware"
)

// Server is the HTTP server over a ListingReader.
type Server struct {
	reader  core.ListingReader
	queries *core.QueryLimiter
	cfg     config.ServerConfig
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with its middleware and routes.
func NewServer(reader core.ListingReader, cfg config.ServerConfig) *Server {
	s := &Server{
		reader:  reader,
		queries: core.NewQueryLimiter(cfg.MaxConcurrentQueries, cfg.QueryWait),
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/listings", func(r chi.Router) {
		r.Use(s.limitQueries)
		r.Get("/filter", s.handleFilterGet)
		r.Post("/filter", s.handleFilterPost)
		r.Get("/autocomplete/location", s.handleAutocompleteLocation)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds headers suited to a JSON-only API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status. Encoding errors are only
// logged since the header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "path", r.URL.Path, "error", err)
	}
}

// limitQueries holds a query slot for the duration of the request.
func (s *Server) limitQueries(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.queries.Acquire(r.Context()); err != nil {
			logging.FromContext(r.Context()).Warn("query slots exhausted",
				"active", s.queries.ActiveCount(),
				"max", s.queries.MaxConcurrent(),
			)
			s.respondError(w, r, err)
			return
		}
		defer s.queries.Release()
		next.ServeHTTP(w, r)
	})
}
