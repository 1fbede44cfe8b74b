// Package web provides the HTTP server and handlers for the property data
// exporter UI and API.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lodgeops/propex/internal/config"
	"github.com/lodgeops/propex/internal/flatten"
	"github.com/lodgeops/propex/internal/history"
	"github.com/lodgeops/propex/internal/settings"
	"github.com/lodgeops/propex/internal/upstream"
	ownmw "github.com/lodgeops/propex/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the exporter application.
type Server struct {
	cfg     *config.Config
	store   *settings.Store
	client  *upstream.Client
	builder *flatten.Builder
	history *history.Store // nil when history is disabled
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server wired to its collaborators. hist may be nil.
func NewServer(cfg *config.Config, store *settings.Store, client *upstream.Client, hist *history.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		client:  client,
		builder: flatten.NewBuilder(nil),
		history: hist,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(ownmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", s.handleIndex)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Resource tables
		r.Get("/sources", s.handleResource(flatten.KindSources))
		r.Get("/taxes-fees", s.handleResource(flatten.KindTaxesFees))
		r.Get("/rooms", s.handleResource(flatten.KindRooms))
		r.Get("/payment-methods", s.handleResource(flatten.KindPaymentMethods))
		r.Get("/items", s.handleResource(flatten.KindItems))

		// Settings and connectivity
		r.Get("/test-connection", s.handleTestConnection)
		r.Post("/save-settings", s.handleSaveSettings)
		r.Get("/get-settings", s.handleGetSettings)

		// Operation history
		r.Get("/history", s.handleHistory)
	})

	s.router.Get("/export/csv", s.handleExport("csv"))
	s.router.Get("/export/xlsx", s.handleExport("xlsx"))
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
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

// handleIndex serves the embedded single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "UI not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
