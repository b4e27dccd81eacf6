package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"necromancer/internal/config"
	"necromancer/internal/core"
	"necromancer/internal/logger"
	"necromancer/internal/pipeline"
	"necromancer/internal/store"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Runner is the part of the pipeline the API drives.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.RunResult, error)
	Process(ctx context.Context, records []core.Project, owner string) ([]core.Project, error)
	Tiers() pipeline.Tiers
}

// Catalog records generated portfolios. It is optional.
type Catalog interface {
	SavePortfolio(ctx context.Context, id, path string, portfolio *core.Portfolio, dropped int) error
	GetPortfolio(ctx context.Context, id string) (*store.Record, error)
	ListPortfolios(ctx context.Context, limit int) ([]store.Record, error)
	GetStats(ctx context.Context) (*store.Stats, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	runner     Runner
	catalog    Catalog
	config     config.Server
	defaults   core.PresentationOptions
	validate   *validator.Validate
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a new HTTP server instance. Generated sites are read back from
// cfg.Server.StorageDir, so the runner's generator must write there. catalog
// may be nil.
func New(runner Runner, cfg *config.Config, catalog Catalog) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		runner:   runner,
		catalog:  catalog,
		config:   cfg.Server,
		defaults: cfg.PresentationOptions(),
		validate: validator.New(),
		log:      logger.For("server"),
		now:      time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	// Generation runs every record through the language model.
	s.router.Use(middleware.Timeout(2 * time.Minute))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(noCache)
			r.Get("/health", s.handleHealth)
			r.Get("/categories", s.handleCategories)
			r.Get("/themes", s.handleThemes)
			r.Post("/classify", s.handleClassify)
			r.Post("/generate", s.handleGenerate)
			r.Get("/portfolios", s.handleListPortfolios)
			r.Get("/portfolios/{id}", s.handleGetPortfolio)
			r.Get("/stats", s.handleStats)
		})

		r.Get("/preview/{id}", s.handlePreviewRedirect)
		r.With(cacheStaticAssets).Get("/preview/{id}/*", s.handlePreview)
		r.Get("/download/{id}", s.handleDownload)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Endpoint not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Str("storage_dir", s.config.StorageDir).
		Dur("read_timeout", s.config.ReadTimeout).
		Dur("write_timeout", s.config.WriteTimeout).
		Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
