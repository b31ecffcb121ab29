// Package server exposes the blog REST API, the admin session endpoints and the public feeds.
package server

import (
	"blogsmith/internal/auth"
	"blogsmith/internal/config"
	"blogsmith/internal/core"
	"blogsmith/internal/persistence"
	"blogsmith/internal/render"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const listCacheSize = 256

// Generator runs the generation flows behind the admin endpoints
type Generator interface {
	Run(ctx context.Context) (*core.RunReport, error)
	FromSubject(ctx context.Context, subject string) (*core.Article, error)
	FromURL(ctx context.Context, rawURL string) (*core.Article, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	db         persistence.Database
	generator  Generator
	sessions   *auth.Manager
	listCache  *expirable.LRU[string, *persistence.ArticlePage]
	validate   *validator.Validate
	sanitizer  *render.Sanitizer
	login      *rate.Limiter
	config     config.Server
	log        *slog.Logger
	startedAt  time.Time
}

// New creates a new HTTP server instance. generator may be nil, in which case
// the generation endpoints answer 503.
func New(db persistence.Database, generator Generator, sessions *auth.Manager, cfg config.Server, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		router:    chi.NewRouter(),
		db:        db,
		generator: generator,
		sessions:  sessions,
		listCache: expirable.NewLRU[string, *persistence.ArticlePage](listCacheSize, nil, config.Duration(cfg.CacheTTL, 10*time.Second)),
		validate:  newValidator(),
		sanitizer: render.NewSanitizer(),
		login:     rate.NewLimiter(rate.Every(time.Second), 5),
		config:    cfg,
		log:       log,
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  config.Duration(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(cfg.WriteTimeout, 300*time.Second),
		IdleTimeout:  config.Duration(cfg.IdleTimeout, 60*time.Second),
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(recordMetrics)

	// Generation runs take minutes; the ceiling sits above the longest run.
	s.router.Use(middleware.Timeout(config.Duration(s.config.RequestTimeout, 270*time.Second)))

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.Use(securityHeaders)
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/sitemap.xml", s.handleSitemap)
	s.router.Get("/feed.xml", s.handleFeed)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(noCache)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/", s.handleAuthStatus)
			r.Post("/", s.handleAuth)
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", s.handleListBlogs)
			r.Get("/{id}", s.handleGetBlog)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/", s.handleCreateBlog)
				r.Put("/", s.handleUpdateBlog)
				r.Put("/{id}", s.handleUpdateBlog)
				r.Delete("/", s.handleDeleteBlog)
				r.Delete("/{id}", s.handleDeleteBlog)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/generate-blogs", s.handleGenerateBlogs)
			r.Post("/generate-from-topic", s.handleGenerateFromTopic)
			r.Post("/generate-from-url", s.handleGenerateFromURL)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.httpServer.ReadTimeout,
		"write_timeout", s.httpServer.WriteTimeout,
		"generation_enabled", s.generator != nil,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
