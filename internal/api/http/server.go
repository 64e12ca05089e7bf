package apihttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"admin-dashboard/internal/auth"
)

// Config holds the server wiring. Nil handlers leave their routes unmounted.
type Config struct {
	Addr        string
	Log         zerolog.Logger
	CORSOrigins []string
	// Auth enforces bearer tokens on /api routes when set.
	Auth *auth.Middleware

	Session       http.Handler
	Status        http.Handler
	Dashboard     http.Handler
	Orders        http.Handler
	Notifications http.Handler
	NoticeStream  http.Handler
	Audit         http.Handler
}

// Server is the dashboard HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates the router and server.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "http").Logger(),
	}
	s.setupMiddleware(cfg)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: len(cfg.CORSOrigins) > 0,
		MaxAge:           300,
	}))
	if cfg.Auth != nil {
		s.router.Use(cfg.Auth.Wrap)
	}
}

func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/healthz", handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		if cfg.Session != nil {
			r.Handle("/session", cfg.Session)
		}
		if cfg.Status != nil {
			r.Handle("/status", cfg.Status)
		}
		if cfg.Dashboard != nil {
			r.Handle("/dashboard", cfg.Dashboard)
			r.Handle("/dashboard/*", cfg.Dashboard)
		}
		if cfg.Orders != nil {
			r.Handle("/orders/{id}", cfg.Orders)
		}
		if cfg.Notifications != nil {
			r.Handle("/notifications", cfg.Notifications)
			r.Handle("/notifications/*", cfg.Notifications)
		}
		if cfg.NoticeStream != nil {
			r.Handle("/notices/stream", cfg.NoticeStream)
		}
		if cfg.Audit != nil {
			r.Handle("/audit", cfg.Audit)
		}
	})
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
