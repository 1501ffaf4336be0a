// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/health"
	"github.com/vidtube/go-backend/internal/subscription"
	"github.com/vidtube/go-backend/internal/user"
	"github.com/vidtube/go-backend/internal/video"
)

const readHeaderTimeout = 5 * time.Second

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler *health.Handler
	Logger        *slog.Logger
}

// Handlers groups the feature handlers mounted under /api/v1.
type Handlers struct {
	Auth              *auth.Handler
	Users             *user.Handler
	Subscriptions     *subscription.Handler
	Videos            *video.Handler
	Authenticator     func(http.Handler) http.Handler
	CredentialLimiter func(http.Handler) http.Handler
}

type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	health     *health.Handler
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		core.NotFound(w, "Route")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		core.JSONError(w, core.NewAppError(
			core.ErrInvalidInput,
			"method not allowed",
			http.StatusMethodNotAllowed,
			"METHOD_NOT_ALLOWED",
		))
	})

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
		},
		health: cfg.HealthHandler,
		logger: logger,
	}
}

func (s *Server) Router() chi.Router {
	return s.router
}

// MountAPI registers the versioned API. Auth and account routes share the
// users prefix.
func (s *Server) MountAPI(h Handlers) {
	if s.health != nil {
		s.health.RegisterRoutes(s.router)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			h.Auth.RegisterRoutes(r, h.Authenticator, h.CredentialLimiter)
			h.Users.RegisterRoutes(r, h.Authenticator)
		})
		if h.Subscriptions != nil {
			r.Route("/subscriptions", func(r chi.Router) {
				h.Subscriptions.RegisterRoutes(r, h.Authenticator)
			})
		}
		if h.Videos != nil {
			r.Route("/videos", func(r chi.Router) {
				h.Videos.RegisterRoutes(r, h.Authenticator)
			})
		}
	})
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Shutdown fails readiness first, waits drain so load balancers stop routing
// here, then closes the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context, drain time.Duration) error {
	if s.health != nil {
		s.health.SetShutdown(true)
	}

	if drain > 0 {
		s.logger.Info("draining connections", "delay", drain.String())
		timer := time.NewTimer(drain)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
