package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ticket-desk/config"
	"ticket-desk/core/rbac"
	"ticket-desk/core/tickets"
	"ticket-desk/core/utils"
)

// BackgroundWorker is a component started with the server and stopped on
// shutdown.
type BackgroundWorker interface {
	StartWithContext(ctx context.Context)
	StopWithContext(ctx context.Context) error
}

type ServerDeps struct {
	Tickets *tickets.Service
	Policy  *rbac.Policy
}

type Server struct {
	cfg     *config.AppConfig
	router  chi.Router
	http    *http.Server
	policy  *rbac.Policy
	tickets *tickets.Service
	logger  *utils.Logger
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		router:  chi.NewRouter(),
		policy:  deps.Policy,
		tickets: deps.Tickets,
		logger:  logger,
	}
	if s.policy == nil && s.tickets != nil {
		s.policy = s.tickets.Policy()
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	if s.logger != nil {
		s.logger.Printf("listening on %s", s.http.Addr)
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
