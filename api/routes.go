package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ticket-desk/api/routegroups"
	"ticket-desk/core/rbac"
)

func (s *Server) guards() routegroups.Guards {
	return routegroups.Guards{
		WithRole:          s.withRole,
		RequirePermission: func(p string) func(http.HandlerFunc) http.HandlerFunc { return s.requirePermission(rbac.Permission(p)) },
	}
}

func (s *Server) registerRoutes() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.loggingMiddleware)

	h := s.newRouteHandlers()
	apiRouter := chi.NewRouter()
	apiRouter.Use(s.jsonMiddleware)
	g := s.guards()
	routegroups.RegisterTickets(apiRouter, g, h.tickets)
	routegroups.RegisterReports(apiRouter, g, h.reports)
	apiRouter.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "route.not_found", "no such endpoint")
	})
	s.router.Mount("/api", apiRouter)

	s.router.MethodFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg != nil && strings.TrimSpace(s.cfg.StaticDir) != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
}
