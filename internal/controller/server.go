// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"fletcher/internal/auth"
	"fletcher/internal/controller/handlers"
	"fletcher/internal/controller/middleware"
)

// New creates a new controller server wiring the plan/state engines,
// auth service, and store behind every endpoint in spec.md §6.
func New(addr string, h *handlers.Handlers, authSvc *auth.Service, metricsHandler http.Handler) *Server {
	requireAuth := middleware.Auth(authSvc)
	limit := middleware.RateLimit(rate.Limit(50), 100)

	withAuth := func(next http.HandlerFunc) http.Handler {
		return requireAuth(limit(http.HandlerFunc(next)))
	}
	withRole := func(role auth.Role, next http.HandlerFunc) http.Handler {
		return requireAuth(limit(middleware.RequireRole(role)(http.HandlerFunc(next))))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/authenticate", h.Authenticate)

	mux.Handle("POST /api/plan", withRole(auth.RolePublish, h.SubmitPlan))
	mux.Handle("GET /api/plan/{dataset_id}", withAuth(h.GetPlan))
	mux.Handle("GET /api/plan/search", withAuth(h.SearchPlans))
	mux.Handle("PUT /api/plan/{dataset_id}/pause", withRole(auth.RolePause, h.PauseDataset))
	mux.Handle("PUT /api/plan/{dataset_id}/unpause", withRole(auth.RolePause, h.UnpauseDataset))

	mux.Handle("PUT /api/data_product/{dataset_id}/update", withRole(auth.RoleUpdate, h.UpdateDataProducts))
	mux.Handle("PUT /api/data_product/{dataset_id}/clear", withRole(auth.RoleUpdate, h.ClearDataProducts))
	mux.Handle("DELETE /api/data_product/{dataset_id}", withRole(auth.RoleDisable, h.DisableDataProducts))

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /spec", h.Spec)
	mux.HandleFunc("GET /swagger", h.Swagger)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
