// Package router sets up all HTTP routes and middleware chains for the
// marketplace category API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"marketplace/internal/handlers"
	"marketplace/internal/logger"
	"marketplace/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. limiter guards the mutating routes and may be
// nil.
func New(log logger.Logger, categories *handlers.Categories, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", categories.List)
		r.Get("/tree", categories.Tree)
		r.Get("/flat", categories.Flat)
		r.Get("/export.xlsx", categories.Export)
		r.Get("/{id}", categories.Get)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/", categories.Create)
			r.Post("/reorder", categories.Reorder)
			r.Post("/exports", categories.Upload)
			r.Put("/{id}", categories.Update)
			r.Delete("/{id}", categories.Delete)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
