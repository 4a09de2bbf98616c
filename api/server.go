/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the ops portal

ROUTE GROUPS:
  /api/schedule          Delivery-schedule resolution (no allocation)
  /api/skus/*            SKU registry, per-SKU batches and promises
  /api/batches           Inventory batch registration
  /api/orders/*          Order lines and order-level promises
  /api/sync              Manual sync run
  /api/reset             Database reset (dev only)

SECURITY NOTE:
  No authentication middleware. The service sits on the internal ops
  network behind the gateway that authenticates staff.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Delivery-schedule resolution (calendar only, no allocation)
		r.Get("/schedule", h.GetSchedule)

		// SKU routes
		r.Route("/skus", func(r chi.Router) {
			r.Get("/", h.ListSKUs)
			r.Post("/", h.CreateSKU)
			r.Get("/{code}", h.GetSKU)
			r.Get("/{code}/batches", h.ListBatches)
			r.Get("/{code}/promise", h.GetPromise)
		})

		// Batch routes
		r.Post("/batches", h.CreateBatch)

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Post("/lines", h.CreateOrderLine)
			r.Get("/{id}/promise", h.GetOrderPromise)
		})

		// Sync routes
		r.Post("/sync", h.TriggerSync)

		// Dev only
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
