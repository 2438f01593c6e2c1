package router

import (
	"net/http"

	"github.com/commentable-dev/commentable/internal/handler"
	"github.com/commentable-dev/commentable/internal/middleware/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New creates and configures the router with all the routes.
// The comment widget is embedded on arbitrary third-party pages, so CORS
// allows any origin; the API key scopes every data-carrying call.
func New(h *handler.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Get("/monitor/", h.Monitor)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v2/comments", h.List)
	r.Post("/comments/create", h.Create)
	r.Post("/comments/preview", h.Preview)
	r.Get("/comments/delete/{commentId}/{hash}", h.Delete)

	return r
}
