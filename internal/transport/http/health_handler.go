package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthServiceInterface reports process health.
type HealthServiceInterface interface {
	Healthy(ctx context.Context) bool
}

// HealthHandler serves liveness and database reachability.
type HealthHandler struct {
	service HealthServiceInterface
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler. service may be nil when the
// process never established a database connection.
func NewHealthHandler(service HealthServiceInterface, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetHealth)
	return r
}

// GetHealth serves GET /health.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	database := "unavailable"
	if h.service != nil && h.service.Healthy(r.Context()) {
		database = "ok"
	}
	render.JSON(w, r, map[string]string{
		"status":   "ok",
		"database": database,
	})
}
