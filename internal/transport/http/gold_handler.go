// Package http exposes the read-only query surface over the gold tables.
// Each endpoint is an unconditional full read of one precomputed table.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "retailetl/internal/errors"
	"retailetl/pkg/contracts/domain"
)

// GoldServiceInterface is the service contract the handler depends on.
type GoldServiceInterface interface {
	MonthlySales(ctx context.Context) ([]domain.MonthlySalesRow, error)
	SalesByCountry(ctx context.Context) ([]domain.CountrySalesRow, error)
	TopCustomers(ctx context.Context) ([]domain.TopCustomerRow, error)
	TopProducts(ctx context.Context) ([]domain.TopProductRow, error)
}

// DegradedResponse is returned from every data endpoint when the database
// connection was never established at startup.
type DegradedResponse struct {
	Error string `json:"error"`
}

const degradedMessage = "Connection with database is unavailable."

// GoldHandler serves the four gold table endpoints. A nil service means the
// process is running degraded: every endpoint answers with an explicit
// error payload instead of failing.
type GoldHandler struct {
	service GoldServiceInterface
	logger  *slog.Logger
}

// NewGoldHandler creates a gold handler. service may be nil (degraded mode).
func NewGoldHandler(service GoldServiceInterface, logger *slog.Logger) *GoldHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoldHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "gold")),
	}
}

// Routes returns the gold data routes.
func (h *GoldHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/sales/monthly", h.GetMonthlySales)
	r.Get("/sales/by-country", h.GetSalesByCountry)
	r.Get("/customers/top", h.GetTopCustomers)
	r.Get("/products/top", h.GetTopProducts)

	return r
}

// degraded answers with the database-unavailable payload when no connection
// exists. Returns true if the request was handled.
func (h *GoldHandler) degraded(w http.ResponseWriter, r *http.Request) bool {
	if h.service != nil {
		return false
	}
	render.JSON(w, r, DegradedResponse{Error: degradedMessage})
	return true
}

// GetMonthlySales serves GET /sales/monthly.
func (h *GoldHandler) GetMonthlySales(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r) {
		return
	}
	rows, err := h.service.MonthlySales(r.Context())
	if err != nil {
		h.renderError(w, r, "monthly_sales", err)
		return
	}
	render.JSON(w, r, emptyAsList(rows))
}

// GetSalesByCountry serves GET /sales/by-country.
func (h *GoldHandler) GetSalesByCountry(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r) {
		return
	}
	rows, err := h.service.SalesByCountry(r.Context())
	if err != nil {
		h.renderError(w, r, "sales_by_country", err)
		return
	}
	render.JSON(w, r, emptyAsList(rows))
}

// GetTopCustomers serves GET /customers/top.
func (h *GoldHandler) GetTopCustomers(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r) {
		return
	}
	rows, err := h.service.TopCustomers(r.Context())
	if err != nil {
		h.renderError(w, r, "top_customers", err)
		return
	}
	render.JSON(w, r, emptyAsList(rows))
}

// GetTopProducts serves GET /products/top.
func (h *GoldHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r) {
		return
	}
	rows, err := h.service.TopProducts(r.Context())
	if err != nil {
		h.renderError(w, r, "top_products", err)
		return
	}
	render.JSON(w, r, emptyAsList(rows))
}

func (h *GoldHandler) renderError(w http.ResponseWriter, r *http.Request, table string, err error) {
	h.logger.ErrorContext(r.Context(), "failed to serve gold table",
		slog.String("table", table),
		slog.String("error", err.Error()))
	apiErr := apierrors.New(http.StatusInternalServerError, "TABLE_READ_FAILED",
		"Failed to read "+table+".")
	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error response",
			slog.String("error", renderErr.Error()))
	}
}

// emptyAsList keeps empty results serialized as [] rather than null.
func emptyAsList[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
