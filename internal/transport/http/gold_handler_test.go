package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailetl/pkg/contracts/domain"
)

type fakeGoldService struct {
	monthly   []domain.MonthlySalesRow
	countries []domain.CountrySalesRow
	customers []domain.TopCustomerRow
	products  []domain.TopProductRow
	err       error
}

func (f *fakeGoldService) MonthlySales(ctx context.Context) ([]domain.MonthlySalesRow, error) {
	return f.monthly, f.err
}

func (f *fakeGoldService) SalesByCountry(ctx context.Context) ([]domain.CountrySalesRow, error) {
	return f.countries, f.err
}

func (f *fakeGoldService) TopCustomers(ctx context.Context) ([]domain.TopCustomerRow, error) {
	return f.customers, f.err
}

func (f *fakeGoldService) TopProducts(ctx context.Context) ([]domain.TopProductRow, error) {
	return f.products, f.err
}

var goldEndpoints = []string{
	"/sales/monthly",
	"/sales/by-country",
	"/customers/top",
	"/products/top",
}

func TestGoldHandler_DegradedMode(t *testing.T) {
	// A nil service means the startup connection retries were exhausted.
	h := NewGoldHandler(nil, nil)
	router := h.Routes()

	for _, endpoint := range goldEndpoints {
		t.Run(endpoint, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, endpoint, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)

			var payload DegradedResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, "Connection with database is unavailable.", payload.Error)
		})
	}
}

func TestGoldHandler_GetMonthlySales(t *testing.T) {
	svc := &fakeGoldService{monthly: []domain.MonthlySalesRow{{
		InvoiceDate:       time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC),
		TotalRevenue:      decimal.RequireFromString("15.30"),
		TotalTransactions: 1,
		ActiveCustomers:   1,
		InvoiceMonth:      "2010-12",
	}}}
	h := NewGoldHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/sales/monthly", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2010-12", rows[0]["invoice_month"])
	assert.Equal(t, float64(1), rows[0]["total_transactions"])
}

func TestGoldHandler_GetTopProducts(t *testing.T) {
	svc := &fakeGoldService{products: []domain.TopProductRow{{
		StockCode:    "85123A",
		Description:  "WHITE HANGING HEART T-LIGHT HOLDER",
		UnitsSold:    2369,
		TotalRevenue: decimal.RequireFromString("6028.35"),
	}}}
	h := NewGoldHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/top", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "85123A", rows[0]["stockcode"])
}

func TestGoldHandler_EmptyTableServesEmptyList(t *testing.T) {
	h := NewGoldHandler(&fakeGoldService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/customers/top", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGoldHandler_ReadError(t *testing.T) {
	h := NewGoldHandler(&fakeGoldService{err: errors.New("table missing")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sales/by-country", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var payload struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "TABLE_READ_FAILED", payload.ErrorCode)
	assert.Contains(t, payload.Message, "sales_by_country")
}

type fakeHealthService struct{ healthy bool }

func (f *fakeHealthService) Healthy(ctx context.Context) bool { return f.healthy }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name    string
		service HealthServiceInterface
		want    string
	}{
		{"database reachable", &fakeHealthService{healthy: true}, "ok"},
		{"database down", &fakeHealthService{healthy: false}, "unavailable"},
		{"never connected", nil, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.service, nil)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, "ok", payload["status"])
			assert.Equal(t, tt.want, payload["database"])
		})
	}
}
