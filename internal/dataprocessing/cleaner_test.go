package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailetl/pkg/contracts/domain"
)

func rawRecord(mutate func(*domain.RawRecord)) domain.RawRecord {
	r := domain.RawRecord{
		Invoice:     "536365",
		StockCode:   "85123A",
		Description: "WHITE HANGING HEART T-LIGHT HOLDER",
		Quantity:    6,
		Price:       decimal.RequireFromString("2.55"),
		CustomerID:  "17850",
		Country:     "United Kingdom",
		InvoiceDate: "2010-12-01 08:26",
	}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func TestCleaner_Clean_ValidRecord(t *testing.T) {
	c := NewCleaner(nil)

	records, stats := c.Clean(context.Background(), []domain.RawRecord{rawRecord(nil)})
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "536365", got.Invoice)
	assert.Equal(t, int64(17850), got.CustomerID)
	assert.Equal(t, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), got.InvoiceDate)
	assert.Equal(t, 1, stats.RowsIn)
	assert.Equal(t, 1, stats.AfterQuantityPrice)
}

func TestCleaner_Clean_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RawRecord)
	}{
		{"unparsable timestamp", func(r *domain.RawRecord) { r.InvoiceDate = "not-a-date" }},
		{"empty timestamp", func(r *domain.RawRecord) { r.InvoiceDate = "" }},
		{"missing customer id", func(r *domain.RawRecord) { r.CustomerID = "" }},
		{"cancellation invoice", func(r *domain.RawRecord) { r.Invoice = "C536366" }},
		{"negative quantity", func(r *domain.RawRecord) { r.Quantity = -3 }},
		{"zero quantity", func(r *domain.RawRecord) { r.Quantity = 0 }},
		{"zero price", func(r *domain.RawRecord) { r.Price = decimal.Zero }},
		{"negative price", func(r *domain.RawRecord) { r.Price = decimal.RequireFromString("-2.55") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCleaner(nil)
			records, _ := c.Clean(context.Background(), []domain.RawRecord{rawRecord(tt.mutate)})
			assert.Empty(t, records)
		})
	}
}

func TestCleaner_Clean_RowFailingMultipleRules(t *testing.T) {
	// A cancellation with a refund quantity fails two rules; it is dropped
	// exactly once.
	row := rawRecord(func(r *domain.RawRecord) {
		r.Invoice = "C536366"
		r.Quantity = -6
	})

	c := NewCleaner(nil)
	records, stats := c.Clean(context.Background(), []domain.RawRecord{row, rawRecord(nil)})

	require.Len(t, records, 1)
	assert.Equal(t, "536365", records[0].Invoice)
	assert.Equal(t, 2, stats.RowsIn)
	assert.Equal(t, 2, stats.AfterTimestamp)
	assert.Equal(t, 2, stats.AfterCustomerID)
	assert.Equal(t, 1, stats.AfterCancellation)
	assert.Equal(t, 1, stats.AfterQuantityPrice)
}

func TestCleaner_Clean_InvariantPreserved(t *testing.T) {
	raw := []domain.RawRecord{
		rawRecord(nil),
		rawRecord(func(r *domain.RawRecord) { r.Invoice = "C536366" }),
		rawRecord(func(r *domain.RawRecord) { r.CustomerID = "" }),
		rawRecord(func(r *domain.RawRecord) { r.Quantity = -1 }),
		rawRecord(func(r *domain.RawRecord) { r.Invoice = "536370"; r.CustomerID = "12583.0" }),
	}

	c := NewCleaner(nil)
	records, _ := c.Clean(context.Background(), raw)

	require.Len(t, records, 2)
	for _, r := range records {
		assert.Greater(t, r.Quantity, int64(0))
		assert.True(t, r.Price.IsPositive())
		assert.NotZero(t, r.CustomerID)
		assert.False(t, r.InvoiceDate.IsZero())
		assert.NotEqual(t, domain.CancellationPrefix, r.Invoice[:1])
	}
}

func TestCleaner_Clean_Idempotent(t *testing.T) {
	raw := []domain.RawRecord{
		rawRecord(nil),
		rawRecord(func(r *domain.RawRecord) { r.Invoice = "536367"; r.CustomerID = "12583.0" }),
	}

	c := NewCleaner(nil)
	first, firstStats := c.Clean(context.Background(), raw)
	second, secondStats := c.Clean(context.Background(), raw)

	assert.Equal(t, first, second)
	assert.Equal(t, firstStats, secondStats)
}

func TestParseCustomerID(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"17850", 17850, true},
		{"17850.0", 17850, true},
		{" 17850 ", 17850, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseCustomerID(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseInvoiceDate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   time.Time
		wantOK bool
	}{
		{"minute precision", "2010-12-01 08:26", time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), true},
		{"second precision", "2010-12-01 08:26:30", time.Date(2010, 12, 1, 8, 26, 30, 0, time.UTC), true},
		{"slash format", "12/01/2010 08:26", time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), true},
		{"garbage", "yesterday", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseInvoiceDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
