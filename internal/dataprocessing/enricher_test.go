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

func TestEnricher_Enrich(t *testing.T) {
	// 2010-12-01 is a Wednesday.
	records := []domain.CleanRecord{{
		Invoice:     "536365",
		Quantity:    6,
		Price:       decimal.RequireFromString("2.55"),
		CustomerID:  17850,
		InvoiceDate: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC),
	}}

	e := NewEnricher(nil)
	enriched := e.Enrich(context.Background(), records)
	require.Len(t, enriched, 1)

	got := enriched[0]
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("15.30")),
		"total_price = %s", got.TotalPrice)
	assert.Equal(t, 2010, got.InvoiceYear)
	assert.Equal(t, 12, got.InvoiceMonth)
	assert.Equal(t, 2, got.InvoiceDayOfWeek)
	assert.Equal(t, 8, got.InvoiceHour)
}

func TestEnricher_Enrich_NoFiltering(t *testing.T) {
	records := make([]domain.CleanRecord, 5)
	for i := range records {
		records[i].Price = decimal.NewFromInt(1)
		records[i].Quantity = int64(i + 1)
		records[i].InvoiceDate = time.Date(2011, 1, 4, 10, 0, 0, 0, time.UTC)
	}

	e := NewEnricher(nil)
	assert.Len(t, e.Enrich(context.Background(), records), 5)
}

func TestMondayIndexed(t *testing.T) {
	tests := []struct {
		day  time.Weekday
		want int
	}{
		{time.Monday, 0},
		{time.Tuesday, 1},
		{time.Wednesday, 2},
		{time.Thursday, 3},
		{time.Friday, 4},
		{time.Saturday, 5},
		{time.Sunday, 6},
	}

	for _, tt := range tests {
		t.Run(tt.day.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, mondayIndexed(tt.day))
		})
	}
}

func TestEnricher_Enrich_ExactDecimalProduct(t *testing.T) {
	records := []domain.CleanRecord{{
		Quantity:    3,
		Price:       decimal.RequireFromString("0.1"),
		InvoiceDate: time.Date(2011, 6, 15, 14, 30, 0, 0, time.UTC),
	}}

	e := NewEnricher(nil)
	got := e.Enrich(context.Background(), records)[0]

	// 3 * 0.1 is exactly 0.3, not a float approximation.
	assert.Equal(t, "0.3", got.TotalPrice.String())
	assert.Equal(t, 14, got.InvoiceHour)
	assert.Equal(t, 2, got.InvoiceDayOfWeek) // Wednesday
}
