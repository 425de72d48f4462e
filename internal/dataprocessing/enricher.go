package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"retailetl/pkg/contracts/domain"
)

// Enricher derives the computed fields of a CleanRecord: total price and
// the calendar components of the invoice timestamp. It never filters.
type Enricher struct {
	logger *slog.Logger
}

// NewEnricher creates an enricher. A nil logger falls back to the default.
func NewEnricher(logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{logger: logger.With(slog.String("component", "enricher"))}
}

// Enrich fills the derived fields on each record and returns the slice.
// Day of week uses the Monday=0 convention; hour is 0-23.
func (e *Enricher) Enrich(ctx context.Context, records []domain.CleanRecord) []domain.CleanRecord {
	for i := range records {
		r := &records[i]
		r.TotalPrice = r.Price.Mul(decimal.NewFromInt(r.Quantity))
		r.InvoiceYear = r.InvoiceDate.Year()
		r.InvoiceMonth = int(r.InvoiceDate.Month())
		r.InvoiceDayOfWeek = mondayIndexed(r.InvoiceDate.Weekday())
		r.InvoiceHour = r.InvoiceDate.Hour()
	}

	e.logger.InfoContext(ctx, "derived total_price and date components",
		slog.Int("rows", len(records)))

	return records
}

// mondayIndexed converts Go's Sunday=0 weekday to the Monday=0 convention.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}
