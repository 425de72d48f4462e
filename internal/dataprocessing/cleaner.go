package dataprocessing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"retailetl/pkg/contracts/domain"
)

// Timestamp layouts accepted for the invoice date column, tried in order.
var invoiceDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
}

// CleanStats reports surviving row counts after each cleaning rule. The
// counts are operational visibility only; they never affect control flow.
type CleanStats struct {
	RowsIn             int `json:"rows_in"`
	AfterTimestamp     int `json:"after_timestamp"`
	AfterCustomerID    int `json:"after_customer_id"`
	AfterCancellation  int `json:"after_cancellation"`
	AfterQuantityPrice int `json:"after_quantity_price"`
}

// Cleaner validates raw extract rows into CleanRecords.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to the default.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Clean applies the validation rules in order, logging the surviving row
// count after each rule. Rows failing any rule are silently dropped.
//
// Returned records have a valid parsed timestamp and an integer customer id
// but no derived fields yet; see Enricher.
func (c *Cleaner) Clean(ctx context.Context, raw []domain.RawRecord) ([]domain.CleanRecord, CleanStats) {
	stats := CleanStats{RowsIn: len(raw)}

	type parsedRow struct {
		raw         domain.RawRecord
		invoiceDate time.Time
		customerID  int64
	}

	// Rule: parse the invoice timestamp, dropping unparsable rows.
	rows := make([]parsedRow, 0, len(raw))
	for _, r := range raw {
		ts, ok := parseInvoiceDate(r.InvoiceDate)
		if !ok {
			continue
		}
		rows = append(rows, parsedRow{raw: r, invoiceDate: ts})
	}
	stats.AfterTimestamp = len(rows)
	c.logger.InfoContext(ctx, "standardized column names and converted dates",
		slog.Int("rows", stats.AfterTimestamp))

	// Rule: drop rows without a customer id, coerce the rest to integer.
	withCustomer := rows[:0]
	for _, row := range rows {
		id, ok := parseCustomerID(row.raw.CustomerID)
		if !ok {
			continue
		}
		row.customerID = id
		withCustomer = append(withCustomer, row)
	}
	rows = withCustomer
	stats.AfterCustomerID = len(rows)
	c.logger.InfoContext(ctx, "removed lines without customer_id",
		slog.Int("rows", stats.AfterCustomerID))

	// Rule: drop cancelled transactions.
	kept := rows[:0]
	for _, row := range rows {
		if row.raw.IsCancellation() {
			continue
		}
		kept = append(kept, row)
	}
	rows = kept
	stats.AfterCancellation = len(rows)
	c.logger.InfoContext(ctx, "removed cancelled transactions",
		slog.Int("rows", stats.AfterCancellation))

	// Rule: drop rows with non-positive quantity or price.
	records := make([]domain.CleanRecord, 0, len(rows))
	for _, row := range rows {
		if row.raw.Quantity <= 0 || !row.raw.Price.IsPositive() {
			continue
		}
		records = append(records, domain.CleanRecord{
			Invoice:     row.raw.Invoice,
			StockCode:   row.raw.StockCode,
			Description: row.raw.Description,
			Quantity:    row.raw.Quantity,
			Price:       row.raw.Price,
			CustomerID:  row.customerID,
			Country:     row.raw.Country,
			InvoiceDate: row.invoiceDate,
		})
	}
	stats.AfterQuantityPrice = len(records)
	c.logger.InfoContext(ctx, "removed items with invalid quantity or price",
		slog.Int("rows", stats.AfterQuantityPrice))

	return records, stats
}

// parseInvoiceDate parses the raw timestamp, trying each accepted layout.
func parseInvoiceDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range invoiceDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseCustomerID coerces the raw customer id to an integer. The source
// stores it as a decimal ("17850.0"), so a trailing fractional part of zero
// is accepted.
func parseCustomerID(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
