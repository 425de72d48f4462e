package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CancellationPrefix marks an invoice identifier as a cancelled (refunded)
// transaction in the source extract.
const CancellationPrefix = "C"

// RawRecord is a single line item as read from the bronze extract, before
// any validation. CustomerID is kept as the raw string because the source
// leaves it empty for anonymous sales and formats it as a decimal otherwise.
type RawRecord struct {
	Invoice     string          `json:"invoice"`
	StockCode   string          `json:"stock_code"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CustomerID  string          `json:"customer_id"`
	Country     string          `json:"country"`
	InvoiceDate string          `json:"invoice_date"`
}

// IsCancellation reports whether the invoice identifier denotes a cancelled
// transaction.
func (r RawRecord) IsCancellation() bool {
	return strings.HasPrefix(r.Invoice, CancellationPrefix)
}

// CleanRecord is a validated and enriched line item, the unit of the silver
// dataset. Field order matches the persisted column order.
//
// Every CleanRecord satisfies: Quantity > 0, Price > 0, CustomerID present,
// InvoiceDate valid, Invoice not a cancellation.
type CleanRecord struct {
	Invoice          string          `json:"invoice"`
	StockCode        string          `json:"stock_code"`
	Description      string          `json:"description"`
	Quantity         int64           `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	CustomerID       int64           `json:"customer_id"`
	Country          string          `json:"country"`
	InvoiceDate      time.Time       `json:"invoice_date"`
	InvoiceYear      int             `json:"invoice_year"`
	InvoiceMonth     int             `json:"invoice_month"`
	InvoiceDayOfWeek int             `json:"invoice_day_of_week"`
	InvoiceHour      int             `json:"invoice_hour"`
}

// MonthStart returns the first day of the record's invoice month, the
// grouping key for the monthly sales report.
func (r CleanRecord) MonthStart() time.Time {
	return time.Date(r.InvoiceDate.Year(), r.InvoiceDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}
