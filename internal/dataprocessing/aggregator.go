package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"retailetl/pkg/contracts/domain"
)

// DefaultTopN is the row limit for the top customers and top products
// reports.
const DefaultTopN = 20

// Aggregator builds the four gold reports from the cleaned dataset. Each
// builder is pure and read-only over its input; builders may run in any
// order or concurrently.
type Aggregator struct {
	logger *slog.Logger
	topN   int
}

// NewAggregator creates an aggregator. topN <= 0 falls back to DefaultTopN.
func NewAggregator(logger *slog.Logger, topN int) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Aggregator{
		logger: logger.With(slog.String("component", "aggregator")),
		topN:   topN,
	}
}

// MonthlySales groups records by the first-of-month date of their invoice
// timestamp. Transactions count distinct invoice ids; a multi-line invoice
// counts once. Rows are ordered ascending by month.
func (a *Aggregator) MonthlySales(ctx context.Context, records []domain.CleanRecord) []domain.MonthlySalesRow {
	a.logger.InfoContext(ctx, "generating report: monthly sales")

	type group struct {
		revenue   decimal.Decimal
		invoices  map[string]struct{}
		customers map[int64]struct{}
	}

	groups := make(map[time.Time]*group)
	var months []time.Time
	for _, r := range records {
		month := r.MonthStart()
		g, ok := groups[month]
		if !ok {
			g = &group{
				revenue:   decimal.Zero,
				invoices:  make(map[string]struct{}),
				customers: make(map[int64]struct{}),
			}
			groups[month] = g
			months = append(months, month)
		}
		g.revenue = g.revenue.Add(r.TotalPrice)
		g.invoices[r.Invoice] = struct{}{}
		g.customers[r.CustomerID] = struct{}{}
	}

	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	rows := make([]domain.MonthlySalesRow, 0, len(months))
	for _, month := range months {
		g := groups[month]
		rows = append(rows, domain.MonthlySalesRow{
			InvoiceDate:       month,
			TotalRevenue:      g.revenue,
			TotalTransactions: int64(len(g.invoices)),
			ActiveCustomers:   int64(len(g.customers)),
			InvoiceMonth:      month.Format("2006-01"),
		})
	}
	return rows
}

// SalesByCountry groups records by country and orders rows by total revenue
// descending. Ties keep first-seen input order.
func (a *Aggregator) SalesByCountry(ctx context.Context, records []domain.CleanRecord) []domain.CountrySalesRow {
	a.logger.InfoContext(ctx, "generating report: sales by country")

	type group struct {
		revenue  decimal.Decimal
		invoices map[string]struct{}
	}

	groups := make(map[string]*group)
	var countries []string
	for _, r := range records {
		g, ok := groups[r.Country]
		if !ok {
			g = &group{revenue: decimal.Zero, invoices: make(map[string]struct{})}
			groups[r.Country] = g
			countries = append(countries, r.Country)
		}
		g.revenue = g.revenue.Add(r.TotalPrice)
		g.invoices[r.Invoice] = struct{}{}
	}

	rows := make([]domain.CountrySalesRow, 0, len(countries))
	for _, country := range countries {
		g := groups[country]
		rows = append(rows, domain.CountrySalesRow{
			Country:           country,
			TotalRevenue:      g.revenue,
			TotalTransactions: int64(len(g.invoices)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
	})
	return rows
}

// TopCustomers groups records by customer id and keeps the topN customers
// by total revenue descending. Fewer groups than topN yields fewer rows.
func (a *Aggregator) TopCustomers(ctx context.Context, records []domain.CleanRecord) []domain.TopCustomerRow {
	a.logger.InfoContext(ctx, "generating report: top customers", slog.Int("limit", a.topN))

	type group struct {
		revenue  decimal.Decimal
		invoices map[string]struct{}
	}

	groups := make(map[int64]*group)
	var ids []int64
	for _, r := range records {
		g, ok := groups[r.CustomerID]
		if !ok {
			g = &group{revenue: decimal.Zero, invoices: make(map[string]struct{})}
			groups[r.CustomerID] = g
			ids = append(ids, r.CustomerID)
		}
		g.revenue = g.revenue.Add(r.TotalPrice)
		g.invoices[r.Invoice] = struct{}{}
	}

	rows := make([]domain.TopCustomerRow, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		rows = append(rows, domain.TopCustomerRow{
			CustomerID:        id,
			TotalRevenue:      g.revenue,
			TotalTransactions: int64(len(g.invoices)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
	})
	if len(rows) > a.topN {
		rows = rows[:a.topN]
	}
	return rows
}

// TopProducts groups records by the (stock code, description) pair and keeps
// the topN products by units sold descending. Two rows sharing a stock code
// but differing in description are distinct groups.
func (a *Aggregator) TopProducts(ctx context.Context, records []domain.CleanRecord) []domain.TopProductRow {
	a.logger.InfoContext(ctx, "generating report: top products", slog.Int("limit", a.topN))

	type key struct {
		stockCode   string
		description string
	}
	type group struct {
		units   int64
		revenue decimal.Decimal
	}

	groups := make(map[key]*group)
	var keys []key
	for _, r := range records {
		k := key{stockCode: r.StockCode, description: r.Description}
		g, ok := groups[k]
		if !ok {
			g = &group{revenue: decimal.Zero}
			groups[k] = g
			keys = append(keys, k)
		}
		g.units += r.Quantity
		g.revenue = g.revenue.Add(r.TotalPrice)
	}

	rows := make([]domain.TopProductRow, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		rows = append(rows, domain.TopProductRow{
			StockCode:    k.stockCode,
			Description:  k.description,
			UnitsSold:    g.units,
			TotalRevenue: g.revenue,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UnitsSold > rows[j].UnitsSold
	})
	if len(rows) > a.topN {
		rows = rows[:a.topN]
	}
	return rows
}
