package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gold table names produced by each pipeline run and read by the query
// surface.
const (
	TableMonthlySales   = "monthly_sales"
	TableSalesByCountry = "sales_by_country"
	TableTopCustomers   = "top_customers"
	TableTopProducts    = "top_products"
)

// MonthlySalesRow is one calendar month of sales activity.
type MonthlySalesRow struct {
	InvoiceDate       time.Time       `json:"invoicedate"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalTransactions int64           `json:"total_transactions"`
	ActiveCustomers   int64           `json:"active_customers"`
	InvoiceMonth      string          `json:"invoice_month"`
}

// CountrySalesRow is aggregate sales for one country, ordered by revenue.
type CountrySalesRow struct {
	Country           string          `json:"country"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalTransactions int64           `json:"total_transactions"`
}

// TopCustomerRow is one of the highest-revenue customers.
type TopCustomerRow struct {
	CustomerID        int64           `json:"customer_id"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalTransactions int64           `json:"total_transactions"`
}

// TopProductRow is one of the best-selling products. Products are keyed by
// the (stock code, description) pair: the same stock code can appear under
// two descriptions and counts as two products.
type TopProductRow struct {
	StockCode    string          `json:"stockcode"`
	Description  string          `json:"description"`
	UnitsSold    int64           `json:"units_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
