// Package storage persists the gold aggregate tables in PostgreSQL and
// serves the query surface's full-table reads.
//
// Each table load is a full replace inside its own transaction: drop,
// recreate, bulk copy. There is no cross-table transaction; a run that
// fails between loads leaves earlier tables from the new run and later
// tables from the previous one.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retailetl/internal/config"
	apperrors "retailetl/internal/errors"
	"retailetl/pkg/contracts/domain"
)

// Connect establishes the process-wide connection pool with bounded retry:
// cfg.ConnectRetries attempts with a fixed cfg.ConnectDelay between them.
// After exhaustion the last error is returned; the caller decides whether
// that is fatal (pipeline) or degraded mode (query surface).
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, apperrors.NewConfigError("failed to parse database URL", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				logger.InfoContext(ctx, "connected to database",
					slog.String("host", cfg.Host),
					slog.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.WarnContext(ctx, "failed to connect to database",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.ConnectRetries),
			slog.String("error", err.Error()))
		if attempt < cfg.ConnectRetries {
			select {
			case <-time.After(cfg.ConnectDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, apperrors.NewStorageError(
		fmt.Sprintf("failed to connect to database after %d attempts", cfg.ConnectRetries), lastErr)
}

// Store loads and reads the gold tables.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a gold store over an established pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:   pool,
		logger: logger.With(slog.String("component", "gold_store")),
	}
}

// replaceTable drops and recreates a table, then bulk-copies the rows, all
// inside one transaction.
func (s *Store) replaceTable(ctx context.Context, table, createSQL string, columns []string, rows [][]any) error {
	s.logger.InfoContext(ctx, "loading table",
		slog.String("table", table),
		slog.Int("rows", len(rows)))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to begin transaction for %s", table), err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to drop %s", table), err)
	}
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", table), err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to copy rows into %s", table), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to commit %s", table), err)
	}

	return nil
}

// ReplaceMonthlySales fully replaces the monthly_sales table.
func (s *Store) ReplaceMonthlySales(ctx context.Context, rows []domain.MonthlySalesRow) error {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{r.InvoiceDate, r.TotalRevenue, r.TotalTransactions, r.ActiveCustomers, r.InvoiceMonth}
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %s (
		invoicedate timestamptz NOT NULL,
		total_revenue numeric NOT NULL,
		total_transactions bigint NOT NULL,
		active_customers bigint NOT NULL,
		invoice_month text NOT NULL
	)`, domain.TableMonthlySales)
	columns := []string{"invoicedate", "total_revenue", "total_transactions", "active_customers", "invoice_month"}
	return s.replaceTable(ctx, domain.TableMonthlySales, createSQL, columns, values)
}

// ReplaceSalesByCountry fully replaces the sales_by_country table.
func (s *Store) ReplaceSalesByCountry(ctx context.Context, rows []domain.CountrySalesRow) error {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{r.Country, r.TotalRevenue, r.TotalTransactions}
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %s (
		country text NOT NULL,
		total_revenue numeric NOT NULL,
		total_transactions bigint NOT NULL
	)`, domain.TableSalesByCountry)
	columns := []string{"country", "total_revenue", "total_transactions"}
	return s.replaceTable(ctx, domain.TableSalesByCountry, createSQL, columns, values)
}

// ReplaceTopCustomers fully replaces the top_customers table.
func (s *Store) ReplaceTopCustomers(ctx context.Context, rows []domain.TopCustomerRow) error {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{r.CustomerID, r.TotalRevenue, r.TotalTransactions}
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %s (
		customer_id bigint NOT NULL,
		total_revenue numeric NOT NULL,
		total_transactions bigint NOT NULL
	)`, domain.TableTopCustomers)
	columns := []string{"customer_id", "total_revenue", "total_transactions"}
	return s.replaceTable(ctx, domain.TableTopCustomers, createSQL, columns, values)
}

// ReplaceTopProducts fully replaces the top_products table.
func (s *Store) ReplaceTopProducts(ctx context.Context, rows []domain.TopProductRow) error {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{r.StockCode, r.Description, r.UnitsSold, r.TotalRevenue}
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %s (
		stockcode text NOT NULL,
		description text NOT NULL,
		units_sold bigint NOT NULL,
		total_revenue numeric NOT NULL
	)`, domain.TableTopProducts)
	columns := []string{"stockcode", "description", "units_sold", "total_revenue"}
	return s.replaceTable(ctx, domain.TableTopProducts, createSQL, columns, values)
}

// GetMonthlySales reads the full monthly_sales table ordered by month.
func (s *Store) GetMonthlySales(ctx context.Context) ([]domain.MonthlySalesRow, error) {
	query := fmt.Sprintf(`SELECT invoicedate, total_revenue, total_transactions, active_customers, invoice_month
		FROM %s ORDER BY invoicedate`, domain.TableMonthlySales)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query monthly_sales", err)
	}
	defer rows.Close()

	var out []domain.MonthlySalesRow
	for rows.Next() {
		var r domain.MonthlySalesRow
		if err := rows.Scan(&r.InvoiceDate, &r.TotalRevenue, &r.TotalTransactions, &r.ActiveCustomers, &r.InvoiceMonth); err != nil {
			return nil, apperrors.NewStorageError("failed to scan monthly_sales row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSalesByCountry reads the full sales_by_country table ordered by revenue
// descending.
func (s *Store) GetSalesByCountry(ctx context.Context) ([]domain.CountrySalesRow, error) {
	query := fmt.Sprintf(`SELECT country, total_revenue, total_transactions
		FROM %s ORDER BY total_revenue DESC`, domain.TableSalesByCountry)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query sales_by_country", err)
	}
	defer rows.Close()

	var out []domain.CountrySalesRow
	for rows.Next() {
		var r domain.CountrySalesRow
		if err := rows.Scan(&r.Country, &r.TotalRevenue, &r.TotalTransactions); err != nil {
			return nil, apperrors.NewStorageError("failed to scan sales_by_country row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTopCustomers reads the full top_customers table ordered by revenue
// descending.
func (s *Store) GetTopCustomers(ctx context.Context) ([]domain.TopCustomerRow, error) {
	query := fmt.Sprintf(`SELECT customer_id, total_revenue, total_transactions
		FROM %s ORDER BY total_revenue DESC`, domain.TableTopCustomers)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query top_customers", err)
	}
	defer rows.Close()

	var out []domain.TopCustomerRow
	for rows.Next() {
		var r domain.TopCustomerRow
		if err := rows.Scan(&r.CustomerID, &r.TotalRevenue, &r.TotalTransactions); err != nil {
			return nil, apperrors.NewStorageError("failed to scan top_customers row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTopProducts reads the full top_products table ordered by units sold
// descending.
func (s *Store) GetTopProducts(ctx context.Context) ([]domain.TopProductRow, error) {
	query := fmt.Sprintf(`SELECT stockcode, description, units_sold, total_revenue
		FROM %s ORDER BY units_sold DESC`, domain.TableTopProducts)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query top_products", err)
	}
	defer rows.Close()

	var out []domain.TopProductRow
	for rows.Next() {
		var r domain.TopProductRow
		if err := rows.Scan(&r.StockCode, &r.Description, &r.UnitsSold, &r.TotalRevenue); err != nil {
			return nil, apperrors.NewStorageError("failed to scan top_products row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
