// Package silver persists the cleaned, enriched dataset as a columnar
// parquet snapshot. The snapshot is written once per pipeline run,
// overwriting the previous run's file, and read back by the gold stage,
// possibly in a separate process.
package silver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	apperrors "retailetl/internal/errors"
	"retailetl/pkg/contracts/domain"
)

// snapshotRow is the on-disk shape of a CleanRecord. Monetary values are
// stored as canonical decimal strings so sums computed after a round trip
// stay exact.
type snapshotRow struct {
	Invoice          string    `parquet:"invoice"`
	StockCode        string    `parquet:"stockcode"`
	Description      string    `parquet:"description"`
	Quantity         int64     `parquet:"quantity"`
	Price            string    `parquet:"price"`
	TotalPrice       string    `parquet:"total_price"`
	CustomerID       int64     `parquet:"customer_id"`
	Country          string    `parquet:"country"`
	InvoiceDate      time.Time `parquet:"invoicedate,timestamp(millisecond)"`
	InvoiceYear      int32     `parquet:"invoice_year"`
	InvoiceMonth     int32     `parquet:"invoice_month"`
	InvoiceDayOfWeek int32     `parquet:"invoice_day_of_week"`
	InvoiceHour      int32     `parquet:"invoice_hour"`
}

// Store reads and writes the silver snapshot at a fixed path.
type Store struct {
	logger *slog.Logger
	path   string
}

// NewStore creates a silver store for the snapshot at path.
func NewStore(logger *slog.Logger, path string) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger.With(slog.String("component", "silver_store")),
		path:   path,
	}
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Write persists the records, replacing any previous snapshot. The file is
// written to a temporary sibling first and renamed into place so a crashed
// run never leaves a truncated snapshot behind.
func (s *Store) Write(ctx context.Context, records []domain.CleanRecord) error {
	s.logger.InfoContext(ctx, "saving cleaned and enriched data in parquet format",
		slog.String("path", s.path),
		slog.Int("rows", len(records)))

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create silver directory", err)
	}

	rows := make([]snapshotRow, len(records))
	for i, r := range records {
		rows[i] = toSnapshotRow(r)
	}

	tmp := s.path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError("failed to write silver snapshot", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError("failed to replace silver snapshot", err)
	}

	return nil
}

// Read loads the full snapshot. A missing snapshot is a typed not-found
// error: the gold stage treats it as fatal before anything is persisted.
func (s *Store) Read(ctx context.Context) ([]domain.CleanRecord, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("silver snapshot %s", s.path))
	}

	rows, err := parquet.ReadFile[snapshotRow](s.path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read silver snapshot", err)
	}

	records := make([]domain.CleanRecord, len(rows))
	for i, row := range rows {
		record, err := fromSnapshotRow(row)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("invalid silver row %d", i), err)
		}
		records[i] = record
	}

	s.logger.InfoContext(ctx, "reading cleaned data from silver layer",
		slog.String("path", s.path),
		slog.Int("rows", len(records)))

	return records, nil
}

func toSnapshotRow(r domain.CleanRecord) snapshotRow {
	return snapshotRow{
		Invoice:          r.Invoice,
		StockCode:        r.StockCode,
		Description:      r.Description,
		Quantity:         r.Quantity,
		Price:            r.Price.String(),
		TotalPrice:       r.TotalPrice.String(),
		CustomerID:       r.CustomerID,
		Country:          r.Country,
		InvoiceDate:      r.InvoiceDate.UTC(),
		InvoiceYear:      int32(r.InvoiceYear),
		InvoiceMonth:     int32(r.InvoiceMonth),
		InvoiceDayOfWeek: int32(r.InvoiceDayOfWeek),
		InvoiceHour:      int32(r.InvoiceHour),
	}
}

func fromSnapshotRow(row snapshotRow) (domain.CleanRecord, error) {
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return domain.CleanRecord{}, fmt.Errorf("invalid price %q: %w", row.Price, err)
	}
	totalPrice, err := decimal.NewFromString(row.TotalPrice)
	if err != nil {
		return domain.CleanRecord{}, fmt.Errorf("invalid total_price %q: %w", row.TotalPrice, err)
	}

	return domain.CleanRecord{
		Invoice:          row.Invoice,
		StockCode:        row.StockCode,
		Description:      row.Description,
		Quantity:         row.Quantity,
		Price:            price,
		TotalPrice:       totalPrice,
		CustomerID:       row.CustomerID,
		Country:          row.Country,
		InvoiceDate:      row.InvoiceDate.UTC(),
		InvoiceYear:      int(row.InvoiceYear),
		InvoiceMonth:     int(row.InvoiceMonth),
		InvoiceDayOfWeek: int(row.InvoiceDayOfWeek),
		InvoiceHour:      int(row.InvoiceHour),
	}, nil
}
