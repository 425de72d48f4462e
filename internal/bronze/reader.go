// Package bronze reads the raw point-of-sale extract.
//
// The extract is delimited text with a header row whose column names vary in
// casing and spacing between vendor exports. Headers are normalized to
// lower-case snake_case before column lookup, so "Customer ID", "customer id"
// and "CUSTOMER_ID" all resolve to the same column.
package bronze

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "retailetl/internal/errors"
	"retailetl/pkg/contracts/domain"
)

// Canonical column names after header normalization.
const (
	colInvoice     = "invoice"
	colStockCode   = "stockcode"
	colDescription = "description"
	colQuantity    = "quantity"
	colPrice       = "price"
	colCustomerID  = "customer_id"
	colCountry     = "country"
	colInvoiceDate = "invoicedate"
)

var requiredColumns = []string{
	colInvoice, colStockCode, colDescription, colQuantity,
	colPrice, colCustomerID, colCountry, colInvoiceDate,
}

// Reader reads RawRecords from the bronze CSV extract.
type Reader struct {
	logger    *slog.Logger
	delimiter rune
}

// NewReader creates a bronze reader. A nil logger falls back to the default.
func NewReader(logger *slog.Logger, delimiter rune) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &Reader{
		logger:    logger.With(slog.String("component", "bronze_reader")),
		delimiter: delimiter,
	}
}

// ReadFile reads the extract at path. A missing or unreadable file is a
// fatal, typed error: the pipeline run aborts before producing any output.
func (r *Reader) ReadFile(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("bronze file %s", path))
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open bronze file %s", path), err)
	}
	defer f.Close()

	return r.Read(f)
}

// Read parses the extract from the given reader.
func (r *Reader) Read(src io.Reader) ([]domain.RawRecord, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read header row", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	var malformed int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read row at line %d", line), err)
		}

		record, err := parseRow(row, columns)
		if err != nil {
			malformed++
			r.logger.Warn("skipping malformed row",
				slog.Int("line", line),
				slog.String("error", err.Error()))
			continue
		}
		records = append(records, record)
	}

	r.logger.Info("raw data loaded",
		slog.Int("rows", len(records)),
		slog.Int("malformed_rows", malformed))

	return records, nil
}

// NormalizeHeader converts a raw column name to its canonical form:
// lower-case with spaces replaced by underscores.
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, " ", "_")
}

// mapColumns resolves each required canonical column to its index in the
// header row.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[NormalizeHeader(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int) (domain.RawRecord, error) {
	field := func(name string) string {
		idx := columns[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	quantity, err := strconv.ParseInt(field(colQuantity), 10, 64)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("invalid quantity %q: %w", field(colQuantity), err)
	}

	price, err := decimal.NewFromString(field(colPrice))
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("invalid price %q: %w", field(colPrice), err)
	}

	return domain.RawRecord{
		Invoice:     field(colInvoice),
		StockCode:   field(colStockCode),
		Description: field(colDescription),
		Quantity:    quantity,
		Price:       price,
		CustomerID:  field(colCustomerID),
		Country:     field(colCountry),
		InvoiceDate: field(colInvoiceDate),
	}, nil
}
