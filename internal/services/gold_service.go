package services

import (
	"context"
	"log/slog"

	"retailetl/pkg/contracts/domain"
)

// GoldReader is the storage contract the gold service depends on. It is
// satisfied by storage.Store and by in-memory fakes in tests.
type GoldReader interface {
	GetMonthlySales(ctx context.Context) ([]domain.MonthlySalesRow, error)
	GetSalesByCountry(ctx context.Context) ([]domain.CountrySalesRow, error)
	GetTopCustomers(ctx context.Context) ([]domain.TopCustomerRow, error)
	GetTopProducts(ctx context.Context) ([]domain.TopProductRow, error)
	Ping(ctx context.Context) error
}

// GoldService provides read-only access to the gold aggregate tables for
// the query surface.
type GoldService struct {
	reader GoldReader
	logger *slog.Logger
}

// NewGoldService creates a gold service over an established reader.
func NewGoldService(reader GoldReader, logger *slog.Logger) *GoldService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoldService{
		reader: reader,
		logger: logger.With(slog.String("service", "gold")),
	}
}

// MonthlySales returns the full monthly sales table ordered by month.
func (s *GoldService) MonthlySales(ctx context.Context) ([]domain.MonthlySalesRow, error) {
	rows, err := s.reader.GetMonthlySales(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read monthly sales", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "monthly sales read", slog.Int("rows", len(rows)))
	return rows, nil
}

// SalesByCountry returns the full country sales table.
func (s *GoldService) SalesByCountry(ctx context.Context) ([]domain.CountrySalesRow, error) {
	rows, err := s.reader.GetSalesByCountry(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read sales by country", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "sales by country read", slog.Int("rows", len(rows)))
	return rows, nil
}

// TopCustomers returns the full top customers table.
func (s *GoldService) TopCustomers(ctx context.Context) ([]domain.TopCustomerRow, error) {
	rows, err := s.reader.GetTopCustomers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read top customers", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "top customers read", slog.Int("rows", len(rows)))
	return rows, nil
}

// TopProducts returns the full top products table.
func (s *GoldService) TopProducts(ctx context.Context) ([]domain.TopProductRow, error) {
	rows, err := s.reader.GetTopProducts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read top products", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "top products read", slog.Int("rows", len(rows)))
	return rows, nil
}

// Healthy reports whether the gold store is reachable.
func (s *GoldService) Healthy(ctx context.Context) bool {
	return s.reader.Ping(ctx) == nil
}
