// Package pipeline composes the batch stages of a run: bronze extract read,
// cleaning, enrichment, silver snapshot, and the four gold table loads.
//
// A run either completes all four tables or aborts. Table loads are not
// transactional across tables: a failure mid-sequence leaves earlier tables
// from this run and later tables from the previous one. That inconsistency
// window is an accepted property of the replace-in-place policy.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"retailetl/internal/dataprocessing"
	"retailetl/pkg/contracts/domain"
)

// BronzeReader reads the raw extract.
type BronzeReader interface {
	ReadFile(path string) ([]domain.RawRecord, error)
}

// SilverStore persists and reloads the cleaned dataset.
type SilverStore interface {
	Write(ctx context.Context, records []domain.CleanRecord) error
	Read(ctx context.Context) ([]domain.CleanRecord, error)
}

// GoldLoader replaces the four gold tables.
type GoldLoader interface {
	ReplaceMonthlySales(ctx context.Context, rows []domain.MonthlySalesRow) error
	ReplaceSalesByCountry(ctx context.Context, rows []domain.CountrySalesRow) error
	ReplaceTopCustomers(ctx context.Context, rows []domain.TopCustomerRow) error
	ReplaceTopProducts(ctx context.Context, rows []domain.TopProductRow) error
}

// Runner drives pipeline runs.
type Runner struct {
	logger     *slog.Logger
	bronzePath string
	bronze     BronzeReader
	cleaner    *dataprocessing.Cleaner
	enricher   *dataprocessing.Enricher
	aggregator *dataprocessing.Aggregator
	silver     SilverStore
	loader     GoldLoader
}

// Config holds the runner's collaborators.
type Config struct {
	BronzePath string
	Bronze     BronzeReader
	Cleaner    *dataprocessing.Cleaner
	Enricher   *dataprocessing.Enricher
	Aggregator *dataprocessing.Aggregator
	Silver     SilverStore
	Loader     GoldLoader
}

// NewRunner creates a pipeline runner.
func NewRunner(logger *slog.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:     logger.With(slog.String("component", "pipeline")),
		bronzePath: cfg.BronzePath,
		bronze:     cfg.Bronze,
		cleaner:    cfg.Cleaner,
		enricher:   cfg.Enricher,
		aggregator: cfg.Aggregator,
		silver:     cfg.Silver,
		loader:     cfg.Loader,
	}
}

// RunBronzeToSilver reads the raw extract, cleans and enriches it, and
// writes the silver snapshot. A missing extract aborts before any output.
func (r *Runner) RunBronzeToSilver(ctx context.Context) error {
	logger := r.runLogger("bronze_to_silver")
	start := time.Now()

	logger.InfoContext(ctx, "reading raw data", slog.String("path", r.bronzePath))
	raw, err := r.bronze.ReadFile(r.bronzePath)
	if err != nil {
		return fmt.Errorf("read bronze: %w", err)
	}

	records, stats := r.cleaner.Clean(ctx, raw)
	records = r.enricher.Enrich(ctx, records)

	if err := r.silver.Write(ctx, records); err != nil {
		return fmt.Errorf("write silver: %w", err)
	}

	logger.InfoContext(ctx, "bronze to silver finished",
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("rows_out", stats.AfterQuantityPrice),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// RunSilverToGold reads the silver snapshot, builds the four reports
// concurrently, and loads each into its gold table in a fixed order. A load
// failure aborts the run; tables already replaced stay in place.
func (r *Runner) RunSilverToGold(ctx context.Context) error {
	logger := r.runLogger("silver_to_gold")
	start := time.Now()

	records, err := r.silver.Read(ctx)
	if err != nil {
		return fmt.Errorf("read silver: %w", err)
	}

	logger.InfoContext(ctx, "starting gold table creation", slog.Int("rows", len(records)))

	var (
		monthly   []domain.MonthlySalesRow
		countries []domain.CountrySalesRow
		customers []domain.TopCustomerRow
		products  []domain.TopProductRow
	)

	// The builders share the immutable record slice and have no data
	// dependency on one another.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monthly = r.aggregator.MonthlySales(gctx, records)
		return nil
	})
	g.Go(func() error {
		countries = r.aggregator.SalesByCountry(gctx, records)
		return nil
	})
	g.Go(func() error {
		customers = r.aggregator.TopCustomers(gctx, records)
		return nil
	})
	g.Go(func() error {
		products = r.aggregator.TopProducts(gctx, records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("build reports: %w", err)
	}

	if err := r.loader.ReplaceMonthlySales(ctx, monthly); err != nil {
		return fmt.Errorf("load %s: %w", domain.TableMonthlySales, err)
	}
	if err := r.loader.ReplaceSalesByCountry(ctx, countries); err != nil {
		return fmt.Errorf("load %s: %w", domain.TableSalesByCountry, err)
	}
	if err := r.loader.ReplaceTopCustomers(ctx, customers); err != nil {
		return fmt.Errorf("load %s: %w", domain.TableTopCustomers, err)
	}
	if err := r.loader.ReplaceTopProducts(ctx, products); err != nil {
		return fmt.Errorf("load %s: %w", domain.TableTopProducts, err)
	}

	logger.InfoContext(ctx, "silver to gold finished",
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Run executes both stages. Any error or panic inside a stage is caught
// here, at the run boundary, and reported as a failed run.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected panic during pipeline run: %v", rec)
		}
		if err != nil {
			r.logger.ErrorContext(ctx, "pipeline run failed", slog.String("error", err.Error()))
		}
	}()

	if err = r.RunBronzeToSilver(ctx); err != nil {
		return err
	}
	return r.RunSilverToGold(ctx)
}

func (r *Runner) runLogger(stage string) *slog.Logger {
	return r.logger.With(slog.String("stage", stage))
}
