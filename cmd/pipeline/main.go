// Command pipeline runs the batch medallion pipeline: bronze extract →
// cleaned silver snapshot → four gold aggregate tables in PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"retailetl/internal/bronze"
	"retailetl/internal/config"
	"retailetl/internal/dataprocessing"
	"retailetl/internal/infrastructure"
	"retailetl/internal/pipeline"
	"retailetl/internal/silver"
	"retailetl/internal/storage"
)

func main() {
	stage := flag.String("stage", "all", "pipeline stage to run: silver, gold, or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create data directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	runnerCfg := pipeline.Config{
		BronzePath: cfg.BronzePath(),
		Bronze:     bronze.NewReader(logger, rune(cfg.Pipeline.CSVDelimiter[0])),
		Cleaner:    dataprocessing.NewCleaner(logger),
		Enricher:   dataprocessing.NewEnricher(logger),
		Aggregator: dataprocessing.NewAggregator(logger, cfg.Pipeline.TopN),
		Silver:     silver.NewStore(logger, cfg.SilverPath()),
	}

	// The gold stage needs the database; the silver stage runs without it.
	if *stage != "silver" {
		pool, err := storage.Connect(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("database connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		runnerCfg.Loader = storage.NewStore(pool, logger)
	}

	runner := pipeline.NewRunner(logger, runnerCfg)

	start := time.Now()
	switch *stage {
	case "silver":
		err = runner.RunBronzeToSilver(ctx)
	case "gold":
		err = runner.RunSilverToGold(ctx)
	case "all":
		err = runner.Run(ctx)
	default:
		logger.Error("unknown stage", slog.String("stage", *stage))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("pipeline run failed",
			slog.String("stage", *stage),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("pipeline run finished successfully",
		slog.String("stage", *stage),
		slog.Duration("elapsed", time.Since(start)))
}
