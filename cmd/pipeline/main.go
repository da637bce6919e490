package main

import (
	"fmt"
	"os"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/model"
	"github.com/andresuchdata/stockcast/internal/pipeline"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/andresuchdata/stockcast/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "stockcast",
		Usage: "Forecast demand and recompute minimum stock levels",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the stock update pipeline once; exit status reports success",
				Action: runPipeline,
			},
			{
				Name:   "validate",
				Usage:  "Print a data-quality report over the five source tables",
				Action: runValidate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func runPipeline(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.Dir != "" {
		if err := logger.AddFileOutput(cfg.Log.Dir); err != nil {
			logger.Log.Warn().Err(err).Msg("could not open log file, console only")
		}
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var objectStore storage.ObjectStorage
	if cfg.Artifact.S3Bucket != "" {
		s3, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Artifact.S3Endpoint,
			AccessKey: cfg.Artifact.S3AccessKey,
			SecretKey: cfg.Artifact.S3SecretKey,
			Bucket:    cfg.Artifact.S3Bucket,
			UseSSL:    cfg.Artifact.S3UseSSL,
		})
		if err != nil {
			return fmt.Errorf("configure artifact upload: %w", err)
		}
		objectStore = s3
	}

	store := postgres.NewFactStore(db, cfg.Pipeline.BatchSize)
	artifacts := pipeline.NewArtifactWriter(cfg.Artifact.Dir, objectStore)
	orchestrator := pipeline.NewOrchestrator(store, artifacts, pipeline.Options{
		SafetyFactor:         cfg.Pipeline.SafetyFactor,
		MinStockFloor:        cfg.Pipeline.MinStockFloor,
		MinTrainingRows:      cfg.Pipeline.MinTrainingRows,
		TrainingWindowMonths: cfg.Pipeline.TrainingWindowMonths,
		Model: model.GBTConfig{
			Estimators:   cfg.Model.Estimators,
			MaxDepth:     cfg.Model.MaxDepth,
			LearningRate: cfg.Model.LearningRate,
			Seed:         cfg.Model.Seed,
		},
	})

	result := orchestrator.Run(c.Context)
	if !result.Succeeded() {
		return fmt.Errorf("pipeline failed at stage %s: %w", result.FailedAt, result.Err)
	}
	return nil
}

func runValidate(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	report, err := postgres.NewQualityRepository(db).QualityReport(c.Context)
	if err != nil {
		return fmt.Errorf("build quality report: %w", err)
	}

	logger.Log.Info().
		Int64("inventory_rows", report.InventoryRows).
		Int64("history_rows", report.HistoryRows).
		Int64("article_rows", report.ArticleRows).
		Int64("order_line_rows", report.OrderLineRows).
		Int64("order_rows", report.OrderRows).
		Int64("orphaned_history_rows", report.NullKeyHistory).
		Int64("duplicate_pairs", report.DuplicatePairs).
		Str("first_period", report.FirstPeriod).
		Str("last_period", report.LastPeriod).
		Msg("data quality report")

	if report.NullKeyHistory > 0 || report.DuplicatePairs > 0 {
		logger.Log.Warn().Msg("source tables have quality issues, see counts above")
	}
	return nil
}
