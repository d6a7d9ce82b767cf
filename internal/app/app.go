package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"InsuranceNewsAgent/internal/config"
	"InsuranceNewsAgent/internal/dedup"
	"InsuranceNewsAgent/internal/infrastructure/collect"
	"InsuranceNewsAgent/internal/infrastructure/reportfile"
	"InsuranceNewsAgent/internal/infrastructure/storage"
	"InsuranceNewsAgent/internal/logging"
	"InsuranceNewsAgent/internal/ports"
	"InsuranceNewsAgent/internal/relevance"
	"InsuranceNewsAgent/internal/report"
	"InsuranceNewsAgent/internal/usecase"
)

// Application wires configuration into the pipeline and its adapters.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
	logger   *slog.Logger
}

// New builds a runnable application instance. The fingerprint store
// backend follows the configuration: Postgres when a DSN is set, the
// JSON file store otherwise.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	var db *sql.DB
	var store ports.FingerprintStore
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
		store = storage.NewPostgresStore(db, baseLogger.With("component", "store.postgres"))
	} else {
		store = storage.NewFileStore(cfg.Dedup.StorePath, baseLogger.With("component", "store.file"))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     collect.NewFileSource(cfg.Collector.InputPath, baseLogger.With("component", "source")),
		Store:      store,
		Scorer:     relevance.NewScorer(cfg.Relevance, baseLogger.With("component", "scorer")),
		Filter:     dedup.NewFilter(cfg.Dedup, baseLogger.With("component", "dedup")),
		Aggregator: report.NewAggregator(cfg.Report, baseLogger.With("component", "report")),
		Sink:       reportfile.NewWriter(cfg.Collector.ReportDir, baseLogger.With("component", "sink")),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, db: db, logger: baseLogger}, nil
}

// Run performs a single pipeline execution. The caller serializes runs;
// the pipeline itself assumes at most one execution per store at a time.
func (a *Application) Run(ctx context.Context) error {
	rep, err := a.pipeline.Run(ctx, time.Now())
	if err != nil {
		return err
	}

	a.logger.Info("daily report ready",
		"total_articles", rep.TotalArticles,
		"top_articles", len(rep.TopArticles),
		"open_insurance_articles", len(rep.OpenInsuranceArticles))
	return nil
}

// Close releases the database handle when the Postgres store is in use.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
