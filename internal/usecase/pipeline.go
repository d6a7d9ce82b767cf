package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"InsuranceNewsAgent/internal/dedup"
	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/ports"
	"InsuranceNewsAgent/internal/relevance"
	"InsuranceNewsAgent/internal/report"
)

// PipelineDeps wires all collaborators into the processing pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Store      ports.FingerprintStore
	Scorer     *relevance.Scorer
	Filter     *dedup.Filter
	Aggregator *report.Aggregator
	Sink       ports.ReportSink
	Logger     *slog.Logger
}

// Pipeline implements one synchronous processing run: score, dedup,
// aggregate, deliver, commit. It holds no state between runs beyond the
// injected fingerprint store.
type Pipeline struct {
	source     ports.ArticleSource
	store      ports.FingerprintStore
	scorer     *relevance.Scorer
	filter     *dedup.Filter
	aggregator *report.Aggregator
	sink       ports.ReportSink
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		scorer:     deps.Scorer,
		filter:     deps.Filter,
		aggregator: deps.Aggregator,
		sink:       deps.Sink,
		logger:     logger,
	}
}

// Run executes a single pipeline pass against the supplied now. A batch
// containing invalid articles still produces a report from the valid
// subset; a failure to persist state or the report aborts the run.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (domain.Report, error) {
	if err := p.store.Load(ctx); err != nil {
		// Load recovers internally; a non-nil error here is unexpected.
		return domain.Report{}, fmt.Errorf("load fingerprint store: %w", err)
	}

	collected, err := p.source.Collect(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("collect articles: %w", err)
	}

	articles := p.validate(collected)
	p.scorer.Annotate(articles, now)

	unique, _ := p.filter.Partition(articles, p.store)

	rep := p.aggregator.Build(unique, now)

	if p.sink != nil {
		if err := p.sink.Write(ctx, rep); err != nil {
			return domain.Report{}, fmt.Errorf("write report: %w", err)
		}
	}

	if err := p.filter.Commit(ctx, unique, p.store, now); err != nil {
		return domain.Report{}, fmt.Errorf("commit fingerprints: %w", err)
	}

	if err := p.filter.Cleanup(ctx, p.store, now); err != nil {
		return domain.Report{}, fmt.Errorf("cleanup fingerprints: %w", err)
	}

	stats := dedup.Stats(p.store)
	p.logger.Info("pipeline run finished",
		"collected", len(collected),
		"reported", rep.TotalArticles,
		"history_size", stats.Total)

	return rep, nil
}

// validate drops articles missing required fields. A single bad record
// never aborts the batch.
func (p *Pipeline) validate(articles []domain.Article) []domain.Article {
	valid := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if err := article.Validate(); err != nil {
			p.logger.Warn("skipping invalid article", "error", err)
			continue
		}
		valid = append(valid, article)
	}
	return valid
}
