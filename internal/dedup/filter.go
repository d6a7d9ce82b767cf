package dedup

import (
	"context"
	"log/slog"
	"time"

	"InsuranceNewsAgent/internal/config"
	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/ports"
)

// Filter partitions article batches into unique and already-reported
// sets against a fingerprint store and commits the unique ones once a
// report has been delivered.
type Filter struct {
	cfg    config.DedupConfig
	logger *slog.Logger
}

// NewFilter builds the deduplication filter.
func NewFilter(cfg config.DedupConfig, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{cfg: cfg, logger: logger}
}

// Partition splits the batch into unique and duplicate articles,
// preserving the original relative order. The store is not mutated, so
// repeating the call against an unchanged store repeats the result.
func (f *Filter) Partition(articles []domain.Article, store ports.FingerprintStore) (unique, duplicates []domain.Article) {
	for _, article := range articles {
		if f.isDuplicate(article, store) {
			duplicates = append(duplicates, article)
			continue
		}
		unique = append(unique, article)
	}

	f.logger.Info("deduplication finished",
		"total", len(articles),
		"unique", len(unique),
		"duplicates", len(duplicates))

	return unique, duplicates
}

// isDuplicate applies the two signals in order of strength: a URL hit
// is a duplicate regardless of source; a title hit only counts when the
// stored fingerprint came from the same source, so two outlets sharing
// a generic headline are not conflated.
func (f *Filter) isDuplicate(article domain.Article, store ports.FingerprintStore) bool {
	fp := ComputeFingerprint(article, time.Time{})

	if _, ok := store.Get(URLKey(fp)); ok {
		f.logger.Debug("duplicate by url", "title", article.Title)
		return true
	}

	if existing, ok := store.Get(TitleKey(fp)); ok && existing.Source == article.Source {
		f.logger.Debug("duplicate by title", "title", article.Title, "source", article.Source)
		return true
	}

	return false
}

// Commit records every unique article under both key variants and
// persists the store once for the whole batch. Existing keys keep
// their original SentAt.
func (f *Filter) Commit(ctx context.Context, articles []domain.Article, store ports.FingerprintStore, now time.Time) error {
	if len(articles) == 0 {
		return nil
	}

	added := 0
	for _, article := range articles {
		fp := ComputeFingerprint(article, now)
		if store.Put(URLKey(fp), fp) {
			added++
		}
		store.Put(TitleKey(fp), fp)
	}

	if err := store.Save(ctx); err != nil {
		return err
	}

	f.logger.Info("marked articles as sent", "added", added, "history_size", store.Len())
	return nil
}

// Cleanup drops fingerprints older than the retention window and
// persists the store when anything was removed.
func (f *Filter) Cleanup(ctx context.Context, store ports.FingerprintStore, now time.Time) error {
	retention := time.Duration(f.cfg.RetentionDays) * 24 * time.Hour

	removed := store.RemoveOlderThan(retention, now)
	if removed == 0 {
		return nil
	}

	if err := store.Save(ctx); err != nil {
		return err
	}

	f.logger.Info("removed expired fingerprints", "removed", removed, "history_size", store.Len())
	return nil
}

// StoreStats summarizes the dedup history for the run log.
type StoreStats struct {
	Total    int
	BySource map[string]int
	Oldest   time.Time
	Newest   time.Time
}

// Stats aggregates the current store contents.
func Stats(store ports.FingerprintStore) StoreStats {
	stats := StoreStats{BySource: map[string]int{}}

	for _, fp := range store.Snapshot() {
		stats.Total++
		stats.BySource[fp.Source]++
		if stats.Oldest.IsZero() || fp.SentAt.Before(stats.Oldest) {
			stats.Oldest = fp.SentAt
		}
		if fp.SentAt.After(stats.Newest) {
			stats.Newest = fp.SentAt
		}
	}

	return stats
}
