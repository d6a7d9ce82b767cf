package ports

import (
	"context"
	"time"

	"InsuranceNewsAgent/internal/domain"
)

// ArticleSource hands over article records produced by the out-of-scope
// acquisition layer.
type ArticleSource interface {
	Collect(ctx context.Context) ([]domain.Article, error)
}

// FingerprintStore keeps the history of already-reported articles. The
// pipeline assumes at most one concurrent run per store; serializing
// runs is the caller's responsibility.
type FingerprintStore interface {
	// Load reads the persisted mapping. A missing or unparsable backing
	// resource yields an empty store and a logged warning, never an error.
	Load(ctx context.Context) error

	// Save writes the full mapping back atomically. Failures surface as
	// *domain.PersistenceError.
	Save(ctx context.Context) error

	// Put inserts the fingerprint only if the key is absent and reports
	// whether it was stored (first-writer-wins).
	Put(key string, fp domain.Fingerprint) bool

	Get(key string) (domain.Fingerprint, bool)

	// RemoveOlderThan drops entries whose SentAt precedes now-retention
	// and returns how many were removed.
	RemoveOlderThan(retention time.Duration, now time.Time) int

	Len() int

	// Snapshot returns a copy of the mapping for statistics.
	Snapshot() map[string]domain.Fingerprint
}

// ReportSink delivers the finished report to the out-of-scope rendering
// and delivery layer.
type ReportSink interface {
	Write(ctx context.Context, report domain.Report) error
}
