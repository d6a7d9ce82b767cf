package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/ports"
)

const fingerprintsSchema = `
CREATE TABLE IF NOT EXISTS fingerprints (
    key          TEXT PRIMARY KEY,
    url_hash     TEXT NOT NULL,
    title_hash   TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    source       TEXT NOT NULL,
    sent_at      TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps the fingerprint history in a Postgres table for
// deployments that already run a database. It mirrors the rows in
// memory so lookups during a run never touch the network; Save flushes
// the batch mutations in one transaction.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	entries map[string]domain.Fingerprint
	added   map[string]struct{}
	removed map[string]struct{}
	logger  *slog.Logger
}

var _ ports.FingerprintStore = (*PostgresStore)(nil)

// NewPostgresStore wires an open sql.DB. Call Load before use.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		entries: map[string]domain.Fingerprint{},
		added:   map[string]struct{}{},
		removed: map[string]struct{}{},
		logger:  logger,
	}
}

// Load ensures the schema and reads all rows into memory. Like the file
// store, a failing load is logged and yields an empty history instead
// of aborting the run.
func (s *PostgresStore) Load(ctx context.Context) error {
	s.entries = map[string]domain.Fingerprint{}
	s.added = map[string]struct{}{}
	s.removed = map[string]struct{}{}

	if _, err := s.db.ExecContext(ctx, fingerprintsSchema); err != nil {
		s.logger.Warn("cannot ensure fingerprints schema, starting empty", "error", err)
		return nil
	}

	query, args, err := s.builder.
		Select("key", "url_hash", "title_hash", "content_hash", "source", "sent_at").
		From("fingerprints").
		ToSql()
	if err != nil {
		s.logger.Warn("cannot build fingerprints query, starting empty", "error", err)
		return nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Warn("cannot read fingerprints, starting empty", "error", err)
		return nil
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var fp domain.Fingerprint
		if err := rows.Scan(&key, &fp.URLHash, &fp.TitleHash, &fp.ContentHash, &fp.Source, &fp.SentAt); err != nil {
			s.logger.Warn("cannot scan fingerprint row, starting empty", "error", err)
			s.entries = map[string]domain.Fingerprint{}
			return nil
		}
		s.entries[key] = fp
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("fingerprint rows iteration failed, starting empty", "error", err)
		s.entries = map[string]domain.Fingerprint{}
		return nil
	}

	s.logger.Info("fingerprint store loaded", "backend", "postgres", "entries", len(s.entries))
	return nil
}

// Save flushes pending inserts and deletions in a single transaction.
// Inserts use ON CONFLICT DO NOTHING so a concurrent prior writer keeps
// its SentAt.
func (s *PostgresStore) Save(ctx context.Context) error {
	if len(s.added) == 0 && len(s.removed) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin store transaction", Err: err}
	}

	for key := range s.added {
		fp := s.entries[key]
		query, args, err := s.builder.
			Insert("fingerprints").
			Columns("key", "url_hash", "title_hash", "content_hash", "source", "sent_at").
			Values(key, fp.URLHash, fp.TitleHash, fp.ContentHash, fp.Source, fp.SentAt).
			Suffix("ON CONFLICT (key) DO NOTHING").
			ToSql()
		if err != nil {
			tx.Rollback()
			return &domain.PersistenceError{Op: "build fingerprint insert", Err: err}
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			tx.Rollback()
			return &domain.PersistenceError{Op: "insert fingerprint", Err: err}
		}
	}

	if len(s.removed) > 0 {
		keys := make([]string, 0, len(s.removed))
		for key := range s.removed {
			keys = append(keys, key)
		}
		query, args, err := s.builder.
			Delete("fingerprints").
			Where(sq.Eq{"key": keys}).
			ToSql()
		if err != nil {
			tx.Rollback()
			return &domain.PersistenceError{Op: "build fingerprint delete", Err: err}
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			tx.Rollback()
			return &domain.PersistenceError{Op: "delete fingerprints", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit store transaction", Err: err}
	}

	s.added = map[string]struct{}{}
	s.removed = map[string]struct{}{}
	return nil
}

// Put inserts only when the key is absent.
func (s *PostgresStore) Put(key string, fp domain.Fingerprint) bool {
	if _, exists := s.entries[key]; exists {
		return false
	}
	s.entries[key] = fp
	s.added[key] = struct{}{}
	delete(s.removed, key)
	return true
}

// Get looks up a fingerprint by composite key.
func (s *PostgresStore) Get(key string) (domain.Fingerprint, bool) {
	fp, ok := s.entries[key]
	return fp, ok
}

// RemoveOlderThan drops entries sent before now-retention; the rows are
// deleted on the next Save.
func (s *PostgresStore) RemoveOlderThan(retention time.Duration, now time.Time) int {
	cutoff := now.Add(-retention)
	removed := 0
	for key, fp := range s.entries {
		if fp.SentAt.Before(cutoff) {
			delete(s.entries, key)
			delete(s.added, key)
			s.removed[key] = struct{}{}
			removed++
		}
	}
	return removed
}

// Len reports the number of stored keys.
func (s *PostgresStore) Len() int { return len(s.entries) }

// Snapshot copies the mapping for statistics.
func (s *PostgresStore) Snapshot() map[string]domain.Fingerprint {
	snapshot := make(map[string]domain.Fingerprint, len(s.entries))
	for key, fp := range s.entries {
		snapshot[key] = fp
	}
	return snapshot
}
