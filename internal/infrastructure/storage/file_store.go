package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/ports"
)

// FileStore persists fingerprints as a single JSON object mapping
// composite keys to fingerprint records. It assumes a single writer;
// serializing pipeline runs is the caller's responsibility.
type FileStore struct {
	path    string
	entries map[string]domain.Fingerprint
	logger  *slog.Logger
}

var _ ports.FingerprintStore = (*FileStore)(nil)

// NewFileStore wires the store to its backing file. Call Load before use.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:    path,
		entries: map[string]domain.Fingerprint{},
		logger:  logger,
	}
}

// Load reads the persisted mapping. A missing file starts an empty
// history; an unparsable file is logged and discarded. Neither is an
// error: losing dedup history degrades gracefully, losing a run does not.
func (s *FileStore) Load(ctx context.Context) error {
	s.entries = map[string]domain.Fingerprint{}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cannot read fingerprint store, starting empty", "path", s.path, "error", err)
		}
		return nil
	}

	if len(raw) == 0 {
		return nil
	}

	var entries map[string]domain.Fingerprint
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("fingerprint store unparsable, starting empty", "path", s.path, "error", err)
		return nil
	}

	s.entries = entries
	s.logger.Info("fingerprint store loaded", "path", s.path, "entries", len(entries))
	return nil
}

// Save writes the whole mapping to a temp file in the target directory
// and renames it over the store, so a crash mid-write never corrupts
// the history.
func (s *FileStore) Save(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "create store directory", Err: err}
	}

	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "marshal fingerprint store", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "fingerprints-*.json")
	if err != nil {
		return &domain.PersistenceError{Op: "create temp store file", Err: err}
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write temp store file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "close temp store file", Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "replace store file", Err: err}
	}

	return nil
}

// Put inserts only when the key is absent and reports whether it stored
// the fingerprint.
func (s *FileStore) Put(key string, fp domain.Fingerprint) bool {
	if _, exists := s.entries[key]; exists {
		return false
	}
	s.entries[key] = fp
	return true
}

// Get looks up a fingerprint by composite key.
func (s *FileStore) Get(key string) (domain.Fingerprint, bool) {
	fp, ok := s.entries[key]
	return fp, ok
}

// RemoveOlderThan drops entries sent before now-retention.
func (s *FileStore) RemoveOlderThan(retention time.Duration, now time.Time) int {
	cutoff := now.Add(-retention)
	removed := 0
	for key, fp := range s.entries {
		if fp.SentAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored keys.
func (s *FileStore) Len() int { return len(s.entries) }

// Snapshot copies the mapping for statistics.
func (s *FileStore) Snapshot() map[string]domain.Fingerprint {
	snapshot := make(map[string]domain.Fingerprint, len(s.entries))
	for key, fp := range s.entries {
		snapshot[key] = fp
	}
	return snapshot
}
