package domain

import "fmt"

// ConfigError reports malformed or missing configuration. Pipeline
// construction fails fast on it, before any article is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// ValidationError marks a single article that is missing a required
// field. The pipeline logs and skips the article; the batch continues.
type ValidationError struct {
	Field string
	Title string
	URL   string
}

func (e *ValidationError) Error() string {
	ref := e.Title
	if ref == "" {
		ref = e.URL
	}
	return fmt.Sprintf("article %q: missing %s", ref, e.Field)
}

// PersistenceError wraps a failure to write the fingerprint store or
// the report. It always propagates to the caller: silently losing the
// dedup history would corrupt downstream guarantees.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
