package reportfile

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/ports"
)

// Writer persists the finished report as a dated JSON file for the
// rendering and delivery layer to pick up.
type Writer struct {
	dir    string
	logger *slog.Logger
}

var _ ports.ReportSink = (*Writer)(nil)

// NewWriter targets the report output directory.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// Write serializes the report to daily_report_YYYY-MM-DD.json, using a
// temp-file-then-rename write. Failures surface as PersistenceError.
func (w *Writer) Write(ctx context.Context, report domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "create report directory", Err: err}
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "marshal report", Err: err}
	}

	path := filepath.Join(w.dir, "daily_report_"+report.GeneratedAt.Format("2006-01-02")+".json")

	tmp, err := os.CreateTemp(w.dir, "report-*.json")
	if err != nil {
		return &domain.PersistenceError{Op: "create temp report file", Err: err}
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write temp report file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "close temp report file", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "replace report file", Err: err}
	}

	w.logger.Info("report written", "path", path, "articles", report.TotalArticles)
	return nil
}
