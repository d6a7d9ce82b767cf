package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/ports"
)

// FileSource reads the JSON article batch dropped by the out-of-scope
// collectors. It is the hand-off point between acquisition and the
// processing pipeline.
type FileSource struct {
	path   string
	logger *slog.Logger
}

var _ ports.ArticleSource = (*FileSource)(nil)

// NewFileSource points the source at the collector hand-off file.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}
}

// Collect decodes the article batch. Per-article validation is the
// pipeline's job; only an unreadable or undecodable batch is an error.
func (s *FileSource) Collect(ctx context.Context) ([]domain.Article, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read article batch %s: %w", s.path, err)
	}

	var articles []domain.Article
	if err := json.Unmarshal(raw, &articles); err != nil {
		return nil, fmt.Errorf("decode article batch %s: %w", s.path, err)
	}

	s.logger.Info("article batch collected", "path", s.path, "articles", len(articles))
	return articles, nil
}
