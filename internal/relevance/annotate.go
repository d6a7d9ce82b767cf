package relevance

import (
	"time"

	"InsuranceNewsAgent/internal/domain"
)

// summaryMaxLen bounds summaries derived from full content.
const summaryMaxLen = 300

// Annotate enriches a batch in place: it backfills missing summaries
// from content, then assigns score, categories and the Open Insurance
// flag to every article.
func (s *Scorer) Annotate(articles []domain.Article, now time.Time) {
	for i := range articles {
		article := &articles[i]

		if article.Summary == "" && article.Content != "" {
			article.Summary = ExtractSummary(article.Content, summaryMaxLen)
		}

		score, topic, openInsurance := s.Score(article.Title, article.Summary, article.PublishedAt, now)
		article.RelevanceScore = score
		article.OpenInsurance = openInsurance
		article.Categories = s.Classify(Normalize(article.Title, article.Summary))

		s.logger.Debug("article scored",
			"title", article.Title,
			"score", score,
			"topic", topic,
			"open_insurance", openInsurance)
	}
}
