package domain

import (
	"strings"
	"time"
)

// Region identifies the geographic coverage area of a news source.
// The set of values is closed per deployment, not per binary; the
// constants below mirror the default deployment.
type Region string

const (
	RegionBrasil       Region = "Brasil"
	RegionAmericaDoSul Region = "América do Sul"
	RegionEUA          Region = "Estados Unidos"
	RegionEuropa       Region = "Europa"
)

// Article is a single collected news record. Collectors populate the
// identity and text fields; the pipeline fills Categories,
// RelevanceScore and OpenInsurance during scoring.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Region      Region    `json:"region"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary,omitempty"`
	Content     string    `json:"content,omitempty"`
	Language    string    `json:"language,omitempty"`

	Categories     []string `json:"categories,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
	OpenInsurance  bool     `json:"open_insurance"`
}

// Validate checks the fields every collector must provide. A failing
// article is skipped by the pipeline, never fatal to the batch.
func (a Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", URL: a.URL}
	}
	if strings.TrimSpace(a.URL) == "" {
		return &ValidationError{Field: "url", Title: a.Title}
	}
	if strings.TrimSpace(a.Source) == "" {
		return &ValidationError{Field: "source", Title: a.Title}
	}
	return nil
}

// Fingerprint is the persisted digest of an article that has already
// been reported. Field names match the on-disk JSON contract.
type Fingerprint struct {
	URLHash     string    `json:"url_hash"`
	TitleHash   string    `json:"title_hash"`
	ContentHash string    `json:"content_hash"`
	Source      string    `json:"source"`
	SentAt      time.Time `json:"date_sent"`
}

// Report is the consolidated daily output handed to the rendering and
// delivery layer. It is read-only once built.
type Report struct {
	GeneratedAt           time.Time      `json:"generated_at"`
	TotalArticles         int            `json:"total_articles"`
	TopArticles           []Article      `json:"top_articles"`
	OtherArticles         []Article      `json:"other_articles"`
	OpenInsuranceArticles []Article      `json:"open_insurance_articles"`
	ArticlesByRegion      map[Region]int `json:"articles_by_region"`
	Summary               string         `json:"summary"`
}
