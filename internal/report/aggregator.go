package report

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"InsuranceNewsAgent/internal/config"
	"InsuranceNewsAgent/internal/domain"
)

const emptySummary = "No articles were collected for this report."

// Aggregator turns a scored, deduplicated batch into the daily report:
// ranking, per-source capping, top-N selection, region rollups and the
// executive summary. Every call is a pure function of its arguments.
type Aggregator struct {
	cfg    config.ReportConfig
	logger *slog.Logger
}

// NewAggregator builds the aggregator from report configuration.
func NewAggregator(cfg config.ReportConfig, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{cfg: cfg, logger: logger}
}

// Build assembles the report. The input must already be scored and
// deduplicated; its order is the collection order, which decides ties.
func (a *Aggregator) Build(articles []domain.Article, now time.Time) domain.Report {
	articles = a.minRelevanceFilter(articles)

	if len(articles) == 0 {
		return domain.Report{
			GeneratedAt:           now,
			TopArticles:           []domain.Article{},
			OtherArticles:         []domain.Article{},
			OpenInsuranceArticles: []domain.Article{},
			ArticlesByRegion:      map[domain.Region]int{},
			Summary:               emptySummary,
		}
	}

	ranked := sortByScore(articles)
	capped := a.capPerSource(ranked)

	topN := a.cfg.TopN
	if topN > len(capped) {
		topN = len(capped)
	}
	top := capped[:topN]

	pool := ranked
	if a.cfg.OthersFromCapped {
		pool = capped
	}
	others := excludeTop(pool, top)

	openInsurance := make([]domain.Article, 0)
	byRegion := map[domain.Region]int{}
	for _, article := range ranked {
		if article.OpenInsurance {
			openInsurance = append(openInsurance, article)
		}
		byRegion[article.Region]++
	}

	rep := domain.Report{
		GeneratedAt:           now,
		TotalArticles:         len(articles),
		TopArticles:           top,
		OtherArticles:         others,
		OpenInsuranceArticles: openInsurance,
		ArticlesByRegion:      byRegion,
		Summary:               buildSummary(ranked, byRegion, len(openInsurance)),
	}

	a.logger.Info("report built",
		"total", rep.TotalArticles,
		"top", len(rep.TopArticles),
		"open_insurance", len(rep.OpenInsuranceArticles))

	return rep
}

func (a *Aggregator) minRelevanceFilter(articles []domain.Article) []domain.Article {
	if a.cfg.MinRelevance <= 0 {
		return articles
	}
	kept := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if article.RelevanceScore >= a.cfg.MinRelevance {
			kept = append(kept, article)
		}
	}
	return kept
}

// sortByScore orders by relevance descending; the stable sort keeps
// collection order between equal scores.
func sortByScore(articles []domain.Article) []domain.Article {
	sorted := make([]domain.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RelevanceScore > sorted[j].RelevanceScore
	})
	return sorted
}

// capPerSource keeps only the best maxPerSource articles of each source
// so a single noisy source cannot dominate the top list. The input is
// already globally sorted, so filtering preserves the global order.
func (a *Aggregator) capPerSource(ranked []domain.Article) []domain.Article {
	if a.cfg.MaxPerSource <= 0 {
		return ranked
	}

	seen := map[string]int{}
	capped := make([]domain.Article, 0, len(ranked))
	for _, article := range ranked {
		if seen[article.Source] >= a.cfg.MaxPerSource {
			continue
		}
		seen[article.Source]++
		capped = append(capped, article)
	}
	return capped
}

func excludeTop(pool, top []domain.Article) []domain.Article {
	promoted := make(map[string]bool, len(top))
	for _, article := range top {
		promoted[article.URL] = true
	}

	others := make([]domain.Article, 0)
	for _, article := range pool {
		if !promoted[article.URL] {
			others = append(others, article)
		}
	}
	return others
}

// buildSummary produces the deterministic executive prose: totals,
// per-region breakdown, Open Insurance share and the dominant topic.
func buildSummary(articles []domain.Article, byRegion map[domain.Region]int, openInsuranceCount int) string {
	total := len(articles)
	parts := make([]string, 0, 4)

	parts = append(parts, fmt.Sprintf("A total of %d insurance news articles were collected.", total))

	if len(byRegion) > 0 {
		regionParts := make([]string, 0, len(byRegion))
		for _, region := range sortedRegions(byRegion) {
			count := byRegion[region]
			regionParts = append(regionParts, fmt.Sprintf("%s: %d articles (%.1f%%)",
				region, count, percentage(count, total)))
		}
		parts = append(parts, fmt.Sprintf("Distribution by region: %s.", strings.Join(regionParts, ", ")))
	}

	if openInsuranceCount > 0 {
		parts = append(parts, fmt.Sprintf("%d articles relate to Open Insurance (%.1f%% of the total).",
			openInsuranceCount, percentage(openInsuranceCount, total)))
	} else {
		parts = append(parts, "No Open Insurance related articles were identified today.")
	}

	if topic, count := dominantTopic(articles); topic != "" {
		parts = append(parts, fmt.Sprintf("The dominant topic was %s (%d articles).", topic, count))
	}

	return strings.Join(parts, " ")
}

// sortedRegions orders regions by count descending, then name, so the
// summary string is stable across runs.
func sortedRegions(byRegion map[domain.Region]int) []domain.Region {
	regions := make([]domain.Region, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool {
		if byRegion[regions[i]] != byRegion[regions[j]] {
			return byRegion[regions[i]] > byRegion[regions[j]]
		}
		return regions[i] < regions[j]
	})
	return regions
}

func dominantTopic(articles []domain.Article) (string, int) {
	counts := map[string]int{}
	for _, article := range articles {
		for _, category := range article.Categories {
			counts[category]++
		}
	}

	best, bestCount := "", 0
	for topic, count := range counts {
		if count > bestCount || (count == bestCount && topic < best) {
			best, bestCount = topic, count
		}
	}
	return best, bestCount
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
