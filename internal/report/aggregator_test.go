package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"InsuranceNewsAgent/internal/config"
	"InsuranceNewsAgent/internal/domain"
)

var testNow = time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)

func scored(title, source string, region domain.Region, score float64, openInsurance bool) domain.Article {
	return domain.Article{
		Title:          title,
		URL:            "https://" + source + ".example/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Source:         source,
		Region:         region,
		PublishedAt:    testNow.Add(-6 * time.Hour),
		RelevanceScore: score,
		OpenInsurance:  openInsurance,
	}
}

func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 15}, nil)
	rep := agg.Build(nil, testNow)

	if rep.TotalArticles != 0 {
		t.Fatalf("expected zero total, got %d", rep.TotalArticles)
	}
	if len(rep.TopArticles) != 0 || len(rep.OtherArticles) != 0 || len(rep.OpenInsuranceArticles) != 0 {
		t.Fatal("expected empty sections")
	}
	if rep.Summary != emptySummary {
		t.Fatalf("unexpected summary: %q", rep.Summary)
	}
	if !rep.GeneratedAt.Equal(testNow) {
		t.Fatalf("unexpected timestamp: %v", rep.GeneratedAt)
	}
}

func TestBuildRankingKeepsInputOrderOnTies(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 3}, nil)
	articles := []domain.Article{
		scored("A", "S1", domain.RegionBrasil, 0.9, false),
		scored("B", "S2", domain.RegionBrasil, 0.9, false),
		scored("C", "S3", domain.RegionBrasil, 0.5, false),
		scored("D", "S4", domain.RegionBrasil, 0.1, false),
	}

	rep := agg.Build(articles, testNow)

	want := []string{"A", "B", "C"}
	if len(rep.TopArticles) != len(want) {
		t.Fatalf("expected %d top articles, got %d", len(want), len(rep.TopArticles))
	}
	for i, title := range want {
		if rep.TopArticles[i].Title != title {
			t.Fatalf("top[%d] = %s, want %s", i, rep.TopArticles[i].Title, title)
		}
	}
	if len(rep.OtherArticles) != 1 || rep.OtherArticles[0].Title != "D" {
		t.Fatalf("unexpected others: %+v", rep.OtherArticles)
	}
}

func TestBuildPerSourceCap(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 3, MaxPerSource: 2}, nil)
	articles := []domain.Article{
		scored("Noisy one", "loud", domain.RegionBrasil, 0.9, false),
		scored("Noisy two", "loud", domain.RegionBrasil, 0.8, false),
		scored("Noisy three", "loud", domain.RegionBrasil, 0.7, false),
		scored("Quiet one", "quiet", domain.RegionBrasil, 0.6, false),
	}

	rep := agg.Build(articles, testNow)

	if len(rep.TopArticles) != 3 {
		t.Fatalf("expected 3 top articles, got %d", len(rep.TopArticles))
	}
	if rep.TopArticles[2].Title != "Quiet one" {
		t.Fatalf("per-source cap should promote the quiet source, got %s", rep.TopArticles[2].Title)
	}
}

func TestBuildOthersFromFullSet(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 2, MaxPerSource: 1}, nil)
	articles := []domain.Article{
		scored("Loud best", "loud", domain.RegionBrasil, 0.9, false),
		scored("Loud second", "loud", domain.RegionBrasil, 0.8, false),
		scored("Quiet", "quiet", domain.RegionBrasil, 0.5, false),
	}

	rep := agg.Build(articles, testNow)

	// "Loud second" is capped out of the top list but stays in the full
	// deduplicated set, so it must appear under others.
	if len(rep.OtherArticles) != 1 || rep.OtherArticles[0].Title != "Loud second" {
		t.Fatalf("expected capped-out article in others, got %+v", rep.OtherArticles)
	}
}

func TestBuildOthersFromCappedSet(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 2, MaxPerSource: 1, OthersFromCapped: true}, nil)
	articles := []domain.Article{
		scored("Loud best", "loud", domain.RegionBrasil, 0.9, false),
		scored("Loud second", "loud", domain.RegionBrasil, 0.8, false),
		scored("Quiet", "quiet", domain.RegionBrasil, 0.5, false),
	}

	rep := agg.Build(articles, testNow)

	if len(rep.OtherArticles) != 0 {
		t.Fatalf("capped variant must drop the capped-out article, got %+v", rep.OtherArticles)
	}
}

func TestBuildMinRelevanceFilter(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 5, MinRelevance: 0.2}, nil)
	articles := []domain.Article{
		scored("Relevant", "S1", domain.RegionBrasil, 0.5, false),
		scored("Noise", "S2", domain.RegionBrasil, 0.1, false),
	}

	rep := agg.Build(articles, testNow)

	if rep.TotalArticles != 1 {
		t.Fatalf("expected low-relevance article filtered, got total %d", rep.TotalArticles)
	}
}

func TestBuildSummaryIsDeterministic(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 5}, nil)
	articles := []domain.Article{
		scored("A", "S1", domain.RegionBrasil, 0.9, true),
		scored("B", "S2", domain.RegionEuropa, 0.5, false),
	}

	first := agg.Build(articles, testNow).Summary
	for i := 0; i < 10; i++ {
		if got := agg.Build(articles, testNow).Summary; got != first {
			t.Fatalf("summary changed between runs:\n%s\n%s", first, got)
		}
	}
}

func TestBuildEndToEndScenario(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(config.ReportConfig{TopN: 3}, nil)
	articles := []domain.Article{
		scored("One", "S1", domain.RegionBrasil, 0.9, true),
		scored("Two", "S1", domain.RegionBrasil, 0.8, false),
		scored("Three", "S2", domain.RegionEuropa, 0.7, false),
		scored("Four", "S2", domain.RegionEuropa, 0.6, false),
		scored("Five", "S2", domain.RegionBrasil, 0.5, false),
	}

	rep := agg.Build(articles, testNow)

	if rep.TotalArticles != 5 {
		t.Fatalf("expected total 5, got %d", rep.TotalArticles)
	}
	if len(rep.TopArticles) != 3 || len(rep.OtherArticles) != 2 {
		t.Fatalf("unexpected split: top=%d others=%d", len(rep.TopArticles), len(rep.OtherArticles))
	}
	if len(rep.OpenInsuranceArticles) != 1 || rep.OpenInsuranceArticles[0].Title != "One" {
		t.Fatalf("unexpected open insurance subset: %+v", rep.OpenInsuranceArticles)
	}

	sum := 0
	for _, count := range rep.ArticlesByRegion {
		sum += count
	}
	if sum != 5 {
		t.Fatalf("region counts must sum to 5, got %d", sum)
	}
	if rep.ArticlesByRegion[domain.RegionBrasil] != 3 || rep.ArticlesByRegion[domain.RegionEuropa] != 2 {
		t.Fatalf("unexpected region counts: %+v", rep.ArticlesByRegion)
	}

	if !strings.Contains(rep.Summary, "5") {
		t.Fatalf("summary must mention the total: %q", rep.Summary)
	}
	if !strings.Contains(rep.Summary, fmt.Sprintf("%d articles relate to Open Insurance", 1)) {
		t.Fatalf("summary must mention the open insurance count: %q", rep.Summary)
	}
}
