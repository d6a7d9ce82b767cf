package relevance

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"InsuranceNewsAgent/internal/config"
)

// matcher recognizes one configured keyword. Single words match on word
// boundaries so that "auto" does not fire inside "autor"; phrases match
// as plain substrings.
type matcher struct {
	phrase string
	re     *regexp.Regexp
}

func (m matcher) match(text string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return strings.Contains(text, m.phrase)
}

func compileKeywords(keywords []string) []matcher {
	matchers := make([]matcher, 0, len(keywords))
	for _, keyword := range keywords {
		k := strings.ToLower(strings.TrimSpace(keyword))
		if k == "" {
			continue
		}
		if strings.Contains(k, " ") {
			matchers = append(matchers, matcher{phrase: k})
			continue
		}
		matchers = append(matchers, matcher{re: regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)})
	}
	return matchers
}

func countMatches(matchers []matcher, text string) int {
	hits := 0
	for _, m := range matchers {
		if m.match(text) {
			hits++
		}
	}
	return hits
}

func matchesAny(matchers []matcher, text string) bool {
	for _, m := range matchers {
		if m.match(text) {
			return true
		}
	}
	return false
}

type topicMatchers struct {
	name     string
	matchers []matcher
}

// Scorer computes relevance scores, topic labels and the Open Insurance
// flag for collected articles. It is pure: for a fixed configuration
// and a fixed now, scoring the same article twice yields the same
// result.
type Scorer struct {
	cfg        config.RelevanceConfig
	core       []matcher
	priority   []matcher
	openIns    []matcher
	irrelevant []matcher
	safe       []matcher
	topics     []topicMatchers
	logger     *slog.Logger
}

// DefaultTopic labels articles no topic keyword matched.
const DefaultTopic = "general"

// NewScorer precompiles all keyword matchers from the configuration.
func NewScorer(cfg config.RelevanceConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}

	topics := make([]topicMatchers, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		topics = append(topics, topicMatchers{name: topic.Name, matchers: compileKeywords(topic.Keywords)})
	}

	return &Scorer{
		cfg:        cfg,
		core:       compileKeywords(cfg.CoreKeywords),
		priority:   compileKeywords(cfg.PriorityKeywords),
		openIns:    compileKeywords(cfg.OpenInsuranceKeywords),
		irrelevant: compileKeywords(cfg.IrrelevantKeywords),
		safe:       compileKeywords(cfg.SafeContextWords),
		topics:     topics,
		logger:     logger,
	}
}

// Score returns the relevance score in [0,1], the dominant topic and
// whether the article relates to Open Insurance. The age for the
// recency bonus is measured against the supplied now; an article
// without a published date is treated as brand new and receives the
// maximal bonus, matching the behavior of the historical collector.
func (s *Scorer) Score(title, summary string, publishedAt, now time.Time) (float64, string, bool) {
	text := Normalize(title, summary)

	score := s.categoryScore(s.core, text, s.cfg.CoreWeight)
	score += s.categoryScore(s.priority, text, s.cfg.PriorityWeight)

	openMatches := countMatches(s.openIns, text)
	openInsurance := openMatches > 0
	score += capContribution(float64(openMatches)*s.cfg.OpenInsuranceWeight, s.cfg.CategoryCap)

	if hits := countMatches(s.irrelevant, text); hits > 0 && !matchesAny(s.safe, text) {
		score -= float64(hits) * s.cfg.IrrelevantPenalty
	}

	score += s.recencyBonus(publishedAt, now)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, s.Topic(text), openInsurance
}

// Topic returns the topic with the most keyword matches in the already
// normalized text. Ties between non-zero counts resolve to the first
// topic in configuration order; no match at all yields DefaultTopic.
func (s *Scorer) Topic(text string) string {
	best := DefaultTopic
	bestHits := 0
	for _, topic := range s.topics {
		if hits := countMatches(topic.matchers, text); hits > bestHits {
			best = topic.name
			bestHits = hits
		}
	}
	return best
}

// Classify returns every topic with at least one keyword match, in
// configuration order, falling back to DefaultTopic. These become the
// article's categories.
func (s *Scorer) Classify(text string) []string {
	var categories []string
	for _, topic := range s.topics {
		if matchesAny(topic.matchers, text) {
			categories = append(categories, topic.name)
		}
	}
	if len(categories) == 0 {
		categories = []string{DefaultTopic}
	}
	return categories
}

func (s *Scorer) categoryScore(matchers []matcher, text string, weight float64) float64 {
	return capContribution(float64(countMatches(matchers, text))*weight, s.cfg.CategoryCap)
}

func (s *Scorer) recencyBonus(publishedAt, now time.Time) float64 {
	age := time.Duration(0)
	if !publishedAt.IsZero() {
		age = now.Sub(publishedAt)
	}
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Duration(s.cfg.FreshWindowHours)*time.Hour:
		return s.cfg.FreshBonus
	case age < time.Duration(s.cfg.RecentWindowHours)*time.Hour:
		return s.cfg.RecentBonus
	default:
		return 0
	}
}

func capContribution(value, ceiling float64) float64 {
	if value > ceiling {
		return ceiling
	}
	return value
}
