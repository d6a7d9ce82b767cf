package relevance

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Normalize produces the lowercase text the scorer and the content hash
// operate on: title and summary concatenated, HTML stripped, control
// characters removed and whitespace collapsed.
func Normalize(title, summary string) string {
	text := strings.TrimSpace(title + " " + summary)
	return CleanText(strings.ToLower(StripHTML(text)))
}

// StripHTML removes markup from feed-derived text. Plain text passes
// through untouched.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// CleanText replaces control characters with spaces and collapses runs
// of whitespace.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExtractSummary derives a summary from full content when the collector
// did not provide one. It prefers cutting at the last sentence boundary
// inside the limit; otherwise it truncates at a word boundary with an
// ellipsis.
func ExtractSummary(content string, maxLen int) string {
	if content == "" || maxLen <= 0 {
		return ""
	}

	clean := CleanText(StripHTML(content))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}

	truncated := string(runes[:maxLen])
	if period := strings.LastIndex(truncated, "."); period > maxLen*7/10 {
		return truncated[:period+1]
	}
	if space := strings.LastIndex(truncated, " "); space > 0 {
		return truncated[:space] + "..."
	}
	return truncated + "..."
}
