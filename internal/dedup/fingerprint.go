package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"InsuranceNewsAgent/internal/domain"
)

// Key prefixes for the two lookup variants of a fingerprint.
const (
	urlKeyPrefix   = "url:"
	titleKeyPrefix = "title:"
)

// ComputeFingerprint derives the content-addressed digests of an
// article. The digests are dedup keys, not security material; md5 keeps
// the store format compact and stable.
func ComputeFingerprint(article domain.Article, now time.Time) domain.Fingerprint {
	title := strings.ToLower(strings.TrimSpace(article.Title))
	content := strings.ToLower(strings.TrimSpace(article.Title + " " + article.Summary))

	return domain.Fingerprint{
		URLHash:     hashString(normalizeURL(article.URL)),
		TitleHash:   hashString(title),
		ContentHash: hashString(content),
		Source:      article.Source,
		SentAt:      now,
	}
}

// URLKey is the store key for the URL variant of a fingerprint.
func URLKey(fp domain.Fingerprint) string { return urlKeyPrefix + fp.URLHash }

// TitleKey is the store key for the title variant of a fingerprint.
func TitleKey(fp domain.Fingerprint) string { return titleKeyPrefix + fp.TitleHash }

// normalizeURL lowercases scheme and host and strips the fragment so
// trivially different links to the same page hash identically.
func normalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}

func hashString(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
