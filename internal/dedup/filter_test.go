package dedup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"InsuranceNewsAgent/internal/config"
	"InsuranceNewsAgent/internal/domain"
	"InsuranceNewsAgent/internal/infrastructure/storage"
)

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sent_articles.json")
	store := storage.NewFileStore(path, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

func testFilter() *Filter {
	return NewFilter(config.DedupConfig{RetentionDays: 30}, nil)
}

func article(title, url, source string) domain.Article {
	return domain.Article{Title: title, URL: url, Source: source, Region: domain.RegionBrasil}
}

func TestComputeFingerprintStableKeys(t *testing.T) {
	t.Parallel()

	a := article("Breaking News", "https://example.com/a#section", "S1")
	b := article("  breaking news ", "HTTPS://EXAMPLE.COM/a", "S2")

	fpA := ComputeFingerprint(a, time.Time{})
	fpB := ComputeFingerprint(b, time.Time{})

	if fpA.TitleHash != fpB.TitleHash {
		t.Fatal("title hash should ignore case and surrounding whitespace")
	}
	if URLKey(fpA) != URLKey(fpB) {
		t.Fatal("url hash should ignore scheme/host case and the fragment")
	}

	other := ComputeFingerprint(article("Breaking News", "https://example.com/A", "S1"), time.Time{})
	if URLKey(fpA) == URLKey(other) {
		t.Fatal("path case is significant and must change the url hash")
	}
}

func TestURLDuplicateRegardlessOfSource(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	filter := testFilter()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	sent := article("T1", "https://x/1", "S1")
	if err := filter.Commit(context.Background(), []domain.Article{sent}, store, now); err != nil {
		t.Fatalf("commit: %v", err)
	}

	incoming := article("Completely different title", "https://x/1", "S2")
	unique, duplicates := filter.Partition([]domain.Article{incoming}, store)

	if len(unique) != 0 || len(duplicates) != 1 {
		t.Fatalf("expected url duplicate, got unique=%d duplicates=%d", len(unique), len(duplicates))
	}
}

func TestTitleDuplicateRequiresSameSource(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	filter := testFilter()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	sent := article("Breaking", "https://s1.example/1", "S1")
	if err := filter.Commit(context.Background(), []domain.Article{sent}, store, now); err != nil {
		t.Fatalf("commit: %v", err)
	}

	crossSource := article("Breaking", "https://s2.example/1", "S2")
	sameSource := article("Breaking", "https://s1.example/other", "S1")

	unique, duplicates := filter.Partition([]domain.Article{crossSource, sameSource}, store)

	if len(unique) != 1 || unique[0].Source != "S2" {
		t.Fatalf("cross-source headline must not be a duplicate: %+v", unique)
	}
	if len(duplicates) != 1 || duplicates[0].Source != "S1" {
		t.Fatalf("same-source headline must be a duplicate: %+v", duplicates)
	}
}

func TestPartitionIsIdempotentAndOrderPreserving(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	filter := testFilter()

	batch := []domain.Article{
		article("A", "https://x/a", "S1"),
		article("B", "https://x/b", "S1"),
		article("C", "https://x/c", "S2"),
	}

	first, firstDup := filter.Partition(batch, store)
	second, secondDup := filter.Partition(batch, store)

	if len(first) != len(second) || len(firstDup) != len(secondDup) {
		t.Fatal("partition against an unchanged store must repeat its result")
	}
	for i := range first {
		if first[i].URL != second[i].URL {
			t.Fatalf("partition order changed at %d", i)
		}
		if first[i].URL != batch[i].URL {
			t.Fatalf("input order not preserved at %d", i)
		}
	}
}

func TestCommitRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sent_articles.json")
	store := storage.NewFileStore(path, nil)
	filter := testFilter()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	batch := []domain.Article{
		article("First story", "https://x/1", "S1"),
		article("Second story", "https://x/2", "S2"),
	}
	if err := filter.Commit(context.Background(), batch, store, now); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded := storage.NewFileStore(path, nil)
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	for _, a := range batch {
		fp := ComputeFingerprint(a, now)
		got, ok := reloaded.Get(URLKey(fp))
		if !ok {
			t.Fatalf("url key missing for %s", a.Title)
		}
		if got.Source != a.Source || !got.SentAt.Equal(now) {
			t.Fatalf("unexpected fingerprint for %s: %+v", a.Title, got)
		}
		if _, ok := reloaded.Get(TitleKey(fp)); !ok {
			t.Fatalf("title key missing for %s", a.Title)
		}
	}
}

func TestCommitKeepsExistingSentAt(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	filter := testFilter()
	earlier := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	later := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	a := article("Story", "https://x/1", "S1")
	if err := filter.Commit(context.Background(), []domain.Article{a}, store, earlier); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := filter.Commit(context.Background(), []domain.Article{a}, store, later); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	fp := ComputeFingerprint(a, earlier)
	got, ok := store.Get(URLKey(fp))
	if !ok {
		t.Fatal("fingerprint missing")
	}
	if !got.SentAt.Equal(earlier) {
		t.Fatalf("first-writer-wins violated: %v", got.SentAt)
	}
}

func TestCleanupBoundary(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	filter := testFilter()
	now := time.Date(2025, time.March, 31, 8, 0, 0, 0, time.UTC)
	retention := 30 * 24 * time.Hour

	expired := domain.Fingerprint{URLHash: "old", Source: "S1", SentAt: now.Add(-retention - 24*time.Hour)}
	fresh := domain.Fingerprint{URLHash: "new", Source: "S1", SentAt: now.Add(-retention + 24*time.Hour)}
	store.Put("url:old", expired)
	store.Put("url:new", fresh)

	if err := filter.Cleanup(context.Background(), store, now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, ok := store.Get("url:old"); ok {
		t.Fatal("expired fingerprint survived cleanup")
	}
	if _, ok := store.Get("url:new"); !ok {
		t.Fatal("retained fingerprint was removed")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	store.Put("url:a", domain.Fingerprint{Source: "S1", SentAt: now.Add(-48 * time.Hour)})
	store.Put("url:b", domain.Fingerprint{Source: "S1", SentAt: now})
	store.Put("url:c", domain.Fingerprint{Source: "S2", SentAt: now.Add(-24 * time.Hour)})

	stats := Stats(store)
	if stats.Total != 3 || stats.BySource["S1"] != 2 || stats.BySource["S2"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.Oldest.Equal(now.Add(-48*time.Hour)) || !stats.Newest.Equal(now) {
		t.Fatalf("unexpected time range: %+v", stats)
	}
}
