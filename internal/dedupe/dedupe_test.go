package dedupe_test

import (
	"testing"

	"github.com/DeafMist/assembly-news-radar/internal/dedupe"
	"github.com/DeafMist/assembly-news-radar/internal/models"
	"github.com/stretchr/testify/require"
)

func item(title, link string) models.NewsItem {
	return models.NewsItem{Title: title, Link: link}
}

func titles(items []models.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestContentIDStable(t *testing.T) {
	a := dedupe.ContentID("https://news.example.com/1")
	b := dedupe.ContentID(" https://news.example.com/1 ")
	require.NotEmpty(t, a)
	require.Equal(t, a, b)
	require.NotEqual(t, a, dedupe.ContentID("https://news.example.com/2"))
}

func TestSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, dedupe.Similarity("국회", "국회"), 1e-9)
	require.InDelta(t, 0.0, dedupe.Similarity("abc", "xyz"), 1e-9)
	require.InDelta(t, 0.6, dedupe.Similarity("abcde", "abcxy"), 1e-9)
	require.InDelta(t, 8.0/13.0, dedupe.Similarity("abcdef", "abcdxyz"), 1e-9)
	require.Greater(t, dedupe.Similarity("국회 법안 통과", "국회서 법안 통과"), 0.8)
}

func TestFuzzyThresholdIsStrict(t *testing.T) {
	d := dedupe.New(dedupe.DefaultThreshold)

	// ratio exactly 0.6: both kept
	got := d.Unique([]models.NewsItem{item("abcde", "l1"), item("abcxy", "l2")})
	require.Equal(t, []string{"abcde", "abcxy"}, titles(got))

	// ratio ~0.615: second dropped
	got = d.Unique([]models.NewsItem{item("abcdef", "l1"), item("abcdxyz", "l2")})
	require.Equal(t, []string{"abcdef"}, titles(got))
}

func TestBatchFirstSeenWins(t *testing.T) {
	d := dedupe.New(0)
	res := d.Batch([]models.NewsItem{
		item("국회 법안 통과", "https://a/1"),
		item("국회서 법안 통과", "https://b/2"),
		item("대통령 순방 일정", "https://c/3"),
	}, nil)

	require.Equal(t, []string{"국회 법안 통과", "대통령 순방 일정"}, titles(res.Fresh))
	require.Empty(t, res.Refreshes)
	require.Equal(t, 1, res.Dropped)
	require.Equal(t, dedupe.ContentID("https://a/1"), res.Fresh[0].ID)
}

func TestBatchExactLinkDuplicates(t *testing.T) {
	d := dedupe.New(0)
	res := d.Batch([]models.NewsItem{
		item("첫 제목", "https://a/1"),
		item("완전히 다른 제목", "https://a/1"),
	}, nil)

	require.Equal(t, []string{"첫 제목"}, titles(res.Fresh))
	require.Equal(t, 1, res.Dropped)
}

func TestBatchKnownLinkIsRefresh(t *testing.T) {
	d := dedupe.New(0)
	cachedID := dedupe.ContentID("https://cached/1")
	known := func(id string) bool { return id == cachedID }

	res := d.Batch([]models.NewsItem{
		item("xyz", "https://cached/1"),
		item("국회 예산 심사", "https://new/2"),
	}, known)

	require.Equal(t, []string{"xyz"}, titles(res.Refreshes))
	require.Equal(t, []string{"국회 예산 심사"}, titles(res.Fresh))
	require.Zero(t, res.Dropped)
}

func TestBatchRefreshAnchorsFuzzyComparison(t *testing.T) {
	d := dedupe.New(0)
	cachedID := dedupe.ContentID("https://cached/1")
	known := func(id string) bool { return id == cachedID }

	res := d.Batch([]models.NewsItem{
		item("국회 법안 통과", "https://cached/1"),
		item("국회서 법안 통과", "https://new/2"),
	}, known)

	require.Len(t, res.Refreshes, 1)
	require.Empty(t, res.Fresh)
	require.Equal(t, 1, res.Dropped)
}

func TestBatchIdempotent(t *testing.T) {
	d := dedupe.New(0)
	batch := []models.NewsItem{
		item("국회 법안 통과", "https://a/1"),
		item("국회서 법안 통과", "https://b/2"),
		item("국회 법안 통과", "https://a/1"),
		item("야당 대표 기자회견", "https://c/3"),
	}

	first := d.Batch(batch, nil)
	second := d.Batch(batch, nil)
	require.Equal(t, first, second)
	require.Equal(t, []string{"국회 법안 통과", "야당 대표 기자회견"}, titles(first.Fresh))
}

func TestEmptyTitlesAreNotNearDuplicates(t *testing.T) {
	d := dedupe.New(dedupe.DefaultThreshold)
	got := d.Unique([]models.NewsItem{
		item("", "l1"),
		item("", "l2"),
		item("국회 법안 통과", "l3"),
	})
	require.Len(t, got, 3)

	res := d.Batch([]models.NewsItem{item("", "l1"), item("", "l2")}, func(id string) bool {
		return id == dedupe.ContentID("l1")
	})
	require.Len(t, res.Refreshes, 1)
	require.Len(t, res.Fresh, 1)
	require.Zero(t, res.Dropped)
}
