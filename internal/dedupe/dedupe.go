// Package dedupe removes repeated stories from a fetch batch.
//
// Exact duplicates share a canonical link and therefore a content id; they
// are authoritative and checked first. Near-duplicates are detected by a
// sequence-matching ratio over titles and only within one batch.
package dedupe

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/DeafMist/assembly-news-radar/internal/models"
)

// DefaultThreshold is the title ratio above which two items are duplicates.
const DefaultThreshold = 0.6

// ContentID hashes the canonical link into a stable cache key.
func ContentID(link string) string {
	s := sha1.Sum([]byte(strings.TrimSpace(link)))
	return hex.EncodeToString(s[:])
}

// Similarity returns the sequence-matching ratio of a and b in [0,1],
// compared rune by rune.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Result is the outcome of deduplicating one batch.
type Result struct {
	// Fresh items have links not yet known to the cache.
	Fresh []models.NewsItem
	// Refreshes have links the cache already holds.
	Refreshes []models.NewsItem
	// Dropped counts exact and fuzzy duplicates removed from the batch.
	Dropped int
}

// Deduplicator applies exact-link and fuzzy-title dedup.
type Deduplicator struct {
	threshold float64
}

// New creates a deduplicator. A non-positive threshold uses DefaultThreshold.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// Threshold returns the configured fuzzy threshold.
func (d *Deduplicator) Threshold() float64 {
	return d.threshold
}

// Batch deduplicates items in order; first seen wins. known reports whether
// a content id is already cached and may be nil. Items with a known id are
// refreshes: they skip fuzzy elimination but later items are still compared
// against their titles.
func (d *Deduplicator) Batch(items []models.NewsItem, known func(id string) bool) Result {
	var res Result
	seenIDs := make(map[string]struct{}, len(items))
	kept := make([]string, 0, len(items))

	for _, item := range items {
		if item.ID == "" {
			item.ID = ContentID(item.Link)
		}
		if _, dup := seenIDs[item.ID]; dup {
			res.Dropped++
			continue
		}
		seenIDs[item.ID] = struct{}{}

		if known != nil && known(item.ID) {
			res.Refreshes = append(res.Refreshes, item)
			kept = append(kept, item.Title)
			continue
		}

		if d.nearDuplicate(item.Title, kept) {
			res.Dropped++
			continue
		}
		res.Fresh = append(res.Fresh, item)
		kept = append(kept, item.Title)
	}
	return res
}

// Unique returns the surviving items of a batch that is not checked
// against any cache.
func (d *Deduplicator) Unique(items []models.NewsItem) []models.NewsItem {
	return d.Batch(items, nil).Fresh
}

// nearDuplicate never matches empty titles, which would otherwise compare
// equal to each other.
func (d *Deduplicator) nearDuplicate(title string, kept []string) bool {
	if title == "" {
		return false
	}
	for _, other := range kept {
		if other == "" {
			continue
		}
		if Similarity(title, other) > d.threshold {
			return true
		}
	}
	return false
}
