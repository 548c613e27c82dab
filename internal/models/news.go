package models

import "time"

// Unknown marks an optional upstream field that was absent.
const Unknown = "unknown"

// Candidate is a raw search hit before any filtering.
type Candidate struct {
	Title       string
	Description string
	Link        string
	PubDate     string
	Keyword     string
}

// Entity is a known political entity supplied by the member directory.
type Entity struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation" yaml:"affiliation"`
	District    string `json:"district" yaml:"district"`
}

// NewsItem is a candidate that survived classification, the time window and dedup.
type NewsItem struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Link            string    `json:"link"`
	PubDate         string    `json:"pub_date"`
	Published       time.Time `json:"published"`
	Keyword         string    `json:"keyword"`
	CachedAt        time.Time `json:"cached_at"`
	MatchedKeywords []string  `json:"matched_keywords"`
	Entities        []Entity  `json:"entities"`
}

// Text is the combined text used for the keyword tally.
func (n NewsItem) Text() string {
	return n.Title + " " + n.Description
}

// Clone returns a copy that shares no slices with n.
func (n NewsItem) Clone() NewsItem {
	out := n
	if n.MatchedKeywords != nil {
		out.MatchedKeywords = append([]string(nil), n.MatchedKeywords...)
	}
	if n.Entities != nil {
		out.Entities = append([]Entity(nil), n.Entities...)
	}
	return out
}
