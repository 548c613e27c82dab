// Package classify decides whether a news candidate is politically relevant.
package classify

import "strings"

// Policy lists the include and exclude terms. Matching is case-sensitive
// substring containment, which suits Korean text without tokenization.
type Policy struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Classifier applies a Policy.
type Classifier struct {
	include []string
	exclude []string
}

// New builds a classifier, ignoring blank terms.
func New(p Policy) *Classifier {
	return &Classifier{
		include: compact(p.Include),
		exclude: compact(p.Exclude),
	}
}

// IsRelevant reports whether the combined text passes the policy.
func (c *Classifier) IsRelevant(title, description string) bool {
	_, ok := c.Classify(title, description)
	return ok
}

// Classify returns the include terms found in the text. Any exclude term
// rejects the text regardless of include matches.
func (c *Classifier) Classify(title, description string) ([]string, bool) {
	text := title + " " + description

	for _, term := range c.exclude {
		if strings.Contains(text, term) {
			return nil, false
		}
	}

	var matched []string
	for _, term := range c.include {
		if strings.Contains(text, term) {
			matched = append(matched, term)
		}
	}
	return matched, len(matched) > 0
}

func compact(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
