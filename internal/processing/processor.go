package processing

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	urlRegex    = regexp.MustCompile(`https?://[^\s]+`)
	tagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespace  = regexp.MustCompile(`[\s\p{Zs}]+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

var stopwords = map[string]struct{}{
	"및": {}, "등": {}, "위해": {}, "대한": {}, "관련": {}, "통해": {},
	"있는": {}, "있다": {}, "했다": {}, "밝혔다": {}, "오늘": {}, "지난": {},
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {},
}

// StripMarkup removes HTML tags, decodes entities and squeezes whitespace.
// Search APIs return titles like "<b>국회</b> &quot;법안&quot;".
func StripMarkup(input string) string {
	if input == "" {
		return ""
	}
	var text string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		text = html.UnescapeString(tagRegex.ReplaceAllString(input, " "))
	} else {
		text = doc.Text()
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// RemoveURLs removes all URLs from the input text.
func RemoveURLs(input string) string {
	return urlRegex.ReplaceAllString(input, " ")
}

// CleanText strips HTML entities, punctuation, squeezes whitespace, and removes URLs.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = RemoveURLs(decoded)
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	decoded = strings.TrimSpace(decoded)
	return decoded
}

// KeywordCount is one entry of a keyword tally.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// TallyKeywords counts non stop-word tokens across texts, most frequent first.
func TallyKeywords(texts []string, limit, minLen int) []KeywordCount {
	freq := make(map[string]int)
	for _, text := range texts {
		clean := strings.ToLower(CleanText(text))
		for _, token := range strings.Fields(clean) {
			token = strings.TrimFunc(token, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsNumber(r)
			})
			if len([]rune(token)) < minLen {
				continue
			}
			if _, skip := stopwords[token]; skip {
				continue
			}
			freq[token]++
		}
	}

	if len(freq) == 0 {
		return nil
	}

	pairs := make([]KeywordCount, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, KeywordCount{Word: word, Count: count})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count == pairs[j].Count {
			return pairs[i].Word < pairs[j].Word
		}
		return pairs[i].Count > pairs[j].Count
	})

	if limit > 0 && limit < len(pairs) {
		pairs = pairs[:limit]
	}
	return pairs
}
