package classify_test

import (
	"testing"

	"github.com/DeafMist/assembly-news-radar/internal/classify"
	"github.com/stretchr/testify/require"
)

func testPolicy() classify.Policy {
	return classify.Policy{
		Include: []string{"국회", "의원", "법안", " ", ""},
		Exclude: []string{"연예", "드라마"},
	}
}

func TestIsRelevant(t *testing.T) {
	c := classify.New(testPolicy())

	tests := []struct {
		name        string
		title       string
		description string
		want        bool
	}{
		{name: "include in title", title: "국회 본회의 개의", want: true},
		{name: "include in description", title: "오늘의 소식", description: "의원 발언 논란", want: true},
		{name: "no include", title: "날씨 맑음", description: "주말 나들이", want: false},
		{name: "exclude dominates", title: "국회의원 드라마 출연", want: false},
		{name: "exclude in description", title: "법안 통과", description: "연예계 반응", want: false},
		{name: "case sensitive", title: "ASSEMBLY", want: false},
		{name: "empty", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.IsRelevant(tt.title, tt.description))
		})
	}
}

func TestClassifyReturnsMatchedTerms(t *testing.T) {
	c := classify.New(testPolicy())

	matched, ok := c.Classify("국회 법안 처리", "")
	require.True(t, ok)
	require.Equal(t, []string{"국회", "법안"}, matched)

	matched, ok = c.Classify("국회 법안", "드라마")
	require.False(t, ok)
	require.Nil(t, matched)
}

func TestEmptyPolicyRejectsEverything(t *testing.T) {
	c := classify.New(classify.Policy{})
	require.False(t, c.IsRelevant("국회", "의원"))
}
