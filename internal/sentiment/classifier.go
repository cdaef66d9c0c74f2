// Package sentiment labels news text with a lexical keyword policy.
package sentiment

import (
	"strings"

	"btc-news-timeline/internal/domain"
)

var (
	positiveKeywords = []string{
		"up", "rise", "rising", "gain", "bull", "bullish", "growth",
		"increase", "soar", "surge", "good", "positive", "rally",
	}
	negativeKeywords = []string{
		"down", "fall", "falling", "drop", "bear", "bearish", "crash",
		"decline", "decrease", "bad", "negative", "dump", "plunge",
	}
)

// Score returns how many positive and negative keywords occur in text.
// Matching is substring containment on the lowercased text, each keyword counted once.
func Score(text string) (positive, negative int) {
	text = strings.ToLower(text)
	return countMatches(text, positiveKeywords), countMatches(text, negativeKeywords)
}

// Classify returns positive, negative or neutral. Ties, including 0-0, are neutral.
func Classify(text string) domain.Sentiment {
	pos, neg := Score(text)
	switch {
	case pos > neg:
		return domain.SentimentPositive
	case neg > pos:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// ArticleText joins the fields an article is classified on.
func ArticleText(title, description, content string) string {
	return strings.Join([]string{title, description, content}, " ")
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}
