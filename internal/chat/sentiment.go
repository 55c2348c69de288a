package chat

import "strings"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "wonderful", "perfect", "love", "like", "happy"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "dislike", "poor", "worst", "disappointed"}
)

// AnalyzeSentiment compares how many words of each list appear in text.
// Matching is by case-insensitive substring, so "dislike" scores on both sides.
func AnalyzeSentiment(text string) Sentiment {
	lowered := strings.ToLower(text)
	pos := countPresent(lowered, positiveWords)
	neg := countPresent(lowered, negativeWords)
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func (c *Client) AnalyzeSentiment(text string) Sentiment {
	return AnalyzeSentiment(text)
}

func countPresent(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}
