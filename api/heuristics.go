package api

import (
	"math"
	"strings"
)

// Keyword lists are matched as substrings of the lower-cased text, so
// "believe" counts as "lie" and "dislike" counts as both "like" and "dislike".
var (
	falseKeywords    = []string{"fake", "false", "misinformation", "wrong", "lie", "hoax"}
	positiveKeywords = []string{"good", "great", "excellent", "love", "like", "amazing"}
	negativeKeywords = []string{"bad", "terrible", "hate", "awful", "dislike"}
)

// Reception is the keyword-based guess of how a comment will be received.
type Reception struct {
	UpvoteRange    string  `json:"upvoteRange"`
	AgreementScore float64 `json:"agreementScore"`
	Confidence     float64 `json:"confidence"`
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			hits++
		}
	}
	return hits
}

// PredictTruth lowers a score of 1 by 0.2 per false-flag keyword, down to 0.
func PredictTruth(text string) float64 {
	hits := countHits(strings.ToLower(text), falseKeywords)
	return math.Max(0, 1.0-float64(0.2*float64(hits)))
}

// PredictLike moves 0.5 by 0.1 per positive minus negative keyword, within [0,1].
func PredictLike(text string) float64 {
	lower := strings.ToLower(text)
	diff := countHits(lower, positiveKeywords) - countHits(lower, negativeKeywords)
	score := 0.5 + float64(0.1*float64(diff))
	return math.Min(math.Max(score, 0), 1)
}

func UpvoteRange(score float64) string {
	switch {
	case score < 0.3:
		return "0-5"
	case score < 0.6:
		return "5-10"
	default:
		return "10+"
	}
}

func PredictReception(text string) Reception {
	truth := PredictTruth(text)
	like := PredictLike(text)
	return Reception{
		UpvoteRange:    UpvoteRange(like),
		AgreementScore: truth,
		Confidence:     math.Min(like, truth),
	}
}
