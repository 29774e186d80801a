// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sentiment labels financial text with a keyword-based scorer. A
// pre-trained model would replace the lexicons in a production deployment.
package sentiment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tradelite/tradelite/internal/types"
)

var positiveKeywords = []string{
	"bullish", "uptrend", "growth", "profit", "gain", "outperform",
	"buy", "strong", "positive", "up", "rise", "rising", "rally",
	"opportunity", "optimistic", "confident", "exceed", "beat",
	"momentum", "recovery", "upgrade", "success", "improve",
}

var negativeKeywords = []string{
	"bearish", "downtrend", "decline", "loss", "risk", "underperform",
	"sell", "weak", "negative", "down", "fall", "falling", "drop",
	"threat", "pessimistic", "concerned", "miss", "below",
	"slowdown", "recession", "downgrade", "failure", "worsen",
}

var (
	positivePatterns = compileKeywords(positiveKeywords)
	negativePatterns = compileKeywords(negativeKeywords)
)

func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return patterns
}

// scoreThreshold separates positive and negative from neutral.
const scoreThreshold = 0.25

// Analyze scores a piece of financial text in [-1, 1] by counting
// word-boundary keyword matches.
func Analyze(text string) types.SentimentResponse {
	lower := strings.ToLower(text)

	var positiveCount, negativeCount int
	for _, p := range positivePatterns {
		if p.MatchString(lower) {
			positiveCount++
		}
	}
	for _, p := range negativePatterns {
		if p.MatchString(lower) {
			negativeCount++
		}
	}

	total := positiveCount + negativeCount
	if total == 0 {
		return types.SentimentResponse{
			Sentiment:   "neutral",
			Score:       0,
			Explanation: "No clear sentiment indicators found in the text.",
		}
	}

	score := float64(positiveCount-negativeCount) / float64(total)

	switch {
	case score > scoreThreshold:
		return types.SentimentResponse{
			Sentiment:   "positive",
			Score:       score,
			Explanation: fmt.Sprintf("The text contains more positive financial indicators (%d) than negative ones (%d).", positiveCount, negativeCount),
		}
	case score < -scoreThreshold:
		return types.SentimentResponse{
			Sentiment:   "negative",
			Score:       score,
			Explanation: fmt.Sprintf("The text contains more negative financial indicators (%d) than positive ones (%d).", negativeCount, positiveCount),
		}
	default:
		return types.SentimentResponse{
			Sentiment:   "neutral",
			Score:       score,
			Explanation: fmt.Sprintf("The text contains a balanced mix of positive (%d) and negative (%d) financial indicators.", positiveCount, negativeCount),
		}
	}
}
