// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package feedback generates educational feedback for completed
// simulations through a provider chain: DeepSeek, then OpenAI, then a
// built-in template library. Generation never fails; the templates are the
// terminal fallback.
package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/services/llm"
	"github.com/tradelite/tradelite/internal/types"
)

const systemPrompt = "You are an educational assistant for trading simulations."

var strategyDisplayNames = map[string]string{
	"sma_crossover": "Simple Moving Average Crossover",
	"ema_crossover": "Exponential Moving Average Crossover",
	"macd":          "Moving Average Convergence Divergence (MACD)",
	"rsi":           "Relative Strength Index (RSI)",
	"bollinger":     "Bollinger Bands",
}

// StrategyDisplayName returns the human-readable name for a strategy key.
func StrategyDisplayName(strategy string) string {
	if name, ok := strategyDisplayNames[strategy]; ok {
		return name
	}
	return strategy
}

var (
	defaultKeyPoints = []string{
		"Understanding market trends",
		"Risk management is essential",
		"Past performance is not indicative of future results",
	}
	defaultSuggestions = []string{
		"Consider backtesting with different parameters",
		"Combine with other indicators for confirmation",
	}
)

const (
	maxKeyPoints   = 5
	maxSuggestions = 3
)

// Service runs the provider chain.
type Service struct {
	providers []*llm.Client
}

// NewService builds the chain from the configured API keys. Clients without
// a key are skipped at generation time.
func NewService(deepseekKey, openaiKey string) *Service {
	return &Service{
		providers: []*llm.Client{
			llm.NewDeepSeekClient(deepseekKey),
			llm.NewOpenAIClient(openaiKey),
		},
	}
}

// Generate produces feedback for a simulation outcome. Provider failures are
// logged and the next provider is tried; the template library always
// answers.
func (s *Service) Generate(ctx context.Context, req types.FeedbackRequest) types.FeedbackResponse {
	prompt := buildPrompt(req)

	for _, provider := range s.providers {
		if !provider.Enabled() {
			continue
		}

		content, err := provider.ChatCompletion(ctx, systemPrompt, prompt)
		if err != nil {
			log.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("strategy", req.Strategy).
				Msg("Feedback provider failed, trying next")
			continue
		}

		return parseCompletion(content)
	}

	return templateFeedback(req)
}

func buildPrompt(req types.FeedbackRequest) string {
	return fmt.Sprintf(`Generate educational feedback for a trading simulation with the following parameters:
- Asset: %s
- Strategy: %s
- Timeframe: %d days
- Performance: ROI of %v%%, Final capital: $%v

Provide detailed educational feedback explaining how this strategy works, what factors might have influenced the performance, and what the user could learn from this simulation. Include key points and improvement suggestions.

Format the response as:
1. Detailed feedback paragraph
2. List of 3-5 key points
3. List of 2-3 improvement suggestions

Remember this is for educational purposes only and not financial advice.`,
		req.Asset, StrategyDisplayName(req.Strategy), req.Timeframe,
		req.Performance.ROI, req.Performance.FinalCapital)
}

// parseCompletion splits a completion into the response sections. The first
// paragraph becomes the feedback text; paragraphs mentioning "key point" or
// "improvement"/"suggestion" contribute list items.
func parseCompletion(content string) types.FeedbackResponse {
	sections := strings.Split(content, "\n\n")

	var feedback string
	if len(sections) > 0 {
		feedback = sections[0]
	}

	var keyPoints, suggestions []string
	for _, section := range sections {
		lower := strings.ToLower(section)
		switch {
		case strings.Contains(lower, "key point"):
			keyPoints = append(keyPoints, sectionItems(section)...)
		case strings.Contains(lower, "improvement") || strings.Contains(lower, "suggestion"):
			suggestions = append(suggestions, sectionItems(section)...)
		}
	}

	if len(keyPoints) == 0 {
		keyPoints = defaultKeyPoints
	}
	if len(suggestions) == 0 {
		suggestions = defaultSuggestions
	}
	if len(keyPoints) > maxKeyPoints {
		keyPoints = keyPoints[:maxKeyPoints]
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return types.FeedbackResponse{
		Feedback:               feedback,
		KeyPoints:              keyPoints,
		ImprovementSuggestions: suggestions,
	}
}

// sectionItems returns the non-empty lines after a section heading, with
// bullet markers trimmed.
func sectionItems(section string) []string {
	lines := strings.Split(section, "\n")
	if len(lines) < 2 {
		return nil
	}

	var items []string
	for _, line := range lines[1:] {
		if item := strings.Trim(line, "- \t"); item != "" {
			items = append(items, item)
		}
	}
	return items
}
