// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/services/feedback"
	"github.com/tradelite/tradelite/internal/types"
)

func newTestAIHandler() (*AIHandler, cache.Store) {
	store := cache.NewMemoryStore()
	return NewAIHandler(store, feedback.NewService("", "")), store
}

func TestSentimentEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, store := newTestAIHandler()

		w := postJSON(t, handler.Sentiment, `{"text": "Bullish rally with strong momentum"}`)

		require.Equal(t, http.StatusOK, w.Code)

		var result types.SentimentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "positive", result.Sentiment)

		// Result cached under the text hash
		key := cache.PrefixSentiment + hashString("Bullish rally with strong momentum")
		var cached types.SentimentResponse
		assert.NoError(t, store.Get(context.Background(), key, &cached))
	})

	t.Run("Served From Cache", func(t *testing.T) {
		handler, store := newTestAIHandler()

		canned := types.SentimentResponse{Sentiment: "positive", Score: 0.9, Explanation: "cached"}
		key := cache.PrefixSentiment + hashString("some text")
		require.NoError(t, store.Set(context.Background(), key, canned, cache.ResultTTL))

		w := postJSON(t, handler.Sentiment, `{"text": "some text"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"explanation":"cached"`)
	})

	t.Run("Missing Text", func(t *testing.T) {
		handler, _ := newTestAIHandler()

		w := postJSON(t, handler.Sentiment, `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAnomaliesEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, _ := newTestAIHandler()

		w := postJSON(t, handler.Anomalies, `{"data": [1, 2, 3], "window_size": 5}`)

		require.Equal(t, http.StatusOK, w.Code)

		var result types.AnomalyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Empty(t, result.Anomalies)
		assert.Len(t, result.Scores, 3)
		assert.Equal(t, 3.0, result.Threshold)
	})

	t.Run("Missing Data", func(t *testing.T) {
		handler, _ := newTestAIHandler()

		w := postJSON(t, handler.Anomalies, `{"window_size": 5}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Cache Key Includes Window Size", func(t *testing.T) {
		assert.NotEqual(t, hashSeries([]float64{1, 2, 3}, 5), hashSeries([]float64{1, 2, 3}, 10))
		assert.Equal(t, hashSeries([]float64{1, 2, 3}, 5), hashSeries([]float64{1, 2, 3}, 5))
	})
}

func TestFeedbackEndpoint(t *testing.T) {
	t.Run("Template Fallback", func(t *testing.T) {
		handler, store := newTestAIHandler()

		w := postJSON(t, handler.Feedback, `{"asset": "BTC", "strategy": "sma_crossover", "timeframe": 30, "performance": {"roi": 20, "final_capital": 12000}}`)

		require.Equal(t, http.StatusOK, w.Code)

		var result types.FeedbackResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Contains(t, result.Feedback, "Simple Moving Average (SMA) Crossover")
		assert.NotEmpty(t, result.KeyPoints)
		assert.NotEmpty(t, result.ImprovementSuggestions)

		// Cached under the simulation parameters
		var cached types.FeedbackResponse
		assert.NoError(t, store.Get(context.Background(), cache.PrefixFeedback+"BTC-sma_crossover-30", &cached))
	})

	t.Run("Served From Cache", func(t *testing.T) {
		handler, store := newTestAIHandler()

		canned := types.FeedbackResponse{Feedback: "cached feedback", KeyPoints: []string{"a"}, ImprovementSuggestions: []string{"b"}}
		require.NoError(t, store.Set(context.Background(), cache.PrefixFeedback+"ETH-rsi-10", canned, cache.ResultTTL))

		w := postJSON(t, handler.Feedback, `{"asset": "ETH", "strategy": "rsi", "timeframe": 10}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "cached feedback")
	})

	t.Run("Missing Fields", func(t *testing.T) {
		handler, _ := newTestAIHandler()

		w := postJSON(t, handler.Feedback, `{"asset": "BTC"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
