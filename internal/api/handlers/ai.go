// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/tradelite/tradelite/internal/services/anomaly"
	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/services/feedback"
	"github.com/tradelite/tradelite/internal/services/sentiment"
	"github.com/tradelite/tradelite/internal/types"
)

// AIHandler serves /api/ai: sentiment analysis, anomaly detection and
// educational feedback. All results are cached for an hour; concurrent
// identical feedback requests are coalesced.
type AIHandler struct {
	cache    cache.Store
	feedback *feedback.Service
	group    singleflight.Group
}

func NewAIHandler(store cache.Store, feedbackService *feedback.Service) *AIHandler {
	return &AIHandler{
		cache:    store,
		feedback: feedbackService,
	}
}

// Sentiment handles POST /api/ai/sentiment
func (h *AIHandler) Sentiment(c *gin.Context) {
	var req types.SentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	key := cache.PrefixSentiment + hashString(req.Text)

	var cached types.SentimentResponse
	if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	result := sentiment.Analyze(req.Text)

	if err := h.cache.Set(c.Request.Context(), key, result, cache.ResultTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache sentiment result")
	}

	c.JSON(http.StatusOK, result)
}

// Anomalies handles POST /api/ai/anomalies
func (h *AIHandler) Anomalies(c *gin.Context) {
	var req types.AnomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	windowSize := req.WindowSize
	if windowSize <= 0 {
		windowSize = anomaly.DefaultWindowSize
	}

	key := cache.PrefixAnomaly + hashSeries(req.Data, windowSize)

	var cached types.AnomalyResponse
	if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	result := anomaly.Detect(req.Data, windowSize)

	if err := h.cache.Set(c.Request.Context(), key, result, cache.ResultTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache anomaly result")
	}

	c.JSON(http.StatusOK, result)
}

// Feedback handles POST /api/ai/feedback. It never fails: the provider
// chain ends in a template library.
func (h *AIHandler) Feedback(c *gin.Context) {
	var req types.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	key := fmt.Sprintf("%s%s-%s-%d", cache.PrefixFeedback, req.Asset, req.Strategy, req.Timeframe)

	var cached types.FeedbackResponse
	if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	// Coalesce concurrent generation for the same simulation parameters
	result, _, _ := h.group.Do(key, func() (interface{}, error) {
		response := h.feedback.Generate(c.Request.Context(), req)
		if err := h.cache.Set(c.Request.Context(), key, response, cache.ResultTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache feedback result")
		}
		return response, nil
	})

	c.JSON(http.StatusOK, result.(types.FeedbackResponse))
}

func hashString(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum64())
}

func hashSeries(data []float64, windowSize int) string {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	binary.LittleEndian.PutUint64(buf, uint64(windowSize))
	h.Write(buf)
	return fmt.Sprintf("%x", h.Sum64())
}
