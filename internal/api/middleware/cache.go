// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/services/cache"
)

const (
	HealthCheckTTL = 5 * time.Minute
	ListTTL        = 30 * time.Second // simulation listings change on every create
	DefaultTTL     = 30 * time.Second
)

// CacheMiddleware serves cached JSON responses for GET endpoints.
type CacheMiddleware struct {
	cache cache.Store
}

type CachedResponse struct {
	Status      int               `json:"status"`
	Body        []byte            `json:"body"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers"`
}

func NewCacheMiddleware(store cache.Store) *CacheMiddleware {
	return &CacheMiddleware{
		cache: store,
	}
}

func (m *CacheMiddleware) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only cache GET requests
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		cacheKey := "response:" + c.Request.URL.String()

		var cachedResponse CachedResponse
		err := m.cache.Get(c.Request.Context(), cacheKey, &cachedResponse)
		if err == nil {
			for k, v := range cachedResponse.Headers {
				c.Header(k, v)
			}

			c.Header("X-Cache", "HIT")
			c.Data(cachedResponse.Status, cachedResponse.ContentType, cachedResponse.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBufferString(""),
		}
		c.Writer = w

		c.Next()

		// Only cache successful JSON responses
		contentType := w.Header().Get("Content-Type")
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 && isJSONResponse(contentType) {
			headers := make(map[string]string)
			for k, v := range w.Header() {
				if len(v) > 0 {
					headers[k] = v[0]
				}
			}

			responseData := CachedResponse{
				Status:      c.Writer.Status(),
				Body:        w.body.Bytes(),
				ContentType: contentType,
				Headers:     headers,
			}

			ttl := m.getTTL(c.Request.URL.Path)

			if err := m.cache.Set(c.Request.Context(), cacheKey, responseData, ttl); err != nil {
				log.Error().Err(err).Str("key", cacheKey).Msg("Failed to cache response")
			}
		}

		c.Header("X-Cache", "MISS")
	}
}

// getTTL determines cache TTL based on the endpoint
func (m *CacheMiddleware) getTTL(path string) time.Duration {
	switch {
	case strings.Contains(path, "/health"):
		return HealthCheckTTL
	case strings.Contains(path, "/simulations"):
		return ListTTL
	default:
		return DefaultTTL
	}
}

func isJSONResponse(contentType string) bool {
	return contentType == "application/json" || contentType == "application/json; charset=utf-8"
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
