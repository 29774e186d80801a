// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tradelite/tradelite/internal/services/cache"
)

func TestCacheMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Caches GET Responses", func(t *testing.T) {
		calls := 0
		r := gin.New()
		r.GET("/data", NewCacheMiddleware(cache.NewMemoryStore()).Cache(), func(c *gin.Context) {
			calls++
			c.JSON(http.StatusOK, gin.H{"value": calls})
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/data", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"value":1`)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/data", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.Contains(t, w.Body.String(), `"value":1`)
		assert.Equal(t, 1, calls)
	})

	t.Run("Distinct Query Strings Cached Separately", func(t *testing.T) {
		r := gin.New()
		r.GET("/data", NewCacheMiddleware(cache.NewMemoryStore()).Cache(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"q": c.Query("q")})
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/data?q=a", nil))
		assert.Contains(t, w.Body.String(), `"q":"a"`)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/data?q=b", nil))
		assert.Contains(t, w.Body.String(), `"q":"b"`)
	})

	t.Run("Skips POST Requests", func(t *testing.T) {
		calls := 0
		r := gin.New()
		r.POST("/data", NewCacheMiddleware(cache.NewMemoryStore()).Cache(), func(c *gin.Context) {
			calls++
			c.JSON(http.StatusOK, gin.H{"value": calls})
		})

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("POST", "/data", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
		assert.Equal(t, 2, calls)
	})

	t.Run("Does Not Cache Errors", func(t *testing.T) {
		calls := 0
		r := gin.New()
		r.GET("/data", NewCacheMiddleware(cache.NewMemoryStore()).Cache(), func(c *gin.Context) {
			calls++
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		})

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/data", nil))
			assert.Equal(t, http.StatusNotFound, w.Code)
		}
		assert.Equal(t, 2, calls)
	})
}

func TestGetTTL(t *testing.T) {
	m := NewCacheMiddleware(cache.NewMemoryStore())

	assert.Equal(t, HealthCheckTTL, m.getTTL("/health"))
	assert.Equal(t, ListTTL, m.getTTL("/api/simulations"))
	assert.Equal(t, DefaultTTL, m.getTTL("/other"))
	assert.Equal(t, 5*time.Minute, HealthCheckTTL)
}
