// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/types"
)

func setupAuthRouter(store cache.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", NewAuthMiddleware(store).RequireAuth(), func(c *gin.Context) {
		session, _ := SessionFromContext(c)
		c.JSON(http.StatusOK, gin.H{"email": session.Email})
	})
	return r
}

func storeSession(t *testing.T, store cache.Store, token string, session types.SessionData) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), cache.PrefixSession+token, session, time.Hour))
}

func TestRequireAuth(t *testing.T) {
	t.Run("No Token", func(t *testing.T) {
		r := setupAuthRouter(cache.NewMemoryStore())

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "No authentication provided")
	})

	t.Run("Bearer Token", func(t *testing.T) {
		store := cache.NewMemoryStore()
		storeSession(t, store, "tok", types.SessionData{
			UserID:    "1",
			Email:     "a@b.com",
			AuthType:  "builtin",
			ExpiresAt: time.Now().Add(time.Hour),
		})

		r := setupAuthRouter(store)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "a@b.com")
	})

	t.Run("Session Cookie", func(t *testing.T) {
		store := cache.NewMemoryStore()
		storeSession(t, store, "cookie-tok", types.SessionData{
			Email:     "c@b.com",
			ExpiresAt: time.Now().Add(time.Hour),
		})

		r := setupAuthRouter(store)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "cookie-tok"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "c@b.com")
	})

	t.Run("Unknown Token", func(t *testing.T) {
		r := setupAuthRouter(cache.NewMemoryStore())

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer unknown")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired session")
	})

	t.Run("Expired Session", func(t *testing.T) {
		store := cache.NewMemoryStore()
		storeSession(t, store, "old", types.SessionData{
			Email:     "a@b.com",
			ExpiresAt: time.Now().Add(-time.Minute),
		})

		r := setupAuthRouter(store)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer old")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Authorization Header", func(t *testing.T) {
		r := setupAuthRouter(cache.NewMemoryStore())

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "No authentication provided")
	})
}
