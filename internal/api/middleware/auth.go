// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/types"
)

// Gin context keys set by the auth middleware.
const (
	SessionKey  = "session"
	AuthTypeKey = "auth_type"
	UserIDKey   = "user_id"
)

type AuthMiddleware struct {
	cache cache.Store
}

func NewAuthMiddleware(store cache.Store) *AuthMiddleware {
	return &AuthMiddleware{
		cache: store,
	}
}

// extractToken takes the session token from the session cookie, falling back
// to a bearer Authorization header.
func extractToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("session"); err == nil && token != "" {
		return token, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth middleware checks for a valid session
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		token, ok := extractToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authentication provided"})
			c.Abort()
			return
		}

		var session types.SessionData
		if err := m.cache.Get(ctx, cache.PrefixSession+token, &session); err != nil {
			if ctx.Err() != nil {
				log.Error().Err(ctx.Err()).Msg("Context cancelled while checking session")
				c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Authentication check timed out"})
				c.Abort()
				return
			}
			if err != cache.ErrKeyNotFound {
				log.Error().Err(err).Msg("error checking session in cache")
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(SessionKey, session)
		c.Set(AuthTypeKey, session.AuthType)
		if session.UserID != "" {
			c.Set(UserIDKey, session.UserID)
		}

		c.Next()
	}
}

// SessionFromContext returns the session set by RequireAuth.
func SessionFromContext(c *gin.Context) (types.SessionData, bool) {
	value, exists := c.Get(SessionKey)
	if !exists {
		return types.SessionData{}, false
	}
	session, ok := value.(types.SessionData)
	return session, ok
}
