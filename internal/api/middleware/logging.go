// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// sensitiveParams are query parameter names redacted from request logs.
var sensitiveParams = []string{
	"apiKey",
	"api_key",
	"key",
	"token",
	"password",
	"secret",
}

// Logger returns a gin middleware for logging HTTP requests with zerolog
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if query := redactQuery(c.Request.URL.RawQuery); query != "" {
			path = path + "?" + query
		}

		event := log.Info()
		if len(c.Errors) > 0 {
			event = log.Error().Err(c.Errors.Last())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("HTTP Request")
	}
}

func redactQuery(query string) string {
	if query == "" {
		return ""
	}

	parsed, err := url.ParseQuery(query)
	if err != nil {
		return query
	}

	for param := range parsed {
		for _, sensitive := range sensitiveParams {
			if strings.Contains(strings.ToLower(param), strings.ToLower(sensitive)) {
				parsed.Set(param, "[REDACTED]")
			}
		}
	}
	return parsed.Encode()
}
