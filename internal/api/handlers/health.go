// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/tradelite/tradelite/internal/buildinfo"
	"github.com/tradelite/tradelite/internal/services/cache"
)

// DBPinger is the database surface the health handler needs.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the public status endpoints.
type HealthHandler struct {
	db    DBPinger
	cache cache.Store
}

func NewHealthHandler(db DBPinger, store cache.Store) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: store,
	}
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "TradeLite Pro API is running",
	})
}

// Health handles GET /health. The database and cache are pinged
// concurrently; a failing component degrades the overall status.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var dbErr, cacheErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbErr = h.db.PingContext(gctx)
		return nil
	})
	g.Go(func() error {
		probe := cache.PrefixRate + "healthcheck"
		cacheErr = h.cache.Set(gctx, probe, time.Now().Unix(), time.Minute)
		return nil
	})
	_ = g.Wait()

	components := map[string]string{
		"database": "healthy",
		"cache":    "healthy",
	}
	if dbErr != nil {
		components["database"] = "unhealthy"
	}
	if cacheErr != nil {
		components["cache"] = "unhealthy"
	}

	status := "healthy"
	code := http.StatusOK
	for _, state := range components {
		if state != "healthy" {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, gin.H{
		"status":     status,
		"version":    buildinfo.Version,
		"components": components,
	})
}
