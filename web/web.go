// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package web serves the embedded interactive API documentation.
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var assets embed.FS

// RegisterRoutes mounts the API docs endpoints.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		page, err := assets.ReadFile("static/docs.html")
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	r.GET("/docs/openapi.json", func(c *gin.Context) {
		spec, err := assets.ReadFile("static/openapi.json")
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "application/json", spec)
	})
}
