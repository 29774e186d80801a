// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecureConfig holds configuration for secure headers
type SecureConfig struct {
	CSPEnabled            bool
	CSPDefaultSrc         []string
	CSPScriptSrc          []string
	CSPStyleSrc           []string
	CSPImgSrc             []string
	CSPConnectSrc         []string
	CSPObjectSrc          []string
	CSPFrameSrc           []string
	HSTSEnabled           bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	FrameGuardEnabled     bool
	FrameGuardAction      string // DENY, SAMEORIGIN
	ContentTypeNosniff    bool
	XSSProtection         bool
	XSSProtectionMode     string
	ReferrerPolicy        string
}

// DefaultSecureConfig returns the default secure configuration. The script
// and style allowances exist for the embedded API docs page.
func DefaultSecureConfig() *SecureConfig {
	return &SecureConfig{
		CSPEnabled:            true,
		CSPDefaultSrc:         []string{"'self'"},
		CSPScriptSrc:          []string{"'self'", "'unsafe-inline'", "https://unpkg.com"},
		CSPStyleSrc:           []string{"'self'", "'unsafe-inline'", "https://unpkg.com"},
		CSPImgSrc:             []string{"'self'", "data:", "https:"},
		CSPConnectSrc:         []string{"'self'"},
		CSPObjectSrc:          []string{"'none'"},
		CSPFrameSrc:           []string{"'none'"},
		HSTSEnabled:           true,
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		FrameGuardEnabled:     true,
		FrameGuardAction:      "DENY",
		ContentTypeNosniff:    true,
		XSSProtection:         true,
		XSSProtectionMode:     "1; mode=block",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// buildCSPHeader builds the Content-Security-Policy header value
func (c *SecureConfig) buildCSPHeader() string {
	if !c.CSPEnabled {
		return ""
	}

	var parts []string
	add := func(directive string, sources []string) {
		if len(sources) > 0 {
			parts = append(parts, directive+" "+strings.Join(sources, " "))
		}
	}

	add("default-src", c.CSPDefaultSrc)
	add("script-src", c.CSPScriptSrc)
	add("style-src", c.CSPStyleSrc)
	add("img-src", c.CSPImgSrc)
	add("connect-src", c.CSPConnectSrc)
	add("object-src", c.CSPObjectSrc)
	add("frame-src", c.CSPFrameSrc)

	return strings.Join(parts, "; ")
}

// Secure returns a middleware that sets security headers.
func Secure(config *SecureConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultSecureConfig()
	}

	csp := config.buildCSPHeader()

	return func(c *gin.Context) {
		if csp != "" {
			c.Header("Content-Security-Policy", csp)
		}

		if config.HSTSEnabled && c.Request.TLS != nil {
			hsts := "max-age=" + strconv.Itoa(config.HSTSMaxAge)
			if config.HSTSIncludeSubdomains {
				hsts += "; includeSubDomains"
			}
			c.Header("Strict-Transport-Security", hsts)
		}

		if config.FrameGuardEnabled {
			c.Header("X-Frame-Options", config.FrameGuardAction)
		}
		if config.ContentTypeNosniff {
			c.Header("X-Content-Type-Options", "nosniff")
		}
		if config.XSSProtection {
			c.Header("X-XSS-Protection", config.XSSProtectionMode)
		}
		if config.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}

		c.Next()
	}
}
