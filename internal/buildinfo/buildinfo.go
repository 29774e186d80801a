// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import (
	"fmt"
	"net/http"
	"runtime"
)

// Populated at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent returns the User-Agent string used for outbound requests.
func UserAgent() string {
	return fmt.Sprintf("tradelite/%s (%s %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// AttachUserAgentHeader sets the standard User-Agent header on a request.
func AttachUserAgentHeader(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent())
}
