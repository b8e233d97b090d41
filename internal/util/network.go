// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small shared helpers.
package util

import (
	"net"
	"net/http"
)

// ClientIP returns the client address for a request. Assumes chi's RealIP
// middleware has already resolved proxy headers into RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. from RealIP.
		return r.RemoteAddr
	}
	return host
}
