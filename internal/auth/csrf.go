// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// CSRFTokenBytes is the entropy of a session CSRF token (256 bits).
const CSRFTokenBytes = 32

// NewCSRFToken generates a cryptographically random anti-forgery token.
// One token is issued per session and kept stable for its lifetime.
func NewCSRFToken() (string, error) {
	buf := make([]byte, CSRFTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateCSRFToken compares the session's stored token against the supplied
// one in constant time. An empty stored or supplied token never validates.
func ValidateCSRFToken(stored, supplied string) bool {
	if stored == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
