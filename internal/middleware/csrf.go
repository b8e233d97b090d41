// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/service"
	"github.com/olegiv/ogate-go/internal/util"
)

// CSRFHeader is the request header carrying the session token.
const CSRFHeader = "X-CSRF-Token"

// CSRFFormField is the form field fallback for the session token.
const CSRFFormField = "csrf_token"

// CSRFConfig holds configuration for the cross-origin protection layer.
// filippo.io/csrf/gorilla uses Fetch metadata headers rather than cookies,
// so cookie options do not apply.
type CSRFConfig struct {
	// AuthKey is a 32-byte key used to authenticate the CSRF token.
	AuthKey []byte

	// ErrorHandler is called when cross-origin validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins lists host-only origins allowed to make cross-origin
	// requests.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns a CSRFConfig with sensible defaults.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	if isDev {
		cfg.TrustedOrigins = []string{
			"localhost:8080",
			"127.0.0.1:8080",
		}
	}

	return cfg
}

// CrossOriginProtection returns the outer CSRF layer: Fetch-metadata based
// cross-origin rejection. The per-session token guard (CSRFTokenGuard) runs
// behind it.
func CrossOriginProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(crossOriginErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

func crossOriginErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Error("cross-origin request rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	WriteAPIError(w, http.StatusForbidden, "csrf_failed", "Cross-origin request rejected")
}

// CSRFTokenGuard validates the per-session anti-forgery token on every
// state-changing request. The check short-circuits before any handler runs;
// rejections are recorded in the activity trail.
func CSRFTokenGuard(audit *service.AuditService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sess := GetSession(r)
			supplied := r.Header.Get(CSRFHeader)
			if supplied == "" {
				supplied = r.PostFormValue(CSRFFormField)
			}

			var stored string
			if sess != nil {
				stored = sess.CSRFToken
			}
			if !auth.ValidateCSRFToken(stored, supplied) {
				slog.Warn("csrf token rejected",
					"method", r.Method,
					"path", r.URL.Path,
					"has_session", sess.IsAuthenticated(),
				)
				if audit != nil {
					var userID int64
					if sess.IsAuthenticated() {
						userID = sess.UserID
					}
					audit.Record(r.Context(), userID, model.ActionCSRFRejected,
						fmt.Sprintf("%s %s", r.Method, r.URL.Path), util.ClientIP(r))
				}
				WriteAPIError(w, http.StatusForbidden, "csrf_failed", "CSRF token missing or invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
