// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, CSRF protection, and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/service"
	"github.com/olegiv/ogate-go/internal/session"
	"github.com/olegiv/ogate-go/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeySession is the context key for the authenticated session.
const ContextKeySession ContextKey = "session"

// APIError represents a JSON error response.
type APIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message

	_ = json.NewEncoder(w).Encode(apiErr)
}

// LoadSession creates middleware that loads the authenticated session into
// the request context. Requests without a session pass through with a nil
// session; guards downstream decide whether that is acceptable.
func LoadSession(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.Get(r.Context(), sm)
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the authenticated session from the request context.
// Returns nil for anonymous requests.
func GetSession(r *http.Request) *auth.Session {
	sess, ok := r.Context().Value(ContextKeySession).(*auth.Session)
	if !ok {
		return nil
	}
	return sess
}

// RequireAuth creates middleware that rejects unauthenticated requests.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetSession(r).IsAuthenticated() {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that rejects non-administrator requests.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r)
			if !sess.IsAuthenticated() {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !sess.IsAdmin() {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Administrator access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission creates middleware that checks a general capability.
// Denials are logged and, when an audit service is provided, recorded in
// the activity trail.
func RequirePermission(c model.Capability, audit *service.AuditService) func(http.Handler) http.Handler {
	return requireCapability(c, audit, func(s *auth.Session) bool {
		return s.HasPermission(c)
	})
}

// RequireAdminPermission creates middleware that checks an admin-tool
// capability. No role bypass applies.
func RequireAdminPermission(c model.Capability, audit *service.AuditService) func(http.Handler) http.Handler {
	return requireCapability(c, audit, func(s *auth.Session) bool {
		return s.HasAdminPermission(c)
	})
}

func requireCapability(c model.Capability, audit *service.AuditService, allowed func(*auth.Session) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r)
			if !sess.IsAuthenticated() {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !allowed(sess) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", sess.UserID,
					"capability", string(c),
				)
				if audit != nil {
					audit.Record(r.Context(), sess.UserID, model.ActionAccessDenied,
						fmt.Sprintf("%s %s requires %s", r.Method, r.URL.Path, c),
						util.ClientIP(r))
				}
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
