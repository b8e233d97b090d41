// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session manages server-side browser sessions and the JSON
// round-trip of the authenticated Session value.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ogate-go/internal/auth"
)

// sessionKey is the scs key under which the serialized Session lives.
const sessionKey = "ogate_session"

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		// __Host- prefix pins the cookie to this host over HTTPS.
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Path = "/"
	}

	return sm
}

// Put stores the authenticated session value. The scs token is renewed
// first so login always rotates the session identifier.
func Put(ctx context.Context, sm *scs.SessionManager, sess *auth.Session) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	sm.Put(ctx, sessionKey, data)
	return nil
}

// Get loads the authenticated session value, or nil when the request
// carries no authenticated session.
func Get(ctx context.Context, sm *scs.SessionManager) *auth.Session {
	data := sm.GetBytes(ctx, sessionKey)
	if len(data) == 0 {
		return nil
	}
	var sess auth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	if !sess.IsAuthenticated() {
		return nil
	}
	return &sess
}

// Destroy removes all session data and invalidates the token.
func Destroy(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}
