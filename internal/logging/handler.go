// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that mirrors WARN and
// ERROR records into the activity trail, so operational faults are visible
// next to the security events they often accompany.
package logging

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ogate-go/internal/store"
)

// Activity actions used for mirrored log records.
const (
	ActionSystemWarning = "system_warning"
	ActionSystemError   = "system_error"
)

// ActivityLogHandler is a slog.Handler that wraps another handler and also
// writes WARN and ERROR level records to the activity trail.
type ActivityLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewActivityLogHandler creates a handler that mirrors records at WARN and
// above into the activity trail.
func NewActivityLogHandler(inner slog.Handler, db *sql.DB) *ActivityLogHandler {
	return &ActivityLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// NewActivityLogHandlerWithLevel creates a handler with a custom minimum
// mirroring level.
func NewActivityLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *ActivityLogHandler {
	return &ActivityLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *ActivityLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ActivityLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToActivityLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *ActivityLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ActivityLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *ActivityLogHandler) WithGroup(name string) slog.Handler {
	return &ActivityLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

func (h *ActivityLogHandler) writeToActivityLog(r slog.Record) {
	action := ActionSystemWarning
	if r.Level >= slog.LevelError {
		action = ActionSystemError
	}

	var userID sql.NullInt64
	var ip string
	var parts []string
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "user_id":
			if id := a.Value.Int64(); id > 0 {
				userID = sql.NullInt64{Int64: id, Valid: true}
			}
		case "ip", "remote_addr":
			ip = a.Value.String()
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", a.Key, a.Value))
		}
		return true
	})

	description := r.Message
	if len(parts) > 0 {
		description += " (" + strings.Join(parts, " ") + ")"
	}

	created := r.Time
	if created.IsZero() {
		created = time.Now().UTC()
	}

	// Background context so the record survives request cancellation; the
	// write stays best-effort like every other audit append.
	_ = h.queries.InsertActivity(context.Background(), store.InsertActivityParams{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   ip,
		CreatedAt:   created,
	})
}
