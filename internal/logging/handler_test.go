// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/olegiv/ogate-go/internal/store"
	"github.com/olegiv/ogate-go/internal/testutil"
)

func TestHandlerMirrorsWarnAndAbove(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewActivityLogHandler(inner, db))

	logger.Info("routine message")
	logger.Warn("something odd", "user_id", int64(7), "ip", "10.0.0.9", "detail", "x")
	logger.Error("something broke")

	entries, err := store.New(db).ListActivity(context.Background(), store.ListActivityParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 mirrored entries (info excluded), got %d", len(entries))
	}

	var sawWarning, sawError bool
	for _, e := range entries {
		switch e.Action {
		case ActionSystemWarning:
			sawWarning = true
			if !e.UserID.Valid || e.UserID.Int64 != 7 {
				t.Errorf("expected user_id attr carried into entry, got %+v", e.UserID)
			}
			if e.IPAddress != "10.0.0.9" {
				t.Errorf("expected ip attr carried into entry, got %q", e.IPAddress)
			}
			if e.Description.String == "" {
				t.Error("expected description with message and attrs")
			}
		case ActionSystemError:
			sawError = true
		}
	}
	if !sawWarning || !sawError {
		t.Errorf("expected one warning and one error entry, got %+v", entries)
	}
}

func TestHandlerWithAttrsKeepsMirroring(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewActivityLogHandler(inner, db)).With("component", "test")

	logger.Warn("attr-scoped warning")

	entries, err := store.New(db).ListActivity(context.Background(), store.ListActivityParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 mirrored entry, got %d", len(entries))
	}
}
