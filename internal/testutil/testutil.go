// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the oGate project.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/store"

	_ "modernc.org/sqlite" // in-memory driver for tests
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "ogate-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestMemoryDB creates an in-memory test database with migrations applied.
// Faster than TestDB for tests that do not exercise WAL behavior.
func TestMemoryDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	// A second connection would see a different empty database.
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// CreateUserParams configures CreateTestUser. Zero values get defaults.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	Inactive     bool
}

// CreateTestUser inserts a user directly through the store layer and
// returns it. Defaults to an active regular user.
func CreateTestUser(t *testing.T, db *sql.DB, arg CreateUserParams) model.User {
	t.Helper()

	if arg.Username == "" {
		arg.Username = "testuser"
	}
	if arg.Email == "" {
		arg.Email = arg.Username + "@example.com"
	}
	if arg.PasswordHash == "" {
		arg.PasswordHash = "$argon2id$v=19$m=19456,t=2,p=1$dGVzdHNhbHQAAAAAAAAAAA$invalid"
	}
	if arg.FullName == "" {
		arg.FullName = "Test User"
	}
	if arg.Role == "" {
		arg.Role = model.RoleUser
	}

	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		FullName:     arg.FullName,
		Role:         arg.Role,
		IsActive:     !arg.Inactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}
