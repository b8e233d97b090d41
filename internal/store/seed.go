// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/model"
)

// SeedAdminParams holds the identity of the bootstrap administrator.
type SeedAdminParams struct {
	Username string
	Email    string
	Password string
	FullName string
}

// SeedAdmin creates the bootstrap administrator account if it does not
// already exist. Unlike administrators created later, the seeded account
// receives a full admin-tool grant set so the system is manageable from
// first start.
func SeedAdmin(ctx context.Context, db *sql.DB, logger *slog.Logger, arg SeedAdminParams) error {
	q := New(db)

	_, err := q.GetUserByUsername(ctx, arg.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	hash, err := auth.HashPassword(arg.Password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := q.WithTx(tx)
	now := time.Now().UTC()

	user, err := qtx.CreateUser(ctx, CreateUserParams{
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: hash,
		FullName:     arg.FullName,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if err := qtx.UpsertGeneralPermissions(ctx, user.ID, model.GeneralPermissions{
		CanView: true, CanAdd: true, CanEdit: true, CanDelete: true,
		CanEditUsers: true, CanActivateUsers: true, CanUnlockUsers: true, CanResetPasswords: true,
	}); err != nil {
		return fmt.Errorf("creating admin general permissions: %w", err)
	}

	if err := qtx.UpsertAdminPermissions(ctx, user.ID, model.AdminPermissions{
		CanView: true, CanEdit: true, CanAdd: true, CanDelete: true,
	}); err != nil {
		return fmt.Errorf("creating admin tool permissions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	logger.Info("seeded bootstrap administrator", "username", arg.Username, "user_id", user.ID)
	return nil
}
