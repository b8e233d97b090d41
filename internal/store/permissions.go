// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/olegiv/ogate-go/internal/model"
)

// GetGeneralPermissions returns the general permission row for a user. When
// no row exists the conservative default is returned with found=false:
// view-only, no admin-tool grants.
func (q *Queries) GetGeneralPermissions(ctx context.Context, userID int64) (model.GeneralPermissions, bool, error) {
	var p model.GeneralPermissions
	err := q.db.QueryRowContext(ctx, `
		SELECT can_view, can_add, can_edit, can_delete,
			can_edit_users, can_activate_users, can_unlock_users, can_reset_passwords
		FROM user_permissions WHERE user_id = ?`, userID).Scan(
		&p.CanView, &p.CanAdd, &p.CanEdit, &p.CanDelete,
		&p.CanEditUsers, &p.CanActivateUsers, &p.CanUnlockUsers, &p.CanResetPasswords)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultGeneralPermissions(), false, nil
	}
	if err != nil {
		return model.GeneralPermissions{}, false, err
	}
	return p, true, nil
}

// UpsertGeneralPermissions writes the full general permission row for a
// user, creating it when absent.
func (q *Queries) UpsertGeneralPermissions(ctx context.Context, userID int64, p model.GeneralPermissions) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_permissions (user_id, can_view, can_add, can_edit, can_delete,
			can_edit_users, can_activate_users, can_unlock_users, can_reset_passwords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			can_view = excluded.can_view,
			can_add = excluded.can_add,
			can_edit = excluded.can_edit,
			can_delete = excluded.can_delete,
			can_edit_users = excluded.can_edit_users,
			can_activate_users = excluded.can_activate_users,
			can_unlock_users = excluded.can_unlock_users,
			can_reset_passwords = excluded.can_reset_passwords`,
		userID, p.CanView, p.CanAdd, p.CanEdit, p.CanDelete,
		p.CanEditUsers, p.CanActivateUsers, p.CanUnlockUsers, p.CanResetPasswords)
	return err
}

// GetAdminPermissions returns the admin-tool permission row for a user.
// A missing row means an all-false grant set, found=false.
func (q *Queries) GetAdminPermissions(ctx context.Context, userID int64) (model.AdminPermissions, bool, error) {
	var p model.AdminPermissions
	err := q.db.QueryRowContext(ctx, `
		SELECT can_view, can_edit, can_add, can_delete
		FROM admin_permissions WHERE user_id = ?`, userID).Scan(
		&p.CanView, &p.CanEdit, &p.CanAdd, &p.CanDelete)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultAdminPermissions(), false, nil
	}
	if err != nil {
		return model.AdminPermissions{}, false, err
	}
	return p, true, nil
}

// UpsertAdminPermissions writes the full admin-tool permission row for a
// user, creating it when absent.
func (q *Queries) UpsertAdminPermissions(ctx context.Context, userID int64, p model.AdminPermissions) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO admin_permissions (user_id, can_view, can_edit, can_add, can_delete)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			can_view = excluded.can_view,
			can_edit = excluded.can_edit,
			can_add = excluded.can_add,
			can_delete = excluded.can_delete`,
		userID, p.CanView, p.CanEdit, p.CanAdd, p.CanDelete)
	return err
}
