// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/ogate-go/internal/model"
)

// InsertLoginAttemptParams holds the fields for InsertLoginAttempt.
type InsertLoginAttemptParams struct {
	UserID        sql.NullInt64
	Username      string
	IPAddress     string
	Success       bool
	FailureReason sql.NullString
	CreatedAt     time.Time
}

// InsertLoginAttempt appends one row to the login attempt trail.
func (q *Queries) InsertLoginAttempt(ctx context.Context, arg InsertLoginAttemptParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO login_attempts (user_id, username, ip_address, success, failure_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.UserID, arg.Username, arg.IPAddress, arg.Success, arg.FailureReason, arg.CreatedAt)
	return err
}

// ListLoginAttemptsParams holds filters and pagination for ListLoginAttempts.
type ListLoginAttemptsParams struct {
	Username string // empty means all users
	Limit    int64
	Offset   int64
}

// ListLoginAttempts returns login attempts newest first, optionally
// filtered by username.
func (q *Queries) ListLoginAttempts(ctx context.Context, arg ListLoginAttemptsParams) ([]model.LoginAttempt, error) {
	query := `
		SELECT id, user_id, username, ip_address, success, failure_reason, created_at
		FROM login_attempts`
	args := []any{}
	if arg.Username != "" {
		query += ` WHERE username = ?`
		args = append(args, arg.Username)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.LoginAttempt
	for rows.Next() {
		var a model.LoginAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.IPAddress,
			&a.Success, &a.FailureReason, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// InsertActivityParams holds the fields for InsertActivity.
type InsertActivityParams struct {
	UserID      sql.NullInt64
	Action      string
	Description string
	IPAddress   string
	CreatedAt   time.Time
}

// InsertActivity appends one row to the activity trail. The trail is
// append-only; there is no update or delete query for it.
func (q *Queries) InsertActivity(ctx context.Context, arg InsertActivityParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO activity_log (user_id, action, description, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.UserID, arg.Action, arg.Description, arg.IPAddress, arg.CreatedAt)
	return err
}

// ListActivityParams holds filters and pagination for ListActivity.
type ListActivityParams struct {
	UserID int64  // 0 means all users
	Action string // empty means all actions
	Limit  int64
	Offset int64
}

// ListActivity returns activity entries newest first, optionally filtered
// by actor and action.
func (q *Queries) ListActivity(ctx context.Context, arg ListActivityParams) ([]model.ActivityEntry, error) {
	query := `
		SELECT id, user_id, action, description, ip_address, created_at
		FROM activity_log WHERE 1 = 1`
	args := []any{}
	if arg.UserID > 0 {
		query += ` AND user_id = ?`
		args = append(args, arg.UserID)
	}
	if arg.Action != "" {
		query += ` AND action = ?`
		args = append(args, arg.Action)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Description,
			&e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountActivity returns the number of activity entries matching the filters.
func (q *Queries) CountActivity(ctx context.Context, userID int64, action string) (int64, error) {
	query := `SELECT COUNT(*) FROM activity_log WHERE 1 = 1`
	args := []any{}
	if userID > 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if action != "" {
		query += ` AND action = ?`
		args = append(args, action)
	}
	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
