// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/ogate-go/internal/model"
)

const userColumns = `id, username, email, password_hash, full_name, role,
	is_active, is_locked, failed_attempts, last_failed_attempt, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.IsLocked, &u.FailedAttempts,
		&u.LastFailedAttempt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanUserRows(rows *sql.Rows) (model.User, error) {
	var u model.User
	err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.IsLocked, &u.FailedAttempts,
		&u.LastFailedAttempt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.Username, arg.Email, arg.PasswordHash, arg.FullName, arg.Role,
		arg.IsActive, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

// GetUserByID returns a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername returns a user by username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByEmail returns a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// UpdateUserParams holds the fields for UpdateUser.
type UpdateUserParams struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	Role      string
	IsActive  bool
	UpdatedAt time.Time
}

// UpdateUser updates identity fields and returns the stored row. The
// password hash and lockout counters are managed by dedicated queries.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE users SET username = ?, email = ?, full_name = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+userColumns,
		arg.Username, arg.Email, arg.FullName, arg.Role, arg.IsActive, arg.UpdatedAt, arg.ID)
	return scanUser(row)
}

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	ID           int64
	PasswordHash string
	UpdatedAt    time.Time
}

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteUser removes a user. Permission rows cascade; audit rows keep a
// nulled actor reference.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// ListUsersParams holds pagination for ListUsers.
type ListUsersParams struct {
	Limit  int64
	Offset int64
}

// ListUsers returns users ordered by creation time, newest first.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// ListLockedUsers returns all locked accounts, most recently failed first.
func (q *Queries) ListLockedUsers(ctx context.Context) ([]model.User, error) {
	return q.listByFilter(ctx,
		`WHERE is_locked = 1 ORDER BY last_failed_attempt DESC`)
}

// ListAtRiskUsers returns unlocked accounts with failed_attempts at or above
// the at-risk threshold, most recently failed first.
func (q *Queries) ListAtRiskUsers(ctx context.Context) ([]model.User, error) {
	return q.listByFilter(ctx,
		`WHERE failed_attempts >= ? AND is_locked = 0 ORDER BY last_failed_attempt DESC`,
		model.AtRiskThreshold)
}

func (q *Queries) listByFilter(ctx context.Context, filter string, args ...any) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users `+filter, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// IncrementFailedAttempts atomically bumps the failure counter and stamps
// the failure time, returning the post-increment count. The single
// read-modify-write guarantees two concurrent failures cannot both observe
// the pre-threshold count.
func (q *Queries) IncrementFailedAttempts(ctx context.Context, id int64, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		UPDATE users
		SET failed_attempts = failed_attempts + 1, last_failed_attempt = ?, updated_at = ?
		WHERE id = ?
		RETURNING failed_attempts`,
		now, now, id).Scan(&count)
	return count, err
}

// ResetFailedAttempts zeroes the failure counter and clears the failure
// timestamp, leaving the lock flag untouched.
func (q *Queries) ResetFailedAttempts(ctx context.Context, id int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET failed_attempts = 0, last_failed_attempt = NULL, updated_at = ?
		WHERE id = ?`, now, id)
	return err
}

// LockUser sets the lock flag. Returns true only when this call performed
// the unlocked→locked transition, so exactly one of several concurrent
// failed attempts emits the lock event.
func (q *Queries) LockUser(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET is_locked = 1, updated_at = ? WHERE id = ? AND is_locked = 0`,
		now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UnlockUser clears the lock flag and the failure counters. Idempotent.
func (q *Queries) UnlockUser(ctx context.Context, id int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET is_locked = 0, failed_attempts = 0, last_failed_attempt = NULL, updated_at = ?
		WHERE id = ?`, now, id)
	return err
}

// SetUserActive flips the active flag.
func (q *Queries) SetUserActive(ctx context.Context, id int64, active bool, now time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`, active, now, id)
	return err
}

// UsernameExists reports whether a username is taken, optionally excluding
// one user ID (for edits).
func (q *Queries) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id != ?`, username, excludeID).Scan(&count)
	return count > 0, err
}

// EmailExists reports whether an email is registered, optionally excluding
// one user ID (for edits).
func (q *Queries) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`, email, excludeID).Scan(&count)
	return count > 0, err
}
