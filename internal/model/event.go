// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Activity actions recorded by the core. Collaborators may record their own
// action tags through the audit service; these are the ones the core emits.
const (
	ActionLogin            = "login"
	ActionLoginSuccess     = "login_success"
	ActionLoginFailed      = "login_failed"
	ActionLogout           = "logout"
	ActionRegistration     = "registration"
	ActionAccountLocked    = "account_locked"
	ActionPasswordChanged  = "password_changed"
	ActionPasswordReset    = "password_reset"
	ActionUserCreated      = "user_created"
	ActionUserUpdated      = "user_updated"
	ActionUserDeleted      = "user_deleted"
	ActionUserActivated    = "user_activated"
	ActionUserDeactivated  = "user_deactivated"
	ActionUserLocked       = "user_locked"
	ActionUserUnlocked     = "user_unlocked"
	ActionAttemptsReset    = "attempts_reset"
	ActionPermsUpdated     = "permissions_updated"
	ActionAdminPermsUpdate = "admin_permissions_updated"
	ActionAccessDenied     = "access_denied"
	ActionCSRFRejected     = "csrf_rejected"
)

// Login attempt failure reasons.
const (
	AttemptUserNotFound    = "user_not_found"
	AttemptAccountLocked   = "account_locked"
	AttemptAccountInactive = "account_inactive"
	AttemptInvalidPassword = "invalid_password"
)

// ActivityEntry is an immutable activity-log record.
type ActivityEntry struct {
	ID          int64
	UserID      sql.NullInt64 // nullable: anonymous or deleted actor
	Action      string
	Description sql.NullString
	IPAddress   string
	CreatedAt   time.Time
}

// LoginAttempt is an immutable record of one login attempt, success or not.
// The username is stored verbatim so attempts against unknown accounts are
// still traceable.
type LoginAttempt struct {
	ID            int64
	UserID        sql.NullInt64
	Username      string
	IPAddress     string
	Success       bool
	FailureReason sql.NullString
	CreatedAt     time.Time
}
