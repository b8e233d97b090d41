// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, permission sets, and audit records.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// LockoutThreshold is the failed-attempt count at which an account is locked.
const LockoutThreshold = 3

// AtRiskThreshold is the failed-attempt count at which an account is flagged
// as one failure away from lockout.
const AtRiskThreshold = 2

// User represents an account in the credential store.
type User struct {
	ID                int64        `json:"id"`
	Username          string       `json:"username"`
	Email             string       `json:"email"`
	PasswordHash      string       `json:"-"` // Never expose in JSON
	FullName          string       `json:"full_name"`
	Role              string       `json:"role"`
	IsActive          bool         `json:"is_active"`
	IsLocked          bool         `json:"is_locked"`
	FailedAttempts    int64        `json:"failed_attempts"`
	LastFailedAttempt sql.NullTime `json:"last_failed_attempt,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsAtRisk returns true if the account is one failed attempt away from
// lockout but not locked yet.
func (u *User) IsAtRisk() bool {
	return u.FailedAttempts >= AtRiskThreshold && !u.IsLocked
}
