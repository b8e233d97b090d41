// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "github.com/olegiv/ogate-go/internal/model"

// Session is the process-local record of an authenticated identity and its
// resolved capability set, built once at login. It is a snapshot of the
// account and permission rows at login time: permission edits to an
// already-logged-in account do not take effect until the next login. This
// staleness window is deliberate and matches session lifetime semantics.
//
// A Session is always passed explicitly into component calls; there is no
// ambient "current user" state.
type Session struct {
	UserID           int64                    `json:"user_id"`
	Username         string                   `json:"username"`
	FullName         string                   `json:"full_name"`
	Role             string                   `json:"role"`
	Permissions      model.GeneralPermissions `json:"permissions"`
	AdminPermissions model.AdminPermissions   `json:"admin_permissions"`
	CSRFToken        string                   `json:"csrf_token"`
}

// IsAuthenticated reports whether the session carries an authenticated
// account. Safe to call on a nil session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID > 0
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role == model.RoleAdmin
}

// HasPermission answers a general capability check. Administrators bypass
// the general permission set entirely; this bypass does NOT extend to
// admin-tool capabilities (see HasAdminPermission).
func (s *Session) HasPermission(c model.Capability) bool {
	if !s.IsAuthenticated() {
		return false
	}
	if s.IsAdmin() {
		return true
	}
	return s.Permissions.Has(c)
}

// HasAdminPermission answers an admin-tool capability check. There is no
// bypass here: each capability must have been explicitly granted, so a
// brand-new administrator has no admin-tool access until another
// administrator grants it.
func (s *Session) HasAdminPermission(c model.Capability) bool {
	if !s.IsAdmin() {
		return false
	}
	return s.AdminPermissions.Has(c)
}

// RequirePermission is HasPermission as a guard: it returns
// ErrPermissionDenied instead of false.
func (s *Session) RequirePermission(c model.Capability) error {
	if !s.HasPermission(c) {
		return ErrPermissionDenied
	}
	return nil
}

// RequireAdminPermission is HasAdminPermission as a guard.
func (s *Session) RequireAdminPermission(c model.Capability) error {
	if !s.HasAdminPermission(c) {
		return ErrPermissionDenied
	}
	return nil
}
