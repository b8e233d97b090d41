// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Capability names a single permission flag. The same names are used for
// both the general and the admin-tool permission sets.
type Capability string

// General capabilities applicable to any account's data operations.
const (
	CapView   Capability = "can_view"
	CapAdd    Capability = "can_add"
	CapEdit   Capability = "can_edit"
	CapDelete Capability = "can_delete"
)

// User-management capabilities, part of the general set.
const (
	CapEditUsers      Capability = "can_edit_users"
	CapActivateUsers  Capability = "can_activate_users"
	CapUnlockUsers    Capability = "can_unlock_users"
	CapResetPasswords Capability = "can_reset_passwords"
)

// GeneralPermissions holds the per-user capability flags for ordinary data
// operations and user management. One optional row per user.
type GeneralPermissions struct {
	CanView           bool `json:"can_view"`
	CanAdd            bool `json:"can_add"`
	CanEdit           bool `json:"can_edit"`
	CanDelete         bool `json:"can_delete"`
	CanEditUsers      bool `json:"can_edit_users"`
	CanActivateUsers  bool `json:"can_activate_users"`
	CanUnlockUsers    bool `json:"can_unlock_users"`
	CanResetPasswords bool `json:"can_reset_passwords"`
}

// DefaultGeneralPermissions returns the permission set used when an account
// has no permissions row: view only.
func DefaultGeneralPermissions() GeneralPermissions {
	return GeneralPermissions{CanView: true}
}

// Has reports whether the named capability is granted.
func (p GeneralPermissions) Has(c Capability) bool {
	switch c {
	case CapView:
		return p.CanView
	case CapAdd:
		return p.CanAdd
	case CapEdit:
		return p.CanEdit
	case CapDelete:
		return p.CanDelete
	case CapEditUsers:
		return p.CanEditUsers
	case CapActivateUsers:
		return p.CanActivateUsers
	case CapUnlockUsers:
		return p.CanUnlockUsers
	case CapResetPasswords:
		return p.CanResetPasswords
	}
	return false
}

// AdminPermissions holds the capability flags gating the administrator-only
// tooling. Meaningful only for admin-role accounts, and never implied by the
// role itself: a missing row means no admin-tool access at all.
type AdminPermissions struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanAdd    bool `json:"can_add"`
	CanDelete bool `json:"can_delete"`
}

// DefaultAdminPermissions returns the all-false set used when an admin has
// no admin_permissions row.
func DefaultAdminPermissions() AdminPermissions {
	return AdminPermissions{}
}

// Has reports whether the named admin-tool capability is granted.
func (p AdminPermissions) Has(c Capability) bool {
	switch c {
	case CapView:
		return p.CanView
	case CapEdit:
		return p.CanEdit
	case CapAdd:
		return p.CanAdd
	case CapDelete:
		return p.CanDelete
	}
	return false
}
