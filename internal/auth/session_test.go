// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"testing"

	"github.com/olegiv/ogate-go/internal/model"
)

func TestNilSessionIsSafe(t *testing.T) {
	var s *Session
	if s.IsAuthenticated() {
		t.Error("nil session must not be authenticated")
	}
	if s.IsAdmin() {
		t.Error("nil session must not be admin")
	}
	if s.HasPermission(model.CapView) {
		t.Error("nil session must not hold permissions")
	}
	if s.HasAdminPermission(model.CapView) {
		t.Error("nil session must not hold admin permissions")
	}
	if err := s.RequirePermission(model.CapView); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestAdminBypassesGeneralButNotAdminPermissions(t *testing.T) {
	s := &Session{
		UserID: 1,
		Role:   model.RoleAdmin,
		// Deliberately empty snapshots.
	}

	for _, c := range []model.Capability{
		model.CapView, model.CapAdd, model.CapEdit, model.CapDelete,
		model.CapEditUsers, model.CapActivateUsers, model.CapUnlockUsers, model.CapResetPasswords,
	} {
		if !s.HasPermission(c) {
			t.Errorf("admin must bypass general permission check for %s", c)
		}
	}

	for _, c := range []model.Capability{
		model.CapView, model.CapEdit, model.CapAdd, model.CapDelete,
	} {
		if s.HasAdminPermission(c) {
			t.Errorf("admin bypass must not extend to admin-tool capability %s", c)
		}
	}
}

func TestRegularUserPermissions(t *testing.T) {
	s := &Session{
		UserID:      2,
		Role:        model.RoleUser,
		Permissions: model.GeneralPermissions{CanView: true, CanAdd: true},
	}

	if !s.HasPermission(model.CapView) || !s.HasPermission(model.CapAdd) {
		t.Error("granted capabilities must pass")
	}
	if s.HasPermission(model.CapDelete) {
		t.Error("ungranted capability must fail")
	}
	if s.HasAdminPermission(model.CapView) {
		t.Error("regular user must fail every admin-tool check")
	}
	if err := s.RequirePermission(model.CapAdd); err != nil {
		t.Errorf("RequirePermission on granted capability: %v", err)
	}
	if err := s.RequireAdminPermission(model.CapView); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestDefaultSnapshotSemantics(t *testing.T) {
	// Missing general row: view-only.
	p := model.DefaultGeneralPermissions()
	if !p.Has(model.CapView) {
		t.Error("default general permissions must allow view")
	}
	if p.Has(model.CapEdit) || p.Has(model.CapEditUsers) {
		t.Error("default general permissions must deny everything else")
	}

	// Missing admin row: all false.
	a := model.DefaultAdminPermissions()
	for _, c := range []model.Capability{model.CapView, model.CapEdit, model.CapAdd, model.CapDelete} {
		if a.Has(c) {
			t.Errorf("default admin permissions must deny %s", c)
		}
	}
}
