// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/service"
	"github.com/olegiv/ogate-go/internal/store"
	"github.com/olegiv/ogate-go/internal/testutil"
)

// adminSession creates an administrator account and returns a session for
// it carrying the full grant set.
func adminSession(t *testing.T, db *sql.DB) *auth.Session {
	t.Helper()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{
		Username: "sysadmin",
		Role:     model.RoleAdmin,
	})
	return &auth.Session{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     model.RoleAdmin,
		AdminPermissions: model.AdminPermissions{
			CanView: true, CanEdit: true, CanAdd: true, CanDelete: true,
		},
	}
}

// regularSession returns a session for a plain user with the default grants.
func regularSession(t *testing.T, db *sql.DB, username string) *auth.Session {
	t.Helper()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: username})
	return &auth.Session{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        model.RoleUser,
		Permissions: model.DefaultGeneralPermissions(),
	}
}

func TestAdminCreateUser(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)

	user, err := adminSvc.CreateUser(ctx, actor, service.CreateUserParams{
		Username: "newbie",
		Email:    "newbie@example.com",
		Password: testPassword,
		FullName: "New User",
		Role:     model.RoleUser,
		IsActive: true,
	}, testIP)
	require.NoError(t, err)
	assert.Equal(t, "newbie", user.Username)

	assert.EqualValues(t, 1, countActivity(t, db, actor.UserID, model.ActionUserCreated))

	// Permission checks run before anything else.
	denied := regularSession(t, db, "plain")
	_, err = adminSvc.CreateUser(ctx, denied, service.CreateUserParams{
		Username: "blocked",
		Email:    "blocked@example.com",
		Password: testPassword,
		FullName: "Blocked User",
		Role:     model.RoleUser,
	}, testIP)
	assert.ErrorIs(t, err, auth.ErrPermissionDenied)
}

func TestAdminBypassesGeneralPermissions(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()

	// An admin session with an empty general permission snapshot still
	// passes every general capability check.
	bare := adminSession(t, db)
	bare.Permissions = model.GeneralPermissions{}

	users, err := adminSvc.ListUsers(ctx, bare, 10, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, users)
}

func TestNewAdminHasNoAdminToolAccess(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{
		Username: "freshadmin",
		Role:     model.RoleAdmin,
	})
	sess := &auth.Session{
		UserID:           user.ID,
		Username:         user.Username,
		Role:             model.RoleAdmin,
		AdminPermissions: model.DefaultAdminPermissions(),
	}

	assert.False(t, sess.HasAdminPermission(model.CapView))
	_, err := adminSvc.ListActivity(ctx, sess, store.ListActivityParams{Limit: 10})
	assert.ErrorIs(t, err, auth.ErrPermissionDenied)
}

func TestDeleteUserRefusesSelf(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)

	err := adminSvc.DeleteUser(ctx, actor, actor.UserID, testIP)
	assert.ErrorIs(t, err, service.ErrSelfAction)

	target := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "doomed"})
	require.NoError(t, adminSvc.DeleteUser(ctx, actor, target.ID, testIP))

	_, err = store.New(db).GetUserByID(ctx, target.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLockUnlockAndResetAttempts(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)
	target := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "victim"})

	require.NoError(t, adminSvc.LockUser(ctx, actor, target.ID, testIP))
	fresh, err := store.New(db).GetUserByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, fresh.IsLocked)
	assert.EqualValues(t, 1, countActivity(t, db, actor.UserID, model.ActionUserLocked))

	// Second lock is a no-op and does not duplicate the event.
	require.NoError(t, adminSvc.LockUser(ctx, actor, target.ID, testIP))
	assert.EqualValues(t, 1, countActivity(t, db, actor.UserID, model.ActionUserLocked))

	require.NoError(t, adminSvc.UnlockUser(ctx, actor, target.ID, testIP))
	fresh, err = store.New(db).GetUserByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsLocked)
	assert.EqualValues(t, 0, fresh.FailedAttempts)

	// resetAttempts clears counters without touching the lock flag.
	_, err = store.New(db).IncrementFailedAttempts(ctx, target.ID, fresh.UpdatedAt)
	require.NoError(t, err)
	require.NoError(t, adminSvc.ResetAttempts(ctx, actor, target.ID, testIP))
	fresh, err = store.New(db).GetUserByID(ctx, target.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, fresh.FailedAttempts)
}

func TestResetPasswordIssuesTemporary(t *testing.T) {
	authSvc, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)
	registerUser(t, authSvc, "mona")
	target, err := store.New(db).GetUserByUsername(ctx, "mona")
	require.NoError(t, err)

	temp, err := adminSvc.ResetPassword(ctx, actor, target.ID, testIP)
	require.NoError(t, err)
	assert.Empty(t, auth.ValidatePassword(temp), "temporary password must satisfy the strength policy")

	// Old password no longer works, temporary one does.
	outcome, err := authSvc.Login(ctx, "mona", testPassword, testIP)
	require.NoError(t, err)
	assert.False(t, outcome.Success)

	// The failed attempt above incremented the counter; clear it so the
	// temporary password attempt is clean.
	require.NoError(t, adminSvc.ResetAttempts(ctx, actor, target.ID, testIP))

	outcome, err = authSvc.Login(ctx, "mona", temp, testIP)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestSetGeneralPermissions(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)
	target := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "norm"})

	perms := model.DefaultGeneralPermissions()
	perms.CanAdd = true
	perms.CanEdit = true
	require.NoError(t, adminSvc.SetGeneralPermissions(ctx, actor, target.ID, perms, testIP))

	got, found, err := store.New(db).GetGeneralPermissions(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, got.CanAdd)
	assert.True(t, got.CanEdit)
	assert.EqualValues(t, 1, countActivity(t, db, actor.UserID, model.ActionPermsUpdated))
}

func TestSetAdminPermissions(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)

	other := testutil.CreateTestUser(t, db, testutil.CreateUserParams{
		Username: "peer",
		Role:     model.RoleAdmin,
	})

	require.NoError(t, adminSvc.SetAdminPermissions(ctx, actor, other.ID,
		model.AdminPermissions{CanView: true}, testIP))

	got, found, err := store.New(db).GetAdminPermissions(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, got.CanView)
	assert.False(t, got.CanEdit)

	// Only administrators may manage the admin grant set.
	plain := regularSession(t, db, "pleb")
	err = adminSvc.SetAdminPermissions(ctx, plain, other.ID, model.AdminPermissions{}, testIP)
	assert.ErrorIs(t, err, auth.ErrPermissionDenied)

	// Admin-tool grants only apply to administrator accounts.
	target := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "regular2"})
	err = adminSvc.SetAdminPermissions(ctx, actor, target.ID, model.AdminPermissions{CanView: true}, testIP)
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLockManagementListings(t *testing.T) {
	authSvc, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)

	registerUser(t, authSvc, "lockme")
	registerUser(t, authSvc, "riskme")

	for i := 0; i < 3; i++ {
		_, err := authSvc.Login(ctx, "lockme", "Wrong@123", testIP)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := authSvc.Login(ctx, "riskme", "Wrong@123", testIP)
		require.NoError(t, err)
	}

	locked, err := adminSvc.ListLockedUsers(ctx, actor)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, "lockme", locked[0].Username)

	atRisk, err := adminSvc.ListAtRiskUsers(ctx, actor)
	require.NoError(t, err)
	require.Len(t, atRisk, 1)
	assert.Equal(t, "riskme", atRisk[0].Username)
}

func TestActivityListingRequiresAdminView(t *testing.T) {
	authSvc, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)
	registerUser(t, authSvc, "watched")

	_, err := authSvc.Login(ctx, "watched", testPassword, testIP)
	require.NoError(t, err)

	entries, err := adminSvc.ListActivity(ctx, actor, store.ListActivityParams{Limit: 50})
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	attempts, err := adminSvc.ListLoginAttempts(ctx, actor, store.ListLoginAttemptsParams{Limit: 50})
	require.NoError(t, err)
	assert.NotEmpty(t, attempts)

	// A regular user holds no admin-tool view grant.
	plain := regularSession(t, db, "curious")
	_, err = adminSvc.ListActivity(ctx, plain, store.ListActivityParams{Limit: 50})
	assert.ErrorIs(t, err, auth.ErrPermissionDenied)
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	_, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)

	a := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "usera"})
	testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "userb"})

	_, err := adminSvc.UpdateUser(ctx, actor, service.UpdateUserParams{
		ID:       a.ID,
		Username: "usera",
		Email:    "userb@example.com",
		FullName: "User A",
		Role:     model.RoleUser,
		IsActive: true,
	}, testIP)
	assert.ErrorIs(t, err, auth.ErrDuplicateIdentity)
}

func TestUpdateUserOptionalPassword(t *testing.T) {
	authSvc, adminSvc, db := newServices(t)
	ctx := context.Background()
	actor := adminSession(t, db)

	registerUser(t, authSvc, "walter")

	target, err := store.New(db).GetUserByUsername(ctx, "walter")
	require.NoError(t, err)

	// Empty password keeps the current credential.
	_, err = adminSvc.UpdateUser(ctx, actor, service.UpdateUserParams{
		ID:       target.ID,
		Username: "walter",
		Email:    target.Email,
		FullName: target.FullName,
		Role:     model.RoleUser,
		IsActive: true,
	}, testIP)
	require.NoError(t, err)

	outcome, err := authSvc.Login(ctx, "walter", testPassword, testIP)
	require.NoError(t, err)
	assert.True(t, outcome.Success)

	// A weak replacement is rejected before anything is written.
	_, err = adminSvc.UpdateUser(ctx, actor, service.UpdateUserParams{
		ID:       target.ID,
		Username: "walter",
		Email:    target.Email,
		FullName: target.FullName,
		Role:     model.RoleUser,
		IsActive: true,
		Password: "weak",
	}, testIP)
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)

	// A valid one replaces the credential.
	_, err = adminSvc.UpdateUser(ctx, actor, service.UpdateUserParams{
		ID:       target.ID,
		Username: "walter",
		Email:    target.Email,
		FullName: target.FullName,
		Role:     model.RoleUser,
		IsActive: true,
		Password: "Changed@456",
	}, testIP)
	require.NoError(t, err)

	outcome, err = authSvc.Login(ctx, "walter", "Changed@456", testIP)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}
