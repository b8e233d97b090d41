// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/store"
	"github.com/olegiv/ogate-go/internal/testutil"
)

func TestCreateAndGetUser(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		FullName:     "Alice Example",
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected non-zero user ID")
	}
	if user.FailedAttempts != 0 {
		t.Errorf("expected 0 failed attempts, got %d", user.FailedAttempts)
	}
	if user.IsLocked {
		t.Error("new user should not be locked")
	}

	got, err := q.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected ID %d, got %d", user.ID, got.ID)
	}

	byEmail, err := q.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("expected ID %d, got %d", user.ID, byEmail.ID)
	}

	if _, err := q.GetUserByUsername(ctx, "nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for missing user, got %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()

	testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "bob"})

	now := time.Now().UTC()
	_, err := q.CreateUser(ctx, store.CreateUserParams{
		Username:     "bob",
		Email:        "other@example.com",
		PasswordHash: "hash",
		FullName:     "Other Bob",
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected error for duplicate username")
	}
	if !store.IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}

	_, err = q.CreateUser(ctx, store.CreateUserParams{
		Username:     "bob2",
		Email:        "bob@example.com",
		PasswordHash: "hash",
		FullName:     "Bob Two",
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if !store.IsUniqueViolation(err) {
		t.Errorf("expected unique violation for duplicate email, got %v", err)
	}
}

func TestFailedAttemptCounters(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "carol"})

	now := time.Now().UTC()
	for want := int64(1); want <= 3; want++ {
		got, err := q.IncrementFailedAttempts(ctx, user.ID, now)
		if err != nil {
			t.Fatalf("IncrementFailedAttempts: %v", err)
		}
		if got != want {
			t.Errorf("expected count %d, got %d", want, got)
		}
	}

	fresh, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !fresh.LastFailedAttempt.Valid {
		t.Error("expected last_failed_attempt to be set")
	}

	if err := q.ResetFailedAttempts(ctx, user.ID, now); err != nil {
		t.Fatalf("ResetFailedAttempts: %v", err)
	}
	fresh, err = q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if fresh.FailedAttempts != 0 {
		t.Errorf("expected 0 failed attempts after reset, got %d", fresh.FailedAttempts)
	}
	if fresh.LastFailedAttempt.Valid {
		t.Error("expected last_failed_attempt cleared after reset")
	}
}

func TestLockUserTransition(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "dave"})
	now := time.Now().UTC()

	locked, err := q.LockUser(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("LockUser: %v", err)
	}
	if !locked {
		t.Error("first lock should report the transition")
	}

	locked, err = q.LockUser(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("LockUser (second): %v", err)
	}
	if locked {
		t.Error("second lock must not report a transition")
	}

	if err := q.UnlockUser(ctx, user.ID, now); err != nil {
		t.Fatalf("UnlockUser: %v", err)
	}
	fresh, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if fresh.IsLocked {
		t.Error("expected unlocked")
	}
	if fresh.FailedAttempts != 0 {
		t.Errorf("unlock should clear failed attempts, got %d", fresh.FailedAttempts)
	}
}

func TestListLockedAndAtRiskUsers(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	locked := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "locked"})
	atRisk := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "atrisk"})
	testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "clean"})

	for i := 0; i < 3; i++ {
		if _, err := q.IncrementFailedAttempts(ctx, locked.ID, now); err != nil {
			t.Fatalf("IncrementFailedAttempts: %v", err)
		}
	}
	if _, err := q.LockUser(ctx, locked.ID, now); err != nil {
		t.Fatalf("LockUser: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := q.IncrementFailedAttempts(ctx, atRisk.ID, now); err != nil {
			t.Fatalf("IncrementFailedAttempts: %v", err)
		}
	}

	lockedUsers, err := q.ListLockedUsers(ctx)
	if err != nil {
		t.Fatalf("ListLockedUsers: %v", err)
	}
	if len(lockedUsers) != 1 || lockedUsers[0].Username != "locked" {
		t.Errorf("expected exactly user %q locked, got %+v", "locked", lockedUsers)
	}

	atRiskUsers, err := q.ListAtRiskUsers(ctx)
	if err != nil {
		t.Fatalf("ListAtRiskUsers: %v", err)
	}
	if len(atRiskUsers) != 1 || atRiskUsers[0].Username != "atrisk" {
		t.Errorf("expected exactly user %q at risk, got %+v", "atrisk", atRiskUsers)
	}
}

func TestGeneralPermissionsDefaultAndUpsert(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "erin"})

	perms, found, err := q.GetGeneralPermissions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetGeneralPermissions: %v", err)
	}
	if found {
		t.Error("expected no permission row yet")
	}
	if !perms.CanView {
		t.Error("default permissions must allow view")
	}
	if perms.CanAdd || perms.CanEdit || perms.CanDelete {
		t.Error("default permissions must deny mutations")
	}

	perms.CanAdd = true
	perms.CanUnlockUsers = true
	if err := q.UpsertGeneralPermissions(ctx, user.ID, perms); err != nil {
		t.Fatalf("UpsertGeneralPermissions: %v", err)
	}

	got, found, err := q.GetGeneralPermissions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetGeneralPermissions: %v", err)
	}
	if !found {
		t.Error("expected permission row after upsert")
	}
	if !got.CanAdd || !got.CanUnlockUsers {
		t.Errorf("upserted grants not persisted: %+v", got)
	}

	// Second upsert updates in place.
	got.CanAdd = false
	if err := q.UpsertGeneralPermissions(ctx, user.ID, got); err != nil {
		t.Fatalf("UpsertGeneralPermissions (update): %v", err)
	}
	got, _, err = q.GetGeneralPermissions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetGeneralPermissions: %v", err)
	}
	if got.CanAdd {
		t.Error("expected can_add revoked")
	}
}

func TestAdminPermissionsDefaultAllFalse(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	admin := testutil.CreateTestUser(t, db, testutil.CreateUserParams{
		Username: "frank", Role: model.RoleAdmin,
	})

	perms, found, err := q.GetAdminPermissions(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdminPermissions: %v", err)
	}
	if found {
		t.Error("expected no admin permission row yet")
	}
	if perms.CanView || perms.CanEdit || perms.CanAdd || perms.CanDelete {
		t.Errorf("missing admin permission row must mean all-false, got %+v", perms)
	}

	if err := q.UpsertAdminPermissions(ctx, admin.ID, model.AdminPermissions{CanView: true}); err != nil {
		t.Fatalf("UpsertAdminPermissions: %v", err)
	}
	got, found, err := q.GetAdminPermissions(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdminPermissions: %v", err)
	}
	if !found || !got.CanView || got.CanEdit {
		t.Errorf("unexpected admin permissions after upsert: found=%v %+v", found, got)
	}
}

func TestLoginAttemptTrail(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "grace"})
	now := time.Now().UTC()

	attempts := []store.InsertLoginAttemptParams{
		{
			UserID:        sql.NullInt64{Int64: user.ID, Valid: true},
			Username:      "grace",
			IPAddress:     "10.0.0.1",
			Success:       false,
			FailureReason: sql.NullString{String: model.AttemptInvalidPassword, Valid: true},
			CreatedAt:     now,
		},
		{
			UserID:    sql.NullInt64{Int64: user.ID, Valid: true},
			Username:  "grace",
			IPAddress: "10.0.0.1",
			Success:   true,
			CreatedAt: now.Add(time.Second),
		},
		{
			Username:      "ghost",
			IPAddress:     "10.0.0.2",
			Success:       false,
			FailureReason: sql.NullString{String: model.AttemptUserNotFound, Valid: true},
			CreatedAt:     now.Add(2 * time.Second),
		},
	}
	for _, a := range attempts {
		if err := q.InsertLoginAttempt(ctx, a); err != nil {
			t.Fatalf("InsertLoginAttempt: %v", err)
		}
	}

	all, err := q.ListLoginAttempts(ctx, store.ListLoginAttemptsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListLoginAttempts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}
	if all[0].Username != "ghost" {
		t.Errorf("expected newest first, got %q", all[0].Username)
	}
	if all[0].UserID.Valid {
		t.Error("unknown-user attempt must have null user_id")
	}

	filtered, err := q.ListLoginAttempts(ctx, store.ListLoginAttemptsParams{Username: "grace", Limit: 10})
	if err != nil {
		t.Fatalf("ListLoginAttempts (filtered): %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 attempts for grace, got %d", len(filtered))
	}
}

func TestActivityTrail(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "henry"})
	now := time.Now().UTC()

	entries := []store.InsertActivityParams{
		{
			UserID:      sql.NullInt64{Int64: user.ID, Valid: true},
			Action:      model.ActionLogin,
			Description: "successful login",
			IPAddress:   "10.0.0.1",
			CreatedAt:   now,
		},
		{
			UserID:      sql.NullInt64{Int64: user.ID, Valid: true},
			Action:      model.ActionLogout,
			Description: "logout",
			IPAddress:   "10.0.0.1",
			CreatedAt:   now.Add(time.Minute),
		},
	}
	for _, e := range entries {
		if err := q.InsertActivity(ctx, e); err != nil {
			t.Fatalf("InsertActivity: %v", err)
		}
	}

	got, err := q.ListActivity(ctx, store.ListActivityParams{UserID: user.ID, Limit: 10})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Action != model.ActionLogout {
		t.Errorf("expected newest first, got %q", got[0].Action)
	}

	byAction, err := q.ListActivity(ctx, store.ListActivityParams{Action: model.ActionLogin, Limit: 10})
	if err != nil {
		t.Fatalf("ListActivity (by action): %v", err)
	}
	if len(byAction) != 1 {
		t.Errorf("expected 1 login entry, got %d", len(byAction))
	}

	count, err := q.CountActivity(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("CountActivity: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestDeleteUserPreservesTrail(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "ivy"})
	now := time.Now().UTC()

	if err := q.InsertActivity(ctx, store.InsertActivityParams{
		UserID:    sql.NullInt64{Int64: user.ID, Valid: true},
		Action:    model.ActionLogin,
		IPAddress: "10.0.0.1",
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("InsertActivity: %v", err)
	}
	if err := q.UpsertGeneralPermissions(ctx, user.ID, model.DefaultGeneralPermissions()); err != nil {
		t.Fatalf("UpsertGeneralPermissions: %v", err)
	}

	if err := q.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	entries, err := q.ListActivity(ctx, store.ListActivityParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit trail must survive user deletion, got %d entries", len(entries))
	}
	if entries[0].UserID.Valid {
		t.Error("expected user_id nulled after deletion")
	}

	_, found, err := q.GetGeneralPermissions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetGeneralPermissions: %v", err)
	}
	if found {
		t.Error("permission row must cascade on user deletion")
	}
}

func TestUsernameAndEmailExists(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	q := store.New(db)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, testutil.CreateUserParams{Username: "judy"})

	exists, err := q.UsernameExists(ctx, "judy", 0)
	if err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if !exists {
		t.Error("expected username taken")
	}

	// Excluding the owner makes the name available (edit case).
	exists, err = q.UsernameExists(ctx, "judy", user.ID)
	if err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if exists {
		t.Error("expected username available when excluding its owner")
	}

	exists, err = q.EmailExists(ctx, "judy@example.com", 0)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Error("expected email taken")
	}
}

func TestSeedAdmin(t *testing.T) {
	db, cleanup := testutil.TestMemoryDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := testutil.TestLoggerSilent()
	params := store.SeedAdminParams{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "Admin@123456",
		FullName: "System Administrator",
	}

	if err := store.SeedAdmin(ctx, db, logger, params); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	// Idempotent on second run.
	if err := store.SeedAdmin(ctx, db, logger, params); err != nil {
		t.Fatalf("SeedAdmin (second run): %v", err)
	}

	q := store.New(db)
	admin, err := q.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}

	adminPerms, found, err := q.GetAdminPermissions(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdminPermissions: %v", err)
	}
	if !found {
		t.Fatal("seeded admin must have an admin permission row")
	}
	if !adminPerms.CanView || !adminPerms.CanEdit || !adminPerms.CanAdd || !adminPerms.CanDelete {
		t.Errorf("seeded admin must hold the full grant set, got %+v", adminPerms)
	}

	count, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 user after repeated seeding, got %d", count)
	}
}
