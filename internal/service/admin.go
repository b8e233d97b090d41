// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/store"
)

// ErrSelfAction is returned when an administrator targets their own account
// with an operation that must not be self-applied.
var ErrSelfAction = errors.New("operation cannot target the acting account")

// ErrUserNotFound is returned when the target account does not exist.
var ErrUserNotFound = errors.New("user not found")

// AdminService implements the user-management operations. Every operation
// takes the acting session, checks the matching capability before touching
// anything, and emits an audit event on success.
type AdminService struct {
	db      *sql.DB
	queries *store.Queries
	audit   *AuditService
	logger  *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(db *sql.DB, audit *AuditService, logger *slog.Logger) *AdminService {
	return &AdminService{
		db:      db,
		queries: store.New(db),
		audit:   audit,
		logger:  logger,
	}
}

func (s *AdminService) target(ctx context.Context, id int64) (model.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return user, nil
}

// ListUsers returns a page of accounts.
func (s *AdminService) ListUsers(ctx context.Context, actor *auth.Session, limit, offset int64) ([]model.User, error) {
	if err := actor.RequirePermission(model.CapEditUsers); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	users, err := s.queries.ListUsers(ctx, store.ListUsersParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return users, nil
}

// GetUser returns one account with its permission rows resolved.
func (s *AdminService) GetUser(ctx context.Context, actor *auth.Session, id int64) (model.User, model.GeneralPermissions, model.AdminPermissions, error) {
	if err := actor.RequirePermission(model.CapEditUsers); err != nil {
		return model.User{}, model.GeneralPermissions{}, model.AdminPermissions{}, err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return model.User{}, model.GeneralPermissions{}, model.AdminPermissions{}, err
	}
	perms, _, err := s.queries.GetGeneralPermissions(ctx, id)
	if err != nil {
		return model.User{}, model.GeneralPermissions{}, model.AdminPermissions{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	adminPerms, _, err := s.queries.GetAdminPermissions(ctx, id)
	if err != nil {
		return model.User{}, model.GeneralPermissions{}, model.AdminPermissions{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return user, perms, adminPerms, nil
}

// CreateUserParams holds the admin user-creation form fields.
type CreateUserParams struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     string
	IsActive bool
}

// CreateUser creates an account on behalf of an administrator. Unlike
// self-registration there is no terms checkbox and the role is chosen by
// the caller.
func (s *AdminService) CreateUser(ctx context.Context, actor *auth.Session, arg CreateUserParams, ip string) (model.User, error) {
	if err := actor.RequirePermission(model.CapEditUsers); err != nil {
		return model.User{}, err
	}

	var errs []string
	if !usernamePattern.MatchString(arg.Username) {
		errs = append(errs, "Username must be 3-50 characters using letters, numbers, underscore, or hyphen")
	}
	if _, err := mail.ParseAddress(arg.Email); err != nil {
		errs = append(errs, "Email address is not valid")
	}
	if n := len(strings.TrimSpace(arg.FullName)); n < 2 || n > 100 {
		errs = append(errs, "Full name must be 2-100 characters")
	}
	if arg.Role != model.RoleAdmin && arg.Role != model.RoleUser {
		errs = append(errs, "Role must be admin or user")
	}
	errs = append(errs, auth.ValidatePassword(arg.Password)...)
	if len(errs) > 0 {
		return model.User{}, &ValidationError{Violations: errs}
	}

	hash, err := auth.HashPassword(arg.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	now := time.Now().UTC()

	user, err := qtx.CreateUser(ctx, store.CreateUserParams{
		Username:     arg.Username,
		Email:        strings.ToLower(arg.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(arg.FullName),
		Role:         arg.Role,
		IsActive:     arg.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if store.IsUniqueViolation(err) {
		return model.User{}, auth.ErrDuplicateIdentity
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	if err := qtx.UpsertGeneralPermissions(ctx, user.ID, model.DefaultGeneralPermissions()); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionUserCreated,
		fmt.Sprintf("created user %s (id %d)", user.Username, user.ID), ip)
	return user, nil
}

// UpdateUserParams holds the admin user-edit form fields. Password is
// optional; when empty the current password is kept.
type UpdateUserParams struct {
	ID       int64
	Username string
	Email    string
	FullName string
	Role     string
	IsActive bool
	Password string
}

// UpdateUser edits an account's identity fields.
func (s *AdminService) UpdateUser(ctx context.Context, actor *auth.Session, arg UpdateUserParams, ip string) (model.User, error) {
	if err := actor.RequirePermission(model.CapEditUsers); err != nil {
		return model.User{}, err
	}
	if _, err := s.target(ctx, arg.ID); err != nil {
		return model.User{}, err
	}

	var errs []string
	if !usernamePattern.MatchString(arg.Username) {
		errs = append(errs, "Username must be 3-50 characters using letters, numbers, underscore, or hyphen")
	}
	if _, err := mail.ParseAddress(arg.Email); err != nil {
		errs = append(errs, "Email address is not valid")
	}
	if n := len(strings.TrimSpace(arg.FullName)); n < 2 || n > 100 {
		errs = append(errs, "Full name must be 2-100 characters")
	}
	if arg.Role != model.RoleAdmin && arg.Role != model.RoleUser {
		errs = append(errs, "Role must be admin or user")
	}
	if arg.Password != "" {
		errs = append(errs, auth.ValidatePassword(arg.Password)...)
	}
	if len(errs) > 0 {
		return model.User{}, &ValidationError{Violations: errs}
	}

	if arg.Password != "" {
		hash, err := auth.HashPassword(arg.Password)
		if err != nil {
			return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
		}
		if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
			ID:           arg.ID,
			PasswordHash: hash,
			UpdatedAt:    time.Now().UTC(),
		}); err != nil {
			return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
		}
	}

	user, err := s.queries.UpdateUser(ctx, store.UpdateUserParams{
		ID:        arg.ID,
		Username:  arg.Username,
		Email:     strings.ToLower(arg.Email),
		FullName:  strings.TrimSpace(arg.FullName),
		Role:      arg.Role,
		IsActive:  arg.IsActive,
		UpdatedAt: time.Now().UTC(),
	})
	if store.IsUniqueViolation(err) {
		return model.User{}, auth.ErrDuplicateIdentity
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionUserUpdated,
		fmt.Sprintf("updated user %s (id %d)", user.Username, user.ID), ip)
	return user, nil
}

// DeleteUser removes an account. Administrators cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor *auth.Session, id int64, ip string) error {
	if err := actor.RequirePermission(model.CapEditUsers); err != nil {
		return err
	}
	if actor != nil && actor.UserID == id {
		return ErrSelfAction
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionUserDeleted,
		fmt.Sprintf("deleted user %s (id %d)", user.Username, user.ID), ip)
	return nil
}

// SetActive activates or deactivates an account.
func (s *AdminService) SetActive(ctx context.Context, actor *auth.Session, id int64, active bool, ip string) error {
	if err := actor.RequirePermission(model.CapActivateUsers); err != nil {
		return err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.SetUserActive(ctx, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	action := model.ActionUserDeactivated
	if active {
		action = model.ActionUserActivated
	}
	s.audit.Record(ctx, actor.UserID, action,
		fmt.Sprintf("user %s (id %d)", user.Username, user.ID), ip)
	return nil
}

// LockUser locks an account administratively.
func (s *AdminService) LockUser(ctx context.Context, actor *auth.Session, id int64, ip string) error {
	if err := actor.RequirePermission(model.CapUnlockUsers); err != nil {
		return err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}

	transitioned, err := s.queries.LockUser(ctx, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	if transitioned {
		s.audit.Record(ctx, actor.UserID, model.ActionUserLocked,
			fmt.Sprintf("locked user %s (id %d)", user.Username, user.ID), ip)
	}
	return nil
}

// UnlockUser clears the lock and the failure counters. Idempotent: the
// audit event is emitted on every call, matching the administrator's
// expressed intent rather than the prior state.
func (s *AdminService) UnlockUser(ctx context.Context, actor *auth.Session, id int64, ip string) error {
	if err := actor.RequirePermission(model.CapUnlockUsers); err != nil {
		return err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.UnlockUser(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionUserUnlocked,
		fmt.Sprintf("unlocked user %s (id %d)", user.Username, user.ID), ip)
	return nil
}

// ResetAttempts clears only the failure counters, independent of the lock
// flag. Used to de-risk an at-risk account without a full unlock.
func (s *AdminService) ResetAttempts(ctx context.Context, actor *auth.Session, id int64, ip string) error {
	if err := actor.RequirePermission(model.CapUnlockUsers); err != nil {
		return err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.ResetFailedAttempts(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionAttemptsReset,
		fmt.Sprintf("reset failed attempts for user %s (id %d)", user.Username, user.ID), ip)
	return nil
}

// ResetPassword replaces the target's password with a generated temporary
// one and returns it. The temporary password always satisfies the strength
// policy.
func (s *AdminService) ResetPassword(ctx context.Context, actor *auth.Session, id int64, ip string) (string, error) {
	if err := actor.RequirePermission(model.CapResetPasswords); err != nil {
		return "", err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return "", err
	}

	temp, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID:           id,
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionPasswordReset,
		fmt.Sprintf("reset password for user %s (id %d)", user.Username, user.ID), ip)
	return temp, nil
}

// SetGeneralPermissions overwrites the target's general permission row.
func (s *AdminService) SetGeneralPermissions(ctx context.Context, actor *auth.Session, id int64, perms model.GeneralPermissions, ip string) error {
	if err := actor.RequirePermission(model.CapEditUsers); err != nil {
		return err
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.UpsertGeneralPermissions(ctx, id, perms); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionPermsUpdated,
		fmt.Sprintf("updated permissions for user %s (id %d)", user.Username, user.ID), ip)
	return nil
}

// SetAdminPermissions overwrites the target's admin-tool permission row.
// Guarded by administrator role alone; there is no finer capability for
// managing the admin grant set itself.
func (s *AdminService) SetAdminPermissions(ctx context.Context, actor *auth.Session, id int64, perms model.AdminPermissions, ip string) error {
	if !actor.IsAdmin() {
		return auth.ErrPermissionDenied
	}
	user, err := s.target(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return &ValidationError{Violations: []string{"Admin-tool permissions apply only to administrator accounts"}}
	}

	if err := s.queries.UpsertAdminPermissions(ctx, id, perms); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, actor.UserID, model.ActionAdminPermsUpdate,
		fmt.Sprintf("updated admin permissions for user %s (id %d)", user.Username, user.ID), ip)
	return nil
}

// ListLockedUsers returns all locked accounts for the lock-management view.
func (s *AdminService) ListLockedUsers(ctx context.Context, actor *auth.Session) ([]model.User, error) {
	if err := actor.RequirePermission(model.CapUnlockUsers); err != nil {
		return nil, err
	}
	users, err := s.queries.ListLockedUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return users, nil
}

// ListAtRiskUsers returns unlocked accounts one failure away from lockout.
func (s *AdminService) ListAtRiskUsers(ctx context.Context, actor *auth.Session) ([]model.User, error) {
	if err := actor.RequirePermission(model.CapUnlockUsers); err != nil {
		return nil, err
	}
	users, err := s.queries.ListAtRiskUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return users, nil
}

// ListActivity returns a page of the activity trail.
func (s *AdminService) ListActivity(ctx context.Context, actor *auth.Session, arg store.ListActivityParams) ([]model.ActivityEntry, error) {
	if err := actor.RequireAdminPermission(model.CapView); err != nil {
		return nil, err
	}
	if arg.Limit <= 0 || arg.Limit > 200 {
		arg.Limit = 50
	}
	entries, err := s.queries.ListActivity(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return entries, nil
}

// ListLoginAttempts returns a page of the login-attempt trail.
func (s *AdminService) ListLoginAttempts(ctx context.Context, actor *auth.Session, arg store.ListLoginAttemptsParams) ([]model.LoginAttempt, error) {
	if err := actor.RequireAdminPermission(model.CapView); err != nil {
		return nil, err
	}
	if arg.Limit <= 0 || arg.Limit > 200 {
		arg.Limit = 50
	}
	attempts, err := s.queries.ListLoginAttempts(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	return attempts, nil
}
