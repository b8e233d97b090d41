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
	"regexp"
	"strings"
	"time"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/store"
)

// Login outcome messages. Invalid credentials and unknown username share one
// message so callers cannot probe for account existence.
const (
	msgInvalidCredentials = "Invalid username or password."
	msgAttemptsRemaining  = "Invalid username or password. %d attempt(s) remaining."
	msgAccountLocked      = "Account is locked due to multiple failed login attempts. Please contact an administrator."
	msgAccountInactive    = "Account is not active. Please contact an administrator."
)

// ValidationError carries the full list of input violations so callers can
// surface every problem at once instead of one per round trip.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// AuthService implements login, logout, registration, and self-service
// password changes.
type AuthService struct {
	db      *sql.DB
	queries *store.Queries
	audit   *AuditService
	logger  *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(db *sql.DB, audit *AuditService, logger *slog.Logger) *AuthService {
	return &AuthService{
		db:      db,
		queries: store.New(db),
		audit:   audit,
		logger:  logger,
	}
}

// Login authenticates a username/password pair from the given origin
// address. Authentication failures come back as a rejected Outcome; only
// persistence faults return an error.
func (s *AuthService) Login(ctx context.Context, username, password, ip string) (auth.Outcome, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		// The message must not reveal whether the username exists.
		s.audit.RecordAttempt(ctx, 0, username, ip, false, model.AttemptUserNotFound)
		s.audit.Record(ctx, 0, model.ActionLoginFailed, "unknown username "+username, ip)
		return auth.Rejected(auth.ReasonInvalidCredentials, msgInvalidCredentials), nil
	}
	if err != nil {
		return auth.Outcome{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	if user.IsLocked {
		// Locked accounts never touch the failure counters.
		s.audit.RecordAttempt(ctx, user.ID, username, ip, false, model.AttemptAccountLocked)
		s.audit.Record(ctx, user.ID, model.ActionLoginFailed, "attempt against locked account", ip)
		return auth.Rejected(auth.ReasonAccountLocked, msgAccountLocked), nil
	}

	if !user.IsActive {
		s.audit.RecordAttempt(ctx, user.ID, username, ip, false, model.AttemptAccountInactive)
		s.audit.Record(ctx, user.ID, model.ActionLoginFailed, "attempt against inactive account", ip)
		return auth.Rejected(auth.ReasonAccountInactive, msgAccountInactive), nil
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("verifying password hash", "user_id", user.ID, "error", err)
		ok = false
	}
	if !ok {
		return s.handleFailedPassword(ctx, user, ip)
	}

	now := time.Now().UTC()
	if err := s.queries.ResetFailedAttempts(ctx, user.ID, now); err != nil {
		return auth.Outcome{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}
	s.audit.RecordAttempt(ctx, user.ID, username, ip, true, "")
	s.audit.Record(ctx, user.ID, model.ActionLoginSuccess, "", ip)

	sess, err := s.buildSession(ctx, user)
	if err != nil {
		return auth.Outcome{}, err
	}
	s.audit.Record(ctx, user.ID, model.ActionLogin, "session established", ip)

	return auth.Outcome{
		Success: true,
		Reason:  auth.ReasonOK,
		Message: "Login successful.",
		Session: sess,
	}, nil
}

func (s *AuthService) handleFailedPassword(ctx context.Context, user model.User, ip string) (auth.Outcome, error) {
	now := time.Now().UTC()

	// Single atomic read-modify-write: two concurrent failures cannot both
	// observe the pre-threshold count.
	count, err := s.queries.IncrementFailedAttempts(ctx, user.ID, now)
	if err != nil {
		return auth.Outcome{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.RecordAttempt(ctx, user.ID, user.Username, ip, false, model.AttemptInvalidPassword)
	s.audit.Record(ctx, user.ID, model.ActionLoginFailed, "invalid password", ip)

	if auth.ShouldLock(count) {
		transitioned, err := s.queries.LockUser(ctx, user.ID, now)
		if err != nil {
			return auth.Outcome{}, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
		}
		if transitioned {
			s.audit.Record(ctx, user.ID, model.ActionAccountLocked,
				fmt.Sprintf("locked after %d failed attempts", count), ip)
		}
		return auth.Rejected(auth.ReasonAccountLocked, msgAccountLocked), nil
	}

	return auth.Rejected(auth.ReasonInvalidCredentials,
		fmt.Sprintf(msgAttemptsRemaining, auth.RemainingAttempts(count))), nil
}

func (s *AuthService) buildSession(ctx context.Context, user model.User) (*auth.Session, error) {
	perms, _, err := s.queries.GetGeneralPermissions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	adminPerms := model.DefaultAdminPermissions()
	if user.IsAdmin() {
		adminPerms, _, err = s.queries.GetAdminPermissions(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
		}
	}

	token, err := auth.NewCSRFToken()
	if err != nil {
		return nil, fmt.Errorf("issuing csrf token: %w", err)
	}

	return &auth.Session{
		UserID:           user.ID,
		Username:         user.Username,
		FullName:         user.FullName,
		Role:             user.Role,
		Permissions:      perms,
		AdminPermissions: adminPerms,
		CSRFToken:        token,
	}, nil
}

// Logout records the logout event. Safe to call with a nil session; the
// caller destroys the session storage afterwards.
func (s *AuthService) Logout(ctx context.Context, sess *auth.Session, ip string) {
	if !sess.IsAuthenticated() {
		return
	}
	s.audit.Record(ctx, sess.UserID, model.ActionLogout, "", ip)
}

// RegisterParams holds the self-registration form fields.
type RegisterParams struct {
	Username      string
	Email         string
	Password      string
	FullName      string
	AcceptedTerms bool
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// ValidateRegistration checks all registration inputs and returns the full
// violation list without touching the store.
func ValidateRegistration(arg RegisterParams) []string {
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
	errs = append(errs, auth.ValidatePassword(arg.Password)...)
	if !arg.AcceptedTerms {
		errs = append(errs, "You must accept the terms and conditions")
	}

	return errs
}

// Register creates a new active regular user with the default permission
// set. Returns ErrDuplicateIdentity on a username or email collision and
// *ValidationError on bad input.
func (s *AuthService) Register(ctx context.Context, arg RegisterParams, ip string) (model.User, error) {
	if errs := ValidateRegistration(arg); len(errs) > 0 {
		return model.User{}, &ValidationError{Violations: errs}
	}

	hash, err := auth.HashPassword(arg.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	// One transaction with the insert; uniqueness races resolve at the
	// store constraints, not at a pre-check.
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
		Role:         model.RoleUser,
		IsActive:     true,
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

	s.audit.Record(ctx, user.ID, model.ActionRegistration, "account registered", ip)
	return user, nil
}

// UsernameAvailable reports whether a username can be registered.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	exists, err := s.queries.UsernameExists(ctx, username, 0)
	return !exists, err
}

// EmailAvailable reports whether an email can be registered.
func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := s.queries.EmailExists(ctx, strings.ToLower(email), 0)
	return !exists, err
}

// ChangePassword lets an authenticated user replace their own password
// after proving knowledge of the current one.
func (s *AuthService) ChangePassword(ctx context.Context, sess *auth.Session, current, next, ip string) error {
	if !sess.IsAuthenticated() {
		return auth.ErrPermissionDenied
	}

	user, err := s.queries.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	ok, err := auth.CheckPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return auth.ErrInvalidCredentials
	}

	if errs := auth.ValidatePassword(next); len(errs) > 0 {
		return &ValidationError{Violations: errs}
	}

	if same, err := auth.CheckPassword(next, user.PasswordHash); err == nil && same {
		return &ValidationError{Violations: []string{"New password must be different from the current password"}}
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID:           user.ID,
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceUnavailable, err)
	}

	s.audit.Record(ctx, user.ID, model.ActionPasswordChanged, "", ip)
	return nil
}
