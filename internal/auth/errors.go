// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "errors"

// Failure taxonomy for authentication and authorization. Authentication
// outcomes are returned to callers as structured values (see Outcome);
// these sentinels are for the operations that fail with an error.
var (
	// ErrInvalidCredentials covers both unknown username and wrong
	// password; the distinction is never surfaced to the caller.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountLocked is returned for operations against a locked account.
	ErrAccountLocked = errors.New("account is locked")

	// ErrAccountInactive is returned for operations against a deactivated
	// account.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrPermissionDenied signals a failed capability check.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCSRFValidationFailed signals a missing or mismatched anti-forgery
	// token on a state-changing request.
	ErrCSRFValidationFailed = errors.New("csrf validation failed")

	// ErrDuplicateIdentity signals a username or email collision on
	// registration or user edit.
	ErrDuplicateIdentity = errors.New("username or email already in use")

	// ErrPersistenceUnavailable wraps store-level faults that should be
	// surfaced as a generic retry-later failure.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// Machine-checkable reason codes carried by login outcomes.
const (
	ReasonOK                 = "ok"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonAccountLocked      = "account_locked"
	ReasonAccountInactive    = "account_inactive"
)

// Outcome is the structured result of a login attempt. Authentication
// failures are always recovered into an Outcome rather than propagated as
// errors; only persistence faults surface as errors.
type Outcome struct {
	Success bool     `json:"success"`
	Reason  string   `json:"reason"`
	Message string   `json:"message"`
	Session *Session `json:"-"`
}

// Rejected builds a failed outcome with the given reason code and message.
func Rejected(reason, message string) Outcome {
	return Outcome{Reason: reason, Message: message}
}
