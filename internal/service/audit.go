// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the authentication, administration, and audit
// operations on top of the store layer.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/ogate-go/internal/store"
)

// AuditService appends to the activity and login-attempt trails. Recording
// is best-effort: a failed write is logged and swallowed so it can never
// fail the operation being audited.
type AuditService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(db *sql.DB, logger *slog.Logger) *AuditService {
	return &AuditService{queries: store.New(db), logger: logger}
}

// Record appends one activity entry. userID 0 records an anonymous entry.
func (s *AuditService) Record(ctx context.Context, userID int64, action, description, ip string) {
	var uid sql.NullInt64
	if userID > 0 {
		uid = sql.NullInt64{Int64: userID, Valid: true}
	}
	err := s.queries.InsertActivity(ctx, store.InsertActivityParams{
		UserID:      uid,
		Action:      action,
		Description: description,
		IPAddress:   ip,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("recording activity", "action", action, "user_id", userID, "error", err)
	}
}

// RecordAttempt appends one login attempt. userID 0 records an attempt
// against an unknown account; failureReason is empty on success.
func (s *AuditService) RecordAttempt(ctx context.Context, userID int64, username, ip string, success bool, failureReason string) {
	var uid sql.NullInt64
	if userID > 0 {
		uid = sql.NullInt64{Int64: userID, Valid: true}
	}
	var reason sql.NullString
	if failureReason != "" {
		reason = sql.NullString{String: failureReason, Valid: true}
	}
	err := s.queries.InsertLoginAttempt(ctx, store.InsertLoginAttemptParams{
		UserID:        uid,
		Username:      username,
		IPAddress:     ip,
		Success:       success,
		FailureReason: reason,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("recording login attempt", "username", username, "error", err)
	}
}
