// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"time"

	"github.com/olegiv/ogate-go/internal/model"
)

// userView is the JSON shape of one account. The password hash never
// leaves the store layer; the nullable failure timestamp flattens to an
// omitted field.
type userView struct {
	ID                int64      `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Role              string     `json:"role"`
	IsActive          bool       `json:"is_active"`
	IsLocked          bool       `json:"is_locked"`
	FailedAttempts    int64      `json:"failed_attempts"`
	AtRisk            bool       `json:"at_risk"`
	LastFailedAttempt *time.Time `json:"last_failed_attempt,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toUserView(u model.User) userView {
	v := userView{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		IsActive:       u.IsActive,
		IsLocked:       u.IsLocked,
		FailedAttempts: u.FailedAttempts,
		AtRisk:         u.IsAtRisk(),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.LastFailedAttempt.Valid {
		t := u.LastFailedAttempt.Time
		v.LastFailedAttempt = &t
	}
	return v
}

func toUserViews(users []model.User) []userView {
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	return views
}

// activityView is the JSON shape of one activity entry. Nullable store
// fields flatten to omitted or zero values.
type activityView struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	IPAddress   string    `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
}

func toActivityViews(entries []model.ActivityEntry) []activityView {
	views := make([]activityView, 0, len(entries))
	for _, e := range entries {
		v := activityView{
			ID:        e.ID,
			Action:    e.Action,
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
		}
		if e.UserID.Valid {
			v.UserID = e.UserID.Int64
		}
		if e.Description.Valid {
			v.Description = e.Description.String
		}
		views = append(views, v)
	}
	return views
}

// attemptView is the JSON shape of one login attempt.
type attemptView struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id,omitempty"`
	Username      string    `json:"username"`
	IPAddress     string    `json:"ip_address"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAttemptViews(attempts []model.LoginAttempt) []attemptView {
	views := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		v := attemptView{
			ID:        a.ID,
			Username:  a.Username,
			IPAddress: a.IPAddress,
			Success:   a.Success,
			CreatedAt: a.CreatedAt,
		}
		if a.UserID.Valid {
			v.UserID = a.UserID.Int64
		}
		if a.FailureReason.Valid {
			v.FailureReason = a.FailureReason.String
		}
		views = append(views, v)
	}
	return views
}
