// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ogate-go/internal/middleware"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/service"
	"github.com/olegiv/ogate-go/internal/store"
	"github.com/olegiv/ogate-go/internal/util"
)

// AdminHandler serves the user-management endpoints.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(adminSvc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: adminSvc, logger: logger}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid user id")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (limit, offset int64) {
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ = strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, err := h.admin.ListUsers(r.Context(), middleware.GetSession(r), limit, offset)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": toUserViews(users)})
}

// GetUser handles GET /admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, perms, adminPerms, err := h.admin.GetUser(r.Context(), middleware.GetSession(r), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":              toUserView(user),
		"permissions":       perms,
		"admin_permissions": adminPerms,
	})
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// CreateUser handles POST /admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.admin.CreateUser(r.Context(), middleware.GetSession(r), service.CreateUserParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	}, util.ClientIP(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserView(user))
}

type updateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
	Password string `json:"password,omitempty"`
}

// UpdateUser handles PUT /admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.admin.UpdateUser(r.Context(), middleware.GetSession(r), service.UpdateUserParams{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
		Password: req.Password,
	}, util.ClientIP(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserView(user))
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(r.Context(), middleware.GetSession(r), id, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admin.SetActive(r.Context(), middleware.GetSession(r), id, active, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ActivateUser handles POST /admin/users/{id}/activate.
func (h *AdminHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// DeactivateUser handles POST /admin/users/{id}/deactivate.
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// LockUser handles POST /admin/users/{id}/lock.
func (h *AdminHandler) LockUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admin.LockUser(r.Context(), middleware.GetSession(r), id, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UnlockUser handles POST /admin/users/{id}/unlock.
func (h *AdminHandler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admin.UnlockUser(r.Context(), middleware.GetSession(r), id, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ResetAttempts handles POST /admin/users/{id}/reset-attempts.
func (h *AdminHandler) ResetAttempts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admin.ResetAttempts(r.Context(), middleware.GetSession(r), id, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ResetPassword handles POST /admin/users/{id}/reset-password. The
// temporary password appears once in the response and nowhere else.
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	temp, err := h.admin.ResetPassword(r.Context(), middleware.GetSession(r), id, util.ClientIP(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"temporary_password": temp})
}

// SetPermissions handles PUT /admin/users/{id}/permissions.
func (h *AdminHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var perms model.GeneralPermissions
	if !decodeBody(w, r, &perms) {
		return
	}
	if err := h.admin.SetGeneralPermissions(r.Context(), middleware.GetSession(r), id, perms, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SetAdminPermissions handles PUT /admin/users/{id}/admin-permissions.
func (h *AdminHandler) SetAdminPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var perms model.AdminPermissions
	if !decodeBody(w, r, &perms) {
		return
	}
	if err := h.admin.SetAdminPermissions(r.Context(), middleware.GetSession(r), id, perms, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LockManagement handles GET /admin/lock-management: locked accounts plus
// accounts one failure away from lockout.
func (h *AdminHandler) LockManagement(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	locked, err := h.admin.ListLockedUsers(r.Context(), sess)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	atRisk, err := h.admin.ListAtRiskUsers(r.Context(), sess)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"locked":  toUserViews(locked),
		"at_risk": toUserViews(atRisk),
	})
}

// ListActivity handles GET /admin/activity.
func (h *AdminHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	entries, err := h.admin.ListActivity(r.Context(), middleware.GetSession(r), store.ListActivityParams{
		UserID: userID,
		Action: r.URL.Query().Get("action"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"activity": toActivityViews(entries)})
}

// ListLoginAttempts handles GET /admin/login-attempts.
func (h *AdminHandler) ListLoginAttempts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	attempts, err := h.admin.ListLoginAttempts(r.Context(), middleware.GetSession(r), store.ListLoginAttemptsParams{
		Username: r.URL.Query().Get("username"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"attempts": toAttemptViews(attempts)})
}
