// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ogate-go/internal/middleware"
	"github.com/olegiv/ogate-go/internal/service"
	"github.com/olegiv/ogate-go/internal/session"
	"github.com/olegiv/ogate-go/internal/util"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	auth             *service.AuthService
	sm               *scs.SessionManager
	logger           *slog.Logger
	registrationOpen bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, sm *scs.SessionManager, logger *slog.Logger, registrationOpen bool) *AuthHandler {
	return &AuthHandler{
		auth:             authSvc,
		sm:               sm,
		logger:           logger,
		registrationOpen: registrationOpen,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	outcome, err := h.auth.Login(r.Context(), req.Username, req.Password, util.ClientIP(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	resp := loginResponse{
		Success: outcome.Success,
		Reason:  outcome.Reason,
		Message: outcome.Message,
	}

	if !outcome.Success {
		respondJSON(w, http.StatusUnauthorized, resp)
		return
	}

	if err := session.Put(r.Context(), h.sm, outcome.Session); err != nil {
		h.logger.Error("storing session", "error", err)
		respondError(w, http.StatusServiceUnavailable, "unavailable", "Temporary failure, please retry")
		return
	}
	resp.CSRFToken = outcome.Session.CSRFToken
	respondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	h.auth.Logout(r.Context(), sess, util.ClientIP(r))

	if err := session.Destroy(r.Context(), h.sm); err != nil {
		h.logger.Error("destroying session", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	AcceptedTerms bool   `json:"accepted_terms"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.registrationOpen {
		respondError(w, http.StatusForbidden, "registration_closed", "Self-registration is disabled")
		return
	}

	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterParams{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		FullName:      req.FullName,
		AcceptedTerms: req.AcceptedTerms,
	}, util.ClientIP(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserView(user))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	if !sess.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":           sess.UserID,
		"username":          sess.Username,
		"full_name":         sess.FullName,
		"role":              sess.Role,
		"permissions":       sess.Permissions,
		"admin_permissions": sess.AdminPermissions,
	})
}

// CSRFToken handles GET /auth/csrf-token: returns the stable per-session
// token for clients that did not capture it at login.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)
	if !sess.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"csrf_token": sess.CSRFToken})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)

	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.ChangePassword(r.Context(), sess, req.CurrentPassword, req.NewPassword, util.ClientIP(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CheckUsername handles GET /auth/check-username?username=...
func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "username query parameter required")
		return
	}
	available, err := h.auth.UsernameAvailable(r.Context(), username)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// CheckEmail handles GET /auth/check-email?email=...
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "email query parameter required")
		return
	}
	available, err := h.auth.EmailAvailable(r.Context(), email)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"available": available})
}
