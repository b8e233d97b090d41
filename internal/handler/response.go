// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the JSON endpoints for authentication and
// user administration.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/ogate-go/internal/auth"
	"github.com/olegiv/ogate-go/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code       string   `json:"code"`
		Message    string   `json:"message"`
		Violations []string `json:"violations,omitempty"`
	} `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	body := errorBody{}
	body.Error.Code = code
	body.Error.Message = message
	respondJSON(w, status, body)
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Unknown
// errors are treated as persistence faults: logged in full, surfaced as a
// generic retry-later failure.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body := errorBody{}
		body.Error.Code = "validation_failed"
		body.Error.Message = "Input validation failed"
		body.Error.Violations = verr.Violations
		respondJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, auth.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password.")
	case errors.Is(err, auth.ErrDuplicateIdentity):
		respondError(w, http.StatusConflict, "duplicate_identity", "Username or email already in use")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, service.ErrSelfAction):
		respondError(w, http.StatusBadRequest, "self_action", "Operation cannot target your own account")
	default:
		logger.Error("request failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "unavailable", "Temporary failure, please retry")
	}
}

// decodeBody decodes a JSON request body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Malformed JSON body")
		return false
	}
	return true
}
