// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ogate-go/internal/middleware"
	"github.com/olegiv/ogate-go/internal/model"
	"github.com/olegiv/ogate-go/internal/service"
)

// RouterConfig carries everything the route tree needs.
type RouterConfig struct {
	SessionManager *scs.SessionManager
	Auth           *service.AuthService
	Admin          *service.AdminService
	Audit          *service.AuditService
	Logger         *slog.Logger

	SessionSecret    []byte
	IsDev            bool
	RegistrationOpen bool
	LoginRateLimit   float64
	LoginRateBurst   int
}

// NewRouter assembles the full route tree: session handling, the two CSRF
// layers, capability guards, and the JSON endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.SessionManager, cfg.Logger, cfg.RegistrationOpen)
	adminHandler := NewAdminHandler(cfg.Admin, cfg.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Use(middleware.CrossOriginProtection(
		middleware.DefaultCSRFConfig(cfg.SessionSecret, cfg.IsDev)))
	r.Use(cfg.SessionManager.LoadAndSave)
	r.Use(middleware.LoadSession(cfg.SessionManager))

	loginLimit := cfg.LoginRateLimit
	loginBurst := cfg.LoginRateBurst
	if loginLimit <= 0 {
		loginLimit = 0.5
	}
	if loginBurst <= 0 {
		loginBurst = 5
	}

	r.Route("/auth", func(r chi.Router) {
		// Login and registration are anonymous mutations: the session
		// token guard cannot apply before a session exists, so they sit
		// behind the cross-origin layer and the IP rate limiter instead.
		r.Group(func(r chi.Router) {
			r.Use(middleware.IPRateLimit(loginLimit, loginBurst))
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})

		r.Get("/check-username", authHandler.CheckUsername)
		r.Get("/check-email", authHandler.CheckEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth())
			r.Use(middleware.CSRFTokenGuard(cfg.Audit))
			r.Get("/me", authHandler.Me)
			r.Get("/csrf-token", authHandler.CSRFToken)
			r.Post("/logout", authHandler.Logout)
			r.Post("/password", authHandler.ChangePassword)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Use(middleware.CSRFTokenGuard(cfg.Audit))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.CapEditUsers, cfg.Audit))
			r.Get("/", adminHandler.ListUsers)
			r.Post("/", adminHandler.CreateUser)
			r.Get("/{id}", adminHandler.GetUser)
			r.Put("/{id}", adminHandler.UpdateUser)
			r.Delete("/{id}", adminHandler.DeleteUser)
			r.Put("/{id}/permissions", adminHandler.SetPermissions)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.CapActivateUsers, cfg.Audit))
			r.Post("/users/{id}/activate", adminHandler.ActivateUser)
			r.Post("/users/{id}/deactivate", adminHandler.DeactivateUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.CapUnlockUsers, cfg.Audit))
			r.Get("/lock-management", adminHandler.LockManagement)
			r.Post("/users/{id}/lock", adminHandler.LockUser)
			r.Post("/users/{id}/unlock", adminHandler.UnlockUser)
			r.Post("/users/{id}/reset-attempts", adminHandler.ResetAttempts)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.CapResetPasswords, cfg.Audit))
			r.Post("/users/{id}/reset-password", adminHandler.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Put("/users/{id}/admin-permissions", adminHandler.SetAdminPermissions)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminPermission(model.CapView, cfg.Audit))
			r.Get("/activity", adminHandler.ListActivity)
			r.Get("/login-attempts", adminHandler.ListLoginAttempts)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
