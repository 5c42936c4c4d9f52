package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/student-profiles/internal/auth"
	"github.com/sakif/student-profiles/internal/service"
)

// AuthHandler manages the admin session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin          → check the password, set the session cookie
//   - HandleLogout         → clear the session cookie
//   - HandleSession        → report whether the caller is signed in
//   - HandleChangePassword → replace the admin password (RequireAuth)
//   - HandleInit           → create the admin on first run
type AuthHandler struct {
	admins       *service.AdminService
	tokens       *auth.TokenService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie sets the Secure flag on
// the session cookie and should be true behind HTTPS.
func NewAuthHandler(
	admins *service.AdminService,
	tokens *auth.TokenService,
	secureCookie bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		admins:       admins,
		tokens:       tokens,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin signs the admin in.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"password": "..."}
//
// The token goes into an HttpOnly cookie, so page scripts never see it. It is
// also returned in the body for API clients that send "Authorization: Bearer".
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.admins.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, token, h.tokens.TTL(), h.secureCookie)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// The token is stateless and stays valid until it expires; without the
// cookie the browser simply stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleSession reports whether the request carries a valid admin session.
//
// HTTP: GET /api/auth/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.SubjectFromRequest(r, h.tokens)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": err == nil && subject == auth.AdminSubject})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword replaces the admin password.
//
// HTTP: POST /api/admin/change-password
// Auth: Required
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.admins.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password updated"})
}

// HandleInit creates the admin with the default password if it does not
// exist yet. Safe to call repeatedly.
//
// HTTP: GET /api/init
func (h *AuthHandler) HandleInit(w http.ResponseWriter, r *http.Request) {
	res, err := h.admins.Bootstrap(r.Context())
	if err != nil {
		h.logger.Error("admin initialization failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Initialization failed",
		})
		return
	}

	if !res.Created {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Admin already exists",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Admin initialized successfully",
		"password": res.Password,
	})
}

// HandleHealth reports whether the database answers.
//
// HTTP: GET /healthz
func HandleHealth(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
