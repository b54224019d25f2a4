package handlers

import (
	"net/http"

	"acadpulse/backend/internal/api/util"
	"acadpulse/backend/internal/auth"
)

// AuthHandler exposes the auth service over HTTP.
type AuthHandler struct {
	Auth *auth.Service
}

// RESTChangePasswordRequest mirrors the expected JSON input for /auth/change-password
type RESTChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	req.IPAddress = r.RemoteAddr

	result, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "logout successful",
	})
}

// Validate handles GET /auth/validate. The auth middleware already validated
// the token; this just echoes the resolved user.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	util.WriteJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req RESTChangePasswordRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "password changed; all sessions revoked",
	})
}
