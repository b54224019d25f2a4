package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"acadpulse/backend/internal/admin"
	"acadpulse/backend/internal/api/util"
)

// AdminHandler exposes administrative operations over HTTP.
type AdminHandler struct {
	Admin *admin.Service
}

// GetSystemStats handles GET /admin/stats
func (h *AdminHandler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.GetSystemStats(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}

// GetAnalytics handles GET /admin/analytics
func (h *AdminHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.Admin.GetAnalytics(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, analytics)
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	adminUser, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req admin.CreateUserRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	user, err := h.Admin.CreateUser(r.Context(), adminUser.ID, req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, user)
}

// SetUserStatus handles PATCH /admin/users/{id}/status
func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	if err := h.Admin.SetUserActive(r.Context(), userID, req.Active); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"active":  req.Active,
	})
}

// GetAuditLogs handles GET /admin/audit
func (h *AdminHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	logs, err := h.Admin.GetAuditLogs(r.Context(), q.Get("user_id"), q.Get("action"), limit)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// Recompute handles POST /admin/recompute
func (h *AdminHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	adminUser, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	result, err := h.Admin.RecomputeAll(r.Context(), adminUser.ID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}
