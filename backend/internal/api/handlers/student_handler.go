package handlers

import (
	"net/http"

	"acadpulse/backend/internal/api/util"
	"acadpulse/backend/internal/shared"
	"acadpulse/backend/internal/student"
)

// StudentHandler exposes the student dashboard service over HTTP.
type StudentHandler struct {
	Students *student.Service
}

// resolveStudentID pins students to themselves and lets staff pass
// ?student_id=.
func resolveStudentID(r *http.Request) (string, bool) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		return "", false
	}
	studentID := r.URL.Query().Get("student_id")
	if user.Role == shared.RoleStudent || studentID == "" {
		studentID = user.ID
	}
	return studentID, true
}

// GetOverview handles GET /student/overview. Recomputes the academic pulse
// from raw records.
func (h *StudentHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	studentID, ok := resolveStudentID(r)
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	overview, err := h.Students.GetOverview(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, overview)
}

// GetPulse handles GET /student/pulse. Serves the cached snapshot, computing
// it only when absent.
func (h *StudentHandler) GetPulse(w http.ResponseWriter, r *http.Request) {
	studentID, ok := resolveStudentID(r)
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	snapshot, err := h.Students.GetSnapshot(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, snapshot)
}
