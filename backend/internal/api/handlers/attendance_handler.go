package handlers

import (
	"encoding/csv"
	"net/http"
	"time"

	"acadpulse/backend/internal/api/util"
	"acadpulse/backend/internal/attendance"
	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/shared"
)

// AttendanceHandler exposes the attendance service over HTTP.
type AttendanceHandler struct {
	Attendance *attendance.Service
}

// MarkSession handles POST /attendance/mark (faculty only)
func (h *AttendanceHandler) MarkSession(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req attendance.MarkSessionRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	req.FacultyID = user.ID

	result, err := h.Attendance.MarkSession(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// GetRecords handles GET /attendance/records. Students are pinned to their
// own records; faculty and admin may query any scope.
func (h *AttendanceHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := queryFromRequest(r)
	if user.Role == shared.RoleStudent {
		query.StudentID = user.ID
	}

	records, err := h.Attendance.GetRecords(r.Context(), query)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(records),
		"records": records,
	})
}

// StudentSummary handles GET /attendance/summary. Students see their own
// figures; faculty and admin pass ?student_id=.
func (h *AttendanceHandler) StudentSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if user.Role == shared.RoleStudent || studentID == "" {
		studentID = user.ID
	}

	report, err := h.Attendance.StudentSummary(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, report)
}

// SectionSummary handles GET /attendance/section (faculty only)
func (h *AttendanceHandler) SectionSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.Attendance.SectionSummary(r.Context(),
		q.Get("subject"), q.Get("section"), q.Get("branch"), q.Get("year"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, report)
}

// ExportCSV handles GET /attendance/export. Streams the student's summary as
// a CSV attachment.
func (h *AttendanceHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if user.Role == shared.RoleStudent || studentID == "" {
		studentID = user.ID
	}

	report, err := h.Attendance.StudentSummary(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(engine.CSVHeader)
	_ = cw.WriteAll(report.CSVRows())
	cw.Flush()
}

// Cleanup handles POST /admin/attendance/cleanup (admin only)
func (h *AttendanceHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Subject string    `json:"subject"`
		From    time.Time `json:"from"`
		To      time.Time `json:"to"`
	}
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	deleted, err := h.Attendance.Cleanup(r.Context(), user.ID, req.Subject, req.From, req.To)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}

// queryFromRequest maps URL query parameters to a record query.
func queryFromRequest(r *http.Request) attendance.RecordQuery {
	q := r.URL.Query()

	query := attendance.RecordQuery{
		StudentID: q.Get("student_id"),
		Subject:   q.Get("subject"),
		Section:   q.Get("section"),
		Branch:    q.Get("branch"),
		Year:      q.Get("year"),
	}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		query.From = from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		query.To = to
	}
	return query
}
