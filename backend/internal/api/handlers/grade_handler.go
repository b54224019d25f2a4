package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"acadpulse/backend/internal/api/util"
	"acadpulse/backend/internal/grade"
	"acadpulse/backend/internal/shared"
)

// GradeHandler exposes the grade service over HTTP.
type GradeHandler struct {
	Grades *grade.Service
}

// GetStudentGrades handles GET /grades. Students see only published results;
// faculty and admin pass ?student_id= and see everything.
func (h *GradeHandler) GetStudentGrades(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := r.URL.Query().Get("student_id")
	includeUnpublished := user.Role != shared.RoleStudent
	if user.Role == shared.RoleStudent || studentID == "" {
		studentID = user.ID
	}

	semester := r.URL.Query().Get("semester")

	grades, gpa, err := h.Grades.StudentGrades(r.Context(), studentID, semester, includeUnpublished)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"grades":  grades,
		"gpa":     gpa,
	})
}

// GetGPA handles GET /grades/gpa
func (h *GradeHandler) GetGPA(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if user.Role == shared.RoleStudent || studentID == "" {
		studentID = user.ID
	}

	gpa, err := h.Grades.StudentGPA(r.Context(), studentID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, gpa)
}

// GetCourseGrades handles GET /grades/course/{course_id} (faculty only)
func (h *GradeHandler) GetCourseGrades(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	courseID := chi.URLParam(r, "course_id")

	grades, err := h.Grades.CourseGrades(r.Context(), courseID, user.ID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(grades),
		"grades":  grades,
	})
}

// SubmitComponents handles POST /grades/submit (faculty only)
func (h *GradeHandler) SubmitComponents(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req grade.SubmitComponentsRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	req.FacultyID = user.ID

	doc, err := h.Grades.SubmitComponents(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, doc)
}

// AddAssessment handles POST /grades/assessment (faculty only)
func (h *GradeHandler) AddAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		StudentID string                 `json:"student_id"`
		CourseID  string                 `json:"course_id"`
		Kind      string                 `json:"kind"`
		Score     shared.AssessmentScore `json:"score"`
	}
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	if err := h.Grades.AddAssessment(r.Context(), req.StudentID, req.CourseID, req.Kind, req.Score, user.ID); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "assessment recorded",
	})
}

// Publish handles POST /grades/publish/{course_id} (faculty only)
func (h *GradeHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user, ok := util.UserFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	courseID := chi.URLParam(r, "course_id")

	published, err := h.Grades.Publish(r.Context(), courseID, user.ID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"published": published,
	})
}

// Enroll handles POST /grades/enroll. Opens the empty grade record for a
// student in a course.
func (h *GradeHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID    string `json:"student_id"`
		CourseID     string `json:"course_id"`
		AcademicYear string `json:"academic_year"`
	}
	if err := util.DecodeJSON(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	doc, err := h.Grades.CreateForEnrollment(r.Context(), req.StudentID, req.CourseID, req.AcademicYear)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, doc)
}
