// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a user account (student, faculty, or admin).
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string    `bson:"role" json:"role"`       // student, faculty, admin
	Name         string    `bson:"name" json:"name"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	// Student-specific fields
	StudentID string `bson:"student_id,omitempty" json:"student_id,omitempty"`
	Branch    string `bson:"branch,omitempty" json:"branch,omitempty"` // e.g., "CSE", "ECE"
	Year      string `bson:"year,omitempty" json:"year,omitempty"`     // "1".."4"
	Section   string `bson:"section,omitempty" json:"section,omitempty"`

	// Faculty-specific fields
	FacultyID  string `bson:"faculty_id,omitempty" json:"faculty_id,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`

	// Denormalized dashboard stats, maintained by services and the recompute job
	Stats UserStats `bson:"stats,omitempty" json:"stats,omitempty"`

	IsActive bool `bson:"is_active" json:"is_active"`
}

// UserStats carries denormalized per-student counters for dashboard fast paths.
// The authoritative values are always recomputable from raw records.
type UserStats struct {
	Streak       int       `bson:"streak,omitempty" json:"streak,omitempty"`
	BestStreak   int       `bson:"best_streak,omitempty" json:"best_streak,omitempty"`
	LastLogin    time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	TotalClasses int       `bson:"total_classes,omitempty" json:"total_classes,omitempty"`
	TotalPresent int       `bson:"total_present,omitempty" json:"total_present,omitempty"`
}

// Session represents an active user session (for JWT tracking).
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	IPAddress string    `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}

// IsExpired checks if a session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================================
// Course Models
// ============================================================================

// Course represents a course offering.
type Course struct {
	ID          string    `bson:"_id" json:"id"`
	Code        string    `bson:"code" json:"code"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Subject     string    `bson:"subject" json:"subject"` // attendance grouping key
	Credits     float64   `bson:"credits" json:"credits"`
	Semester    string    `bson:"semester" json:"semester"` // "1st".."8th"
	FacultyID   string    `bson:"faculty_id" json:"faculty_id"`
	Branch      string    `bson:"branch,omitempty" json:"branch,omitempty"`
	Year        string    `bson:"year,omitempty" json:"year,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Attendance Models
// ============================================================================

// AttendanceDoc is one student's presence record for one subject session on
// one date. The collection carries a unique index on
// (student_id, subject, date), so re-marking the same slot is an upsert
// (correction), never a duplicate.
type AttendanceDoc struct {
	ID          string    `bson:"_id" json:"id"`
	Date        time.Time `bson:"date" json:"date"` // normalized to UTC midnight
	StudentID   string    `bson:"student_id" json:"student_id"`
	StudentName string    `bson:"student_name,omitempty" json:"student_name,omitempty"`
	Subject     string    `bson:"subject" json:"subject"`
	Section     string    `bson:"section" json:"section"`
	Branch      string    `bson:"branch" json:"branch"`
	Year        string    `bson:"year" json:"year"`
	Status      string    `bson:"status" json:"status"` // Present, Absent, Leave, Late
	Remarks     string    `bson:"remarks,omitempty" json:"remarks,omitempty"`
	FacultyID   string    `bson:"faculty_id" json:"faculty_id"`
	FacultyName string    `bson:"faculty_name,omitempty" json:"faculty_name,omitempty"`
	MarkedAt    time.Time `bson:"marked_at" json:"marked_at"`
	UpdatedAt   time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Grade Models
// ============================================================================

// AssessmentScore is one assignment or project result within a course grade.
type AssessmentScore struct {
	Name          string    `bson:"name" json:"name"`
	MarksObtained float64   `bson:"marks_obtained" json:"marks_obtained"`
	TotalMarks    float64   `bson:"total_marks" json:"total_marks"`
	Percentage    float64   `bson:"percentage" json:"percentage"`
	SubmittedDate time.Time `bson:"submitted_date,omitempty" json:"submitted_date,omitempty"`
	Feedback      string    `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// GradeDoc is one student's grade record for one course in one semester.
// Created empty on enrollment, mutated as component scores arrive, and locked
// once ResultPublishedDate is set.
type GradeDoc struct {
	ID           string  `bson:"_id" json:"id"`
	StudentID    string  `bson:"student_id" json:"student_id"`
	CourseID     string  `bson:"course_id" json:"course_id"`
	CourseCode   string  `bson:"course_code,omitempty" json:"course_code,omitempty"`
	Semester     string  `bson:"semester" json:"semester"`
	AcademicYear string  `bson:"academic_year" json:"academic_year"`
	Credits      float64 `bson:"credits" json:"credits"`

	AssignmentScores []AssessmentScore `bson:"assignment_scores,omitempty" json:"assignment_scores,omitempty"`
	ProjectScores    []AssessmentScore `bson:"project_scores,omitempty" json:"project_scores,omitempty"`

	InternalMarks  float64 `bson:"internal_marks" json:"internal_marks"`   // 0..30
	ExternalMarks  float64 `bson:"external_marks" json:"external_marks"`   // 0..70
	PracticalMarks float64 `bson:"practical_marks" json:"practical_marks"` // 0..50

	// Derived by the aggregation engine, stored denormalized for display
	TotalMarks       float64 `bson:"total_marks" json:"total_marks"`
	TotalMarksCapped float64 `bson:"total_marks_capped" json:"total_marks_capped"`
	Percentage       float64 `bson:"percentage" json:"percentage"`
	LetterGrade      string  `bson:"letter_grade" json:"letter_grade"`
	GradePoints      float64 `bson:"grade_points" json:"grade_points"`
	IsPass           bool    `bson:"is_pass" json:"is_pass"`

	TeacherFeedback     string    `bson:"teacher_feedback,omitempty" json:"teacher_feedback,omitempty"`
	ResultPublishedDate time.Time `bson:"result_published_date,omitempty" json:"result_published_date,omitempty"`
	LastModifiedBy      string    `bson:"last_modified_by,omitempty" json:"last_modified_by,omitempty"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsFinalized reports whether the result has been published; finalized grades
// reject further mutation.
func (g *GradeDoc) IsFinalized() bool {
	return !g.ResultPublishedDate.IsZero()
}

// ============================================================================
// Derived Snapshot Models
// ============================================================================

// AcademicPulseDoc is a persisted snapshot of a student's derived academics.
// It is a cache, not a source of truth: the recompute job rebuilds it from raw
// attendance and grade records.
type AcademicPulseDoc struct {
	ID                   string    `bson:"_id" json:"id"`
	StudentID            string    `bson:"student_id" json:"student_id"`
	AttendancePercentage int       `bson:"attendance_percentage" json:"attendance_percentage"`
	TotalClasses         int       `bson:"total_classes" json:"total_classes"`
	TotalPresent         int       `bson:"total_present" json:"total_present"`
	CGPA                 float64   `bson:"cgpa" json:"cgpa"`
	CreditsEarned        float64   `bson:"credits_earned" json:"credits_earned"`
	ComputedAt           time.Time `bson:"computed_at" json:"computed_at"`
}

// ============================================================================
// Audit Log Models
// ============================================================================

// AuditLog represents an audit log entry.
type AuditLog struct {
	ID        string                 `bson:"_id" json:"id"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	UserID    string                 `bson:"user_id" json:"user_id"`
	Action    string                 `bson:"action" json:"action"`
	Resource  string                 `bson:"resource" json:"resource"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress string                 `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}

// ============================================================================
// System Models (for admin dashboard)
// ============================================================================

// SystemStats represents system statistics for the admin dashboard.
type SystemStats struct {
	TotalStudents      int64 `json:"total_students"`
	TotalFaculty       int64 `json:"total_faculty"`
	TotalCourses       int64 `json:"total_courses"`
	TotalAttendance    int64 `json:"total_attendance_records"`
	TotalGradeRecords  int64 `json:"total_grade_records"`
	PublishedGrades    int64 `json:"published_grades"`
	ActiveSessionCount int64 `json:"active_sessions"`
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// User roles
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"

	// Semesters
	MaxSemester = 8

	// Component mark ceilings (schema-declared entry bounds)
	MaxInternalMarks  = 30
	MaxExternalMarks  = 70
	MaxPracticalMarks = 50

	// Audit actions
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionAttendanceMark    = "attendance_mark"
	ActionAttendanceCleanup = "attendance_cleanup"
	ActionGradeSubmit       = "grade_submit"
	ActionGradePublish      = "grade_publish"
	ActionUserCreate        = "user_create"
	ActionRecompute         = "recompute"
)

// IsValidRole checks if a user role is valid.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// semesterLabels enumerates the ordinal labels for semesters 1..MaxSemester.
var semesterLabels = [MaxSemester]string{"1st", "2nd", "3rd", "4th", "5th", "6th", "7th", "8th"}

// IsValidSemester checks a semester label against the "1st".."8th" enum.
func IsValidSemester(semester string) bool {
	for _, label := range semesterLabels {
		if semester == label {
			return true
		}
	}
	return false
}
