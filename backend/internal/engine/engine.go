// ============================================================================
// backend/internal/engine/engine.go
// Core types, configuration, and errors for the aggregation engine
// ============================================================================

// Package engine implements the attendance and grade aggregation core as pure,
// synchronous computations. It owns no persistent state: callers supply the raw
// records (already filtered to the desired scope) and receive derived summaries.
// All I/O, concurrency control, and persistence belong to the caller.
package engine

import (
	"errors"
	"fmt"
	"time"
)

// ============================================================================
// Attendance Types
// ============================================================================

// Status is the recorded presence state for one student in one class session.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLeave   Status = "Leave"
	StatusLate    Status = "Late"
)

// IsValidStatus reports whether s is one of the recognized attendance statuses.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave, StatusLate:
		return true
	}
	return false
}

// AttendanceRecord represents one student's presence state for one subject
// session on one calendar date. Date must be normalized to UTC midnight
// (see DateOf). MarkedAt is the wall-clock time the record was written and is
// used for last-write-wins deduplication of corrections.
type AttendanceRecord struct {
	Date      time.Time
	StudentID string
	Subject   string
	Section   string
	Branch    string
	Year      string
	Status    Status
	MarkedAt  time.Time
}

// AttendanceSummary is the derived attendance aggregate for a scope.
// Percentage is an integer in [0,100], rounded half-up. A zero-total scope
// yields a zero summary, never a division fault.
type AttendanceSummary struct {
	Present    int `json:"present"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ============================================================================
// Grade Types
// ============================================================================

// GradeComponents holds the three assessment components of a final grade.
// Callers clamp raw entry to the schema ranges (internal 0..30, external 0..70,
// practical 0..50) before calling; the engine re-clamps only the capped total.
type GradeComponents struct {
	InternalMarks  float64
	ExternalMarks  float64
	PracticalMarks float64
}

// GradeResult is the derived final grade for one course.
type GradeResult struct {
	TotalMarks       float64 `json:"total_marks"`
	TotalMarksCapped float64 `json:"total_marks_capped"`
	Percentage       float64 `json:"percentage"`
	LetterGrade      string  `json:"letter_grade"`
	GradePoints      float64 `json:"grade_points"`
	IsPass           bool    `json:"is_pass"`
}

// CourseGrade is one finalized course result used for GPA rollups.
type CourseGrade struct {
	CourseID    string
	Semester    string
	Credits     float64
	GradePoints float64
}

// GPASummary is the credit-weighted grade-point rollup for a student.
type GPASummary struct {
	CGPA              float64       `json:"cgpa"`
	TotalCredits      float64       `json:"total_credits"`
	SemesterBreakdown []SemesterGPA `json:"semester_breakdown"`
}

// SemesterGPA is the rollup for one semester.
type SemesterGPA struct {
	Semester string  `json:"semester"`
	SGPA     float64 `json:"sgpa"`
	Credits  float64 `json:"credits"`
	Courses  int     `json:"courses"`
}

// ============================================================================
// Configuration
// ============================================================================

// GradeBand maps a minimum percentage (inclusive) to a letter grade and grade
// points. Bands must be ordered descending by MinPercentage.
type GradeBand struct {
	MinPercentage float64
	LetterGrade   string
	GradePoints   float64
}

// Config carries grading policy. It is passed explicitly to every operation
// that needs it; the engine keeps no ambient mutable configuration.
type Config struct {
	PassingThreshold float64
	GradeBands       []GradeBand
}

// DefaultConfig returns the institutional default grading policy: a 10-point
// scale with a passing threshold of 35.
func DefaultConfig() Config {
	return Config{
		PassingThreshold: 35,
		GradeBands: []GradeBand{
			{90, "A+", 10},
			{80, "A", 9},
			{70, "A-", 8},
			{60, "B+", 7},
			{50, "B", 6},
			{40, "C+", 5},
			{35, "C", 4},
			{0, "F", 0},
		},
	}
}

// ============================================================================
// Errors
// ============================================================================

// ErrInvalidTemporalOrder is returned by RecordActivity when the supplied
// activity date is earlier than the stored last-activity date (clock skew or a
// backdated record). State is left unchanged.
var ErrInvalidTemporalOrder = errors.New("activity date earlier than last recorded activity")

// MalformedRecordError reports a record missing a required scope key. The
// engine rejects the whole batch rather than silently skipping, since a
// silently under-counted summary looks valid but is not.
type MalformedRecordError struct {
	Index int
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed attendance record at index %d: missing %s", e.Index, e.Field)
}

// ============================================================================
// Date Helpers
// ============================================================================

// DateOf truncates t to UTC midnight. All engine date comparisons operate on
// calendar-date granularity; raw timestamp subtraction is never used because
// time-of-day and timezone offsets cause off-by-one day errors.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole calendar days from a to b.
// Both arguments are normalized to UTC midnight first, so the result is exact.
func daysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
