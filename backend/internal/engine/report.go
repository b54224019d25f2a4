// ============================================================================
// backend/internal/engine/report.go
// Report formatting for already-computed summaries
// ============================================================================

package engine

import (
	"sort"
	"strconv"
)

// AttendanceReport is a scope-labeled, presentation-ready view of computed
// attendance figures. It carries values verbatim from the summaries it was
// built from; nothing here recomputes a percentage.
type AttendanceReport struct {
	Scope    string                       `json:"scope"`
	Overall  AttendanceSummary            `json:"overall"`
	Subjects map[string]AttendanceSummary `json:"subjects,omitempty"`
}

// BuildAttendanceReport assembles a report from an overall summary and an
// optional per-subject breakdown.
func BuildAttendanceReport(scope string, overall AttendanceSummary, subjects map[string]AttendanceSummary) AttendanceReport {
	return AttendanceReport{
		Scope:    scope,
		Overall:  overall,
		Subjects: subjects,
	}
}

// CSVHeader is the column order used by CSVRows.
var CSVHeader = []string{"scope", "subject", "present", "total", "percentage"}

// CSVRows flattens a report into tabular rows, one per subject plus an
// "overall" row, sorted by subject for deterministic output.
func (r AttendanceReport) CSVRows() [][]string {
	rows := [][]string{{
		r.Scope, "overall",
		strconv.Itoa(r.Overall.Present),
		strconv.Itoa(r.Overall.Total),
		strconv.Itoa(r.Overall.Percentage),
	}}

	subjects := make([]string, 0, len(r.Subjects))
	for subject := range r.Subjects {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		s := r.Subjects[subject]
		rows = append(rows, []string{
			r.Scope, subject,
			strconv.Itoa(s.Present),
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Percentage),
		})
	}
	return rows
}
